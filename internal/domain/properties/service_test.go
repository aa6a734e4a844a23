package properties

import (
	"context"
	"errors"
	"testing"

	"rent-console/internal/domain/accessgrants"
	"rent-console/internal/permission"
)

type testRepo struct {
	nextID int64
	byID   map[int64]Property
}

func newTestRepo() *testRepo { return &testRepo{byID: map[int64]Property{}} }

func (r *testRepo) Create(ctx context.Context, p Property) (Property, error) {
	r.nextID++
	p.ID = r.nextID
	r.byID[p.ID] = p
	return p, nil
}

func (r *testRepo) GetByID(ctx context.Context, id int64) (Property, error) {
	p, ok := r.byID[id]
	if !ok {
		return Property{}, errors.New("repo: not found")
	}
	return p, nil
}

func (r *testRepo) ListByOwner(ctx context.Context, ownerID int64) ([]Property, error) {
	var out []Property
	for _, p := range r.byID {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

type testGrants []accessgrants.Grant

func (g testGrants) Get(ctx context.Context, propertyID, assistantUserID int64) (accessgrants.Grant, error) {
	for _, x := range g {
		if x.PropertyID == propertyID && x.AssistantUserID == assistantUserID {
			return x, nil
		}
	}
	return accessgrants.Grant{}, accessgrants.ErrNotFound
}

func (g testGrants) ListForAssistant(ctx context.Context, assistantUserID int64) ([]accessgrants.Grant, error) {
	var out []accessgrants.Grant
	for _, x := range g {
		if x.AssistantUserID == assistantUserID {
			out = append(out, x)
		}
	}
	return out, nil
}

const (
	ownerA    int64 = 1
	ownerB    int64 = 2
	assistant int64 = 10
)

// ownerA: props 1,2 ; ownerB: prop 3 ; assistant tiene VIEW en 1 y 3, sólo MANAGE_ROOMS en 2.
func seed(t *testing.T) *Service {
	t.Helper()
	repo := newTestRepo()
	svc := NewService(repo)
	ctx := context.Background()
	for _, o := range []int64{ownerA, ownerA, ownerB} {
		if _, err := svc.Create(ctx, o, CreateInput{Name: "P"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	view := []permission.Permission{permission.ViewProperty}
	svc.SetGrants(testGrants{
		{PropertyID: 1, OwnerID: ownerA, AssistantUserID: assistant, Permissions: view},
		{PropertyID: 2, OwnerID: ownerA, AssistantUserID: assistant, Permissions: []permission.Permission{permission.ManageRooms}},
		{PropertyID: 3, OwnerID: ownerB, AssistantUserID: assistant, Permissions: view},
	})
	return svc
}

func ids(items []Listed) []int64 {
	out := make([]int64, 0, len(items))
	for _, p := range items {
		out = append(out, p.ID)
	}
	return out
}

func TestService_List_Modes(t *testing.T) {
	svc := seed(t)
	ctx := context.Background()
	b := ownerB

	cases := []struct {
		name   string
		userID int64
		f      Filter
		want   []int64
	}{
		{"owner mode", ownerA, Filter{Mode: ModeOwner}, []int64{1, 2}},
		{"assistant mode", assistant, Filter{Mode: ModeAssistant}, []int64{1, 3}},
		{"assistant filtered by owner", assistant, Filter{Mode: ModeAssistant, OwnerID: &b}, []int64{3}},
		{"owner has nothing assisted", ownerA, Filter{Mode: ModeAssistant}, []int64{}},
		{"all", ownerA, Filter{}, []int64{1, 2}},
	}
	for _, tc := range cases {
		got, err := svc.List(ctx, tc.userID, tc.f)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		gotIDs := ids(got)
		if len(gotIDs) != len(tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, gotIDs, tc.want)
		}
		for i := range gotIDs {
			if gotIDs[i] != tc.want[i] {
				t.Fatalf("%s: got %v, want %v", tc.name, gotIDs, tc.want)
			}
		}
	}
}

func TestService_View_RequiresViewPermission(t *testing.T) {
	svc := seed(t)
	ctx := context.Background()

	if p, err := svc.View(ctx, ownerA, 2); err != nil || p.Role != RoleOwner {
		t.Fatalf("owner must always view, got %v %v", p.Role, err)
	}
	if p, err := svc.View(ctx, assistant, 1); err != nil || p.Role != RoleAssistant {
		t.Fatalf("assistant with VIEW_PROPERTY must view, got %v %v", p.Role, err)
	}
	if _, err := svc.View(ctx, assistant, 2); !errors.Is(err, ErrForbidden) {
		t.Fatalf("grant without VIEW_PROPERTY must be forbidden, got %v", err)
	}
	if _, err := svc.View(ctx, assistant, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeAll, "Owner": ModeOwner, "assistant": ModeAssistant, "all": ModeAll} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("admin"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput")
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc := NewService(newTestRepo())
	_, err := svc.Create(context.Background(), ownerA, CreateInput{TotalFloors: -1})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Fields["name"] == "" || ve.Fields["totalFloors"] == "" {
		t.Fatalf("expected field errors, got %v", err)
	}
}
