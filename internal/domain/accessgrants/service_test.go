package accessgrants

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"rent-console/internal/domain/users"
	"rent-console/internal/permission"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type grantKey struct{ property, assistant int64 }

type testRepo struct {
	byKey map[grantKey]Grant
}

func newTestRepo() *testRepo {
	return &testRepo{byKey: map[grantKey]Grant{}}
}

func (r *testRepo) Create(ctx context.Context, g Grant) error {
	k := grantKey{g.PropertyID, g.AssistantUserID}
	if _, ok := r.byKey[k]; ok {
		return ErrAlreadyExists
	}
	r.byKey[k] = g
	return nil
}

func (r *testRepo) Update(ctx context.Context, g Grant) error {
	k := grantKey{g.PropertyID, g.AssistantUserID}
	if _, ok := r.byKey[k]; !ok {
		return errRepoNotFound
	}
	r.byKey[k] = g
	return nil
}

func (r *testRepo) Get(ctx context.Context, propertyID, assistantUserID int64) (Grant, error) {
	g, ok := r.byKey[grantKey{propertyID, assistantUserID}]
	if !ok {
		return Grant{}, errRepoNotFound
	}
	return g, nil
}

func (r *testRepo) ListByProperty(ctx context.Context, propertyID int64) ([]Grant, error) {
	out := make([]Grant, 0)
	for k, g := range r.byKey {
		if k.property == propertyID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testRepo) ListByAssistant(ctx context.Context, assistantUserID int64) ([]Grant, error) {
	out := make([]Grant, 0)
	for k, g := range r.byKey {
		if k.assistant == assistantUserID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, propertyID, assistantUserID int64) error {
	delete(r.byKey, grantKey{propertyID, assistantUserID})
	return nil
}

func (r *testRepo) DeleteByPair(ctx context.Context, ownerID, assistantUserID int64) error {
	for k, g := range r.byKey {
		if g.OwnerID == ownerID && k.assistant == assistantUserID {
			delete(r.byKey, k)
		}
	}
	return nil
}

type testProperties map[int64]int64 // property -> owner

func (p testProperties) OwnerOf(ctx context.Context, propertyID int64) (int64, error) {
	o, ok := p[propertyID]
	if !ok {
		return 0, errRepoNotFound
	}
	return o, nil
}

type testRels map[[2]int64]bool

func (r testRels) IsActive(ctx context.Context, ownerID, assistantUserID int64) (bool, error) {
	return r[[2]int64{ownerID, assistantUserID}], nil
}

type testDirectory map[int64]users.User

func (d testDirectory) Get(ctx context.Context, id int64) (users.User, error) {
	u, ok := d[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (d testDirectory) GetByEmail(ctx context.Context, email string) (users.User, error) {
	for _, u := range d {
		if u.Email == email {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

const (
	ownerID     int64 = 1
	otherOwner  int64 = 2
	assistantID int64 = 10
	strangerID  int64 = 11
	propertyID  int64 = 100
)

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(
		repo,
		testProperties{propertyID: ownerID, 200: otherOwner},
		testRels{{ownerID, assistantID}: true},
		testDirectory{
			assistantID: {ID: assistantID, Email: "helper@example.com", FullName: "Helper"},
			strangerID:  {ID: strangerID, Email: "stranger@example.com", FullName: "Stranger"},
		},
	)
	svc.now = func() time.Time { return time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC) }
	return svc, repo
}

// -------------------------
// Tests
// -------------------------

func TestService_Grant_NormalizesPermissions(t *testing.T) {
	svc, _ := newTestService()

	e, err := svc.Grant(context.Background(), GrantInput{
		PropertyID:  propertyID,
		ActorID:     ownerID,
		Email:       "helper@example.com",
		Permissions: []permission.Permission{permission.ManageRooms, permission.ViewProperty, permission.ManageRooms},
	})
	if err != nil {
		t.Fatalf("Grant error: %v", err)
	}
	want := []permission.Permission{permission.ViewProperty, permission.ManageRooms}
	if e.UserID != assistantID || !reflect.DeepEqual(e.Permissions, want) {
		t.Fatalf("unexpected entry %#v", e)
	}
}

func TestService_Grant_Errors(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	base := GrantInput{PropertyID: propertyID, ActorID: ownerID, Email: "helper@example.com"}

	cases := []struct {
		name string
		mut  func(in GrantInput) GrantInput
		want error
	}{
		{"no relationship", func(in GrantInput) GrantInput { in.Email = "stranger@example.com"; return in }, ErrNotFound},
		{"unknown email", func(in GrantInput) GrantInput { in.Email = "ghost@example.com"; return in }, ErrNotFound},
		{"not owner", func(in GrantInput) GrantInput { in.PropertyID = 200; return in }, ErrForbidden},
		{"missing property", func(in GrantInput) GrantInput { in.PropertyID = 999; return in }, ErrPropertyNotFound},
		{"bad permission", func(in GrantInput) GrantInput {
			in.Permissions = []permission.Permission{"FLY"}
			return in
		}, ErrInvalidPermissions},
	}
	for _, tc := range cases {
		if _, err := svc.Grant(ctx, tc.mut(base)); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestService_Grant_ConflictWhenExisting(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	in := GrantInput{PropertyID: propertyID, ActorID: ownerID, Email: "helper@example.com"}

	if _, err := svc.Grant(ctx, in); err != nil {
		t.Fatalf("Grant #1: %v", err)
	}
	if _, err := svc.Grant(ctx, in); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestService_UpdatePermissions_ReplacesWholesale(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Grant(ctx, GrantInput{
		PropertyID:  propertyID,
		ActorID:     ownerID,
		Email:       "helper@example.com",
		Permissions: []permission.Permission{permission.ViewProperty, permission.ManageRooms},
	})
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}

	next := []permission.Permission{permission.ViewProperty, permission.ManageTenants}
	if _, err := svc.UpdatePermissions(ctx, propertyID, ownerID, assistantID, next); err != nil {
		t.Fatalf("UpdatePermissions: %v", err)
	}

	g := repo.byKey[grantKey{propertyID, assistantID}]
	if !reflect.DeepEqual(g.Permissions, next) {
		t.Fatalf("expected exactly %v, got %v", next, g.Permissions)
	}

	if _, err := svc.UpdatePermissions(ctx, propertyID, ownerID, strangerID, next); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing grant, got %v", err)
	}
}

func TestService_Revoke_Idempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	_, _ = svc.Grant(ctx, GrantInput{PropertyID: propertyID, ActorID: ownerID, Email: "helper@example.com"})

	for i := 0; i < 2; i++ {
		if err := svc.Revoke(ctx, propertyID, ownerID, assistantID); err != nil {
			t.Fatalf("Revoke #%d: %v", i+1, err)
		}
	}
	if len(repo.byKey) != 0 {
		t.Fatalf("expected no grants left")
	}

	if err := svc.Revoke(ctx, 200, ownerID, assistantID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non owner revoke must be forbidden, got %v", err)
	}
}

func TestService_RevokeAllForPair(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	_ = repo.Create(ctx, Grant{ID: "a", PropertyID: propertyID, OwnerID: ownerID, AssistantUserID: assistantID})
	_ = repo.Create(ctx, Grant{ID: "b", PropertyID: 101, OwnerID: ownerID, AssistantUserID: assistantID})
	_ = repo.Create(ctx, Grant{ID: "c", PropertyID: 200, OwnerID: otherOwner, AssistantUserID: assistantID})

	if err := svc.RevokeAllForPair(ctx, ownerID, assistantID); err != nil {
		t.Fatalf("RevokeAllForPair: %v", err)
	}
	if len(repo.byKey) != 1 {
		t.Fatalf("only the other owner's grant should remain, got %d", len(repo.byKey))
	}
}
