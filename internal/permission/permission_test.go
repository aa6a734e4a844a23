package permission

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalize_DedupsAndOrders(t *testing.T) {
	got, err := Normalize([]Permission{ManagePayments, "view_property", ManagePayments})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := []Permission{ViewProperty, ManagePayments}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNormalize_RejectsUnknown(t *testing.T) {
	_, err := Normalize([]Permission{ViewProperty, "DELETE_EVERYTHING"})
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
}

func TestNormalize_EmptyIsValid(t *testing.T) {
	got, err := Normalize(nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty set, got %v %v", got, err)
	}
}

func TestSummary(t *testing.T) {
	cases := []struct {
		in   []Permission
		want string
	}{
		{nil, "No Permissions"},
		{[]Permission{ViewProperty}, "1 Permission"},
		{[]Permission{ViewProperty, ManageRooms}, "2 Permissions"},
		{All(), "Full Access"},
	}
	for _, tc := range cases {
		if got := Summary(tc.in); got != tc.want {
			t.Fatalf("Summary(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsFullAccess_RequiresEveryPermission(t *testing.T) {
	dup := []Permission{ViewProperty, ViewProperty, ManageRooms, ManageTenants, ManagePayments, ViewFinancials}
	if IsFullAccess(dup) {
		t.Fatalf("six entries with a duplicate is not full access")
	}
	if !IsFullAccess(All()) {
		t.Fatalf("All() must be full access")
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	a := All()
	a[0] = "X"
	if All()[0] != ViewProperty {
		t.Fatalf("All must not expose the backing slice")
	}
}
