package guard

import (
	"testing"

	"rent-console/internal/console/session"
)

type fixedStatus session.Status

func (f *fixedStatus) Status() session.Status { return session.Status(*f) }

func newGuard(s session.Status) (*Guard, *fixedStatus) {
	st := fixedStatus(s)
	return New(&st), &st
}

func TestEvaluate_ByStatus(t *testing.T) {
	cases := []struct {
		status session.Status
		want   Kind
	}{
		{session.StatusUninitialized, Loading},
		{session.StatusChecking, Loading},
		{session.StatusUnauthenticated, Redirect},
		{session.StatusAuthenticated, Render},
	}
	for _, tc := range cases {
		g, _ := newGuard(tc.status)
		if got := g.Evaluate("/properties").Kind; got != tc.want {
			t.Fatalf("status %v: got %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestEvaluate_RedirectCarriesRequestedLocation(t *testing.T) {
	g, st := newGuard(session.StatusUnauthenticated)

	d := g.Evaluate("/properties/12/assistants?tab=grants")
	if d.Kind != Redirect {
		t.Fatalf("expected redirect, got %v", d.Kind)
	}
	if d.From != "/properties/12/assistants?tab=grants" {
		t.Fatalf("unexpected from %q", d.From)
	}
	if d.Location != "/login?from=%2Fproperties%2F12%2Fassistants%3Ftab%3Dgrants" {
		t.Fatalf("unexpected location %q", d.Location)
	}

	// después del login el guard deja pasar y ReturnTo devuelve la ruta original
	*st = fixedStatus(session.StatusAuthenticated)
	if g.Evaluate(d.From).Kind != Render {
		t.Fatalf("expected render after login")
	}
	if got := ReturnTo(d.From); got != "/properties/12/assistants?tab=grants" {
		t.Fatalf("ReturnTo = %q", got)
	}
}

func TestEvaluate_PublicPathsAlwaysRender(t *testing.T) {
	for _, s := range []session.Status{session.StatusChecking, session.StatusUnauthenticated} {
		g, _ := newGuard(s)
		for _, p := range []string{"/login", "/signup", "/oauth2/redirect?token=abc", "/login/"} {
			if d := g.Evaluate(p); d.Kind != Render {
				t.Fatalf("%s with status %v: got %v", p, s, d.Kind)
			}
		}
	}
}

func TestReturnTo_Sanitizes(t *testing.T) {
	cases := map[string]string{
		"":                       "/",
		"/":                      "/",
		"/properties":            "/properties",
		"https://evil.example":   "/",
		"//evil.example/path":    "/",
		`/\evil.example`:         "/",
		"properties":             "/",
		"/login?from=/x":         "/",
		"/owners?mode=assistant": "/owners?mode=assistant",
	}
	for in, want := range cases {
		if got := ReturnTo(in); got != want {
			t.Fatalf("ReturnTo(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoginURL_DefaultLandingHasNoFrom(t *testing.T) {
	if got := LoginURL("/"); got != "/login" {
		t.Fatalf("got %q", got)
	}
}
