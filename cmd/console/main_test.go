package main

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/juju/errors"

	"rent-console/internal/adapters/auth/jwtauth"
	"rent-console/internal/adapters/storage/memory"
	"rent-console/internal/router"
)

func newAPI(t *testing.T) string {
	t.Helper()
	tokens, err := jwtauth.NewManager(jwtauth.Config{
		Secret:      "test-secret",
		TTL:         time.Hour,
		Revocations: memory.NewRevocationList(),
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	srv := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier: tokens,
		TokenIssuer:  tokens,
		TokenRevoker: tokens,
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

// cli corre un comando contra la API y el archivo de estado dados.
func cli(t *testing.T, api, state string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(append([]string{"--api", api, "--state", state}, args...), &out)
	return out.String(), err
}

func mustCLI(t *testing.T, api, state string, args ...string) string {
	t.Helper()
	out, err := cli(t, api, state, args...)
	if err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out
}

func signupAndLogin(t *testing.T, api, state, email, name, userType string) {
	t.Helper()
	mustCLI(t, api, state, "signup", "--email", email, "--password", "secret123", "--name", name, "--type", userType)
	mustCLI(t, api, state, "login", "--email", email, "--password", "secret123")
}

// -------------------------
// tests
// -------------------------

func TestTheme_PersistsAcrossRuns(t *testing.T) {
	state := filepath.Join(t.TempDir(), "state.yaml")
	api := "http://localhost:8080"

	if out := mustCLI(t, api, state, "theme"); out != "theme: light\n" {
		t.Fatalf("unexpected default %q", out)
	}
	mustCLI(t, api, state, "theme", "DARK")
	if out := mustCLI(t, api, state, "theme"); out != "theme: dark\n" {
		t.Fatalf("theme not persisted, got %q", out)
	}
	if _, err := cli(t, api, state, "theme", "neon"); !errors.Is(err, errors.NotValid) {
		t.Fatalf("expected NotValid, got %v", err)
	}
}

func TestPermissions_ListsVocabularyWithLabels(t *testing.T) {
	state := filepath.Join(t.TempDir(), "state.yaml")
	out := mustCLI(t, "http://localhost:8080", state, "permissions")

	for _, want := range []string{"VIEW_PROPERTY", "View Property Details", "MANAGE_SETTINGS", "Manage Settings"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestProtectedCommandRequiresLogin(t *testing.T) {
	state := filepath.Join(t.TempDir(), "state.yaml")
	if _, err := cli(t, newAPI(t), state, "whoami"); !errors.Is(err, errors.Unauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestWhoamiRefreshAndGrantLabels(t *testing.T) {
	api := newAPI(t)
	dir := t.TempDir()
	ownerState := filepath.Join(dir, "owner.yaml")
	asstState := filepath.Join(dir, "asst.yaml")

	signupAndLogin(t, api, ownerState, "owner@example.com", "Owner A", "OWNER")
	signupAndLogin(t, api, asstState, "asst@example.com", "Andrea", "ASSISTANT")

	// el cambio de nombre se hace desde otra sesión del mismo usuario
	other := filepath.Join(dir, "other.yaml")
	mustCLI(t, api, other, "login", "--email", "owner@example.com", "--password", "secret123")
	mustCLI(t, api, other, "update-profile", "--name", "Owner B")

	if out := mustCLI(t, api, ownerState, "whoami"); !strings.Contains(out, "Owner A") {
		t.Fatalf("whoami must use the cached profile:\n%s", out)
	}
	if out := mustCLI(t, api, ownerState, "whoami", "--refresh"); !strings.Contains(out, "Owner B") {
		t.Fatalf("whoami --refresh must fetch the profile:\n%s", out)
	}

	out := mustCLI(t, api, ownerState, "create-property", "--name", "Casa Norte", "--floors", "2")
	var pid string
	if f := strings.Fields(out); len(f) >= 2 {
		pid = f[1]
	}
	mustCLI(t, api, ownerState, "add-assistant", "asst@example.com")
	mustCLI(t, api, ownerState, "grant", pid, "asst@example.com", "--perm", "VIEW_PROPERTY,MANAGE_ROOMS")

	out = mustCLI(t, api, ownerState, "grants", pid)
	if !strings.Contains(out, "View Property Details, Manage Floors & Rooms") || !strings.Contains(out, "2 Permissions") {
		t.Fatalf("grants output without labels:\n%s", out)
	}
}
