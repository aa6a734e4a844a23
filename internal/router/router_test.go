package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"rent-console/internal/adapters/auth/jwtauth"
	"rent-console/internal/adapters/storage/memory"
	"rent-console/internal/middleware"
	"rent-console/internal/permission"
	"rent-console/internal/router"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	tokens, err := jwtauth.NewManager(jwtauth.Config{
		Secret:      "test-secret",
		TTL:         time.Hour,
		Revocations: memory.NewRevocationList(),
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier: tokens,
		TokenIssuer:  tokens,
		TokenRevoker: tokens,
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_PropertyAccess(t *testing.T) {
	ts := newServer(t)

	// 1) Alta de owner y asistente
	signup(t, ts.URL, "owner@example.com", "Olga Owner", "OWNER")
	assistantID := signup(t, ts.URL, "asst@example.com", "Andrés Asistente", "ASSISTANT")

	ownerTok := login(t, ts.URL, "owner@example.com")
	asstTok := login(t, ts.URL, "asst@example.com")

	// 2) Owner crea propiedad
	propertyID := createProperty(t, ts.URL, ownerTok, "Casa Norte")
	propPath := "/api/properties/" + strconv.FormatInt(propertyID, 10)

	// 3) Asistente NO ve la propiedad aún
	{
		st, _ := doReq(t, ts.URL, "GET", propPath, asstTok, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 before grant, got %d", st)
		}
	}

	// 4) Sin vínculo, el grant se rechaza
	{
		st, body := doReq(t, ts.URL, "POST", propPath+"/assistants", ownerTok, map[string]any{
			"email":       "asst@example.com",
			"permissions": []string{"VIEW_PROPERTY"},
		})
		if st < 400 {
			t.Fatalf("expected error granting without relationship, got %d body=%s", st, string(body))
		}
	}

	// 5) Owner vincula al asistente
	{
		st, body := doReq(t, ts.URL, "POST", "/api/users/assistants", ownerTok, map[string]any{
			"email": "asst@example.com",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 add assistant, got %d body=%s", st, string(body))
		}
	}

	// 6) Asistente ve al owner en su lista
	{
		st, body := doReq(t, ts.URL, "GET", "/api/users/owners", asstTok, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 owners, got %d body=%s", st, string(body))
		}
		var owners []struct {
			Email string `json:"email"`
		}
		_ = json.Unmarshal(body, &owners)
		if len(owners) != 1 || owners[0].Email != "owner@example.com" {
			t.Fatalf("unexpected owners: %s", string(body))
		}
	}

	// 7) Permiso desconocido => 422
	{
		st, _ := doReq(t, ts.URL, "POST", propPath+"/assistants", ownerTok, map[string]any{
			"email":       "asst@example.com",
			"permissions": []string{"VIEW_PROPERTY", "DELETE_EVERYTHING"},
		})
		if st != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for unknown permission, got %d", st)
		}
	}

	// 8) Owner otorga VIEW_PROPERTY + MANAGE_TENANTS
	{
		st, body := doReq(t, ts.URL, "POST", propPath+"/assistants", ownerTok, map[string]any{
			"email":       "asst@example.com",
			"permissions": []string{string(permission.ManageTenants), string(permission.ViewProperty)},
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 grant, got %d body=%s", st, string(body))
		}
	}

	// 9) El asistente ya ve la propiedad y sus permisos
	{
		st, body := doReq(t, ts.URL, "GET", "/api/properties?mode=assistant", asstTok, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list, got %d body=%s", st, string(body))
		}
		var items []struct {
			ID          int64    `json:"id"`
			AccessRole  string   `json:"accessRole"`
			Permissions []string `json:"permissions"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].ID != propertyID || items[0].AccessRole != "ASSISTANT" {
			t.Fatalf("unexpected list: %s", string(body))
		}
		if strings.Join(items[0].Permissions, ",") != "VIEW_PROPERTY,MANAGE_TENANTS" {
			t.Fatalf("permissions should be canonical, got %v", items[0].Permissions)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "GET", propPath, asstTok, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get property after grant, got %d", st)
		}
	}

	// 10) Sólo el owner administra los asistentes de la propiedad
	{
		st, _ := doReq(t, ts.URL, "GET", propPath+"/assistants", asstTok, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 listing grants as assistant, got %d", st)
		}
	}

	// 11) Quitar al asistente borra sus grants en cascada
	{
		path := "/api/users/assistants/" + strconv.FormatInt(assistantID, 10)
		st, body := doReq(t, ts.URL, "DELETE", path, ownerTok, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 remove assistant, got %d body=%s", st, string(body))
		}
	}
	{
		st, _ := doReq(t, ts.URL, "GET", propPath, asstTok, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 after removal, got %d", st)
		}
	}
}

func TestHTTP_LogoutRevokesToken(t *testing.T) {
	ts := newServer(t)

	signup(t, ts.URL, "owner@example.com", "Olga Owner", "OWNER")
	tok := login(t, ts.URL, "owner@example.com")

	if st, _ := doReq(t, ts.URL, "GET", "/api/users/me", tok, nil); st != http.StatusOK {
		t.Fatalf("expected 200 me, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "POST", "/api/auth/logout", tok, nil); st != http.StatusNoContent {
		t.Fatalf("expected 204 logout, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/api/users/me", tok, nil); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 with revoked token, got %d", st)
	}
}

func TestHTTP_LoginRejectsBadPassword(t *testing.T) {
	ts := newServer(t)
	signup(t, ts.URL, "owner@example.com", "Olga Owner", "OWNER")

	st, body := doReq(t, ts.URL, "POST", "/api/auth/login", "", map[string]any{
		"email":    "owner@example.com",
		"password": "wrong-password",
	})
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", st, string(body))
	}
}

func TestHTTP_ProtectedRoutesRequireToken(t *testing.T) {
	ts := newServer(t)

	for _, path := range []string{"/api/users/me", "/api/properties", "/api/users/assistants", "/api/users/owners"} {
		st, body := doReq(t, ts.URL, "GET", path, "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, st)
		}
		if !strings.Contains(string(body), `"message"`) {
			t.Fatalf("%s: expected JSON envelope, got %s", path, string(body))
		}
	}
}

func TestHTTP_PropertiesRejectsBadMode(t *testing.T) {
	ts := newServer(t)
	signup(t, ts.URL, "owner@example.com", "Olga Owner", "OWNER")
	tok := login(t, ts.URL, "owner@example.com")

	if st, _ := doReq(t, ts.URL, "GET", "/api/properties?mode=everything", tok, nil); st != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", st)
	}
}

func TestHTTP_AuthRateLimited(t *testing.T) {
	tokens, _ := jwtauth.NewManager(jwtauth.Config{Secret: "s", TTL: time.Hour})
	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier: tokens,
		TokenIssuer:  tokens,
		AuthLimiter:  middleware.NewRateLimiter(0.001, 1),
	}))
	defer ts.Close()

	payload := map[string]any{"email": "x@example.com", "password": "whatever"}
	if st, _ := doReq(t, ts.URL, "POST", "/api/auth/login", "", payload); st == http.StatusTooManyRequests {
		t.Fatalf("first request should not be limited")
	}
	if st, _ := doReq(t, ts.URL, "POST", "/api/auth/login", "", payload); st != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second request, got %d", st)
	}
}

func TestHTTP_AuthRateLimitIgnoresSpoofedClientIP(t *testing.T) {
	tokens, _ := jwtauth.NewManager(jwtauth.Config{Secret: "s", TTL: time.Hour})
	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier: tokens,
		TokenIssuer:  tokens,
		AuthLimiter:  middleware.NewRateLimiter(0.001, 1),
	}))
	defer ts.Close()

	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest("POST", ts.URL+"/api/auth/login", strings.NewReader(`{"email":"x@example.com","password":"whatever"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i+1))
		req.Header.Set("X-Real-IP", "198.51.100."+strconv.Itoa(i+1))
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		_ = res.Body.Close()

		limited := res.StatusCode == http.StatusTooManyRequests
		if i == 0 && limited {
			t.Fatalf("first request should not be limited")
		}
		if i > 0 && !limited {
			t.Fatalf("request %d with a new forwarded IP escaped the limit (status %d)", i, res.StatusCode)
		}
	}
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	ts := newServer(t)

	if st, body := doReq(t, ts.URL, "GET", "/health", "", nil); st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected health: %d %s", st, string(body))
	}
	st, body := doReq(t, ts.URL, "GET", "/metrics", "", nil)
	if st != http.StatusOK || !strings.Contains(string(body), "http_requests_total") {
		t.Fatalf("unexpected metrics: %d", st)
	}
}

func TestHTTP_DevModeDebugHeaders(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	req, _ := http.NewRequest("GET", ts.URL+"/api/properties", nil)
	req.Header.Set("X-Debug-User-ID", "1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 in dev mode, got %d", resp.StatusCode)
	}
}

func signup(t *testing.T, baseURL, email, name, userType string) int64 {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/api/auth/signup", "", map[string]any{
		"email":    email,
		"password": "secret123",
		"fullName": name,
		"userType": userType,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 signup, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == 0 {
		t.Fatalf("signup: missing id body=%s", string(body))
	}
	return resp.ID
}

func login(t *testing.T, baseURL, email string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/api/auth/login", "", map[string]any{
		"email":    email,
		"password": "secret123",
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 login, got %d body=%s", st, string(body))
	}

	var resp struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Token == "" {
		t.Fatalf("login: missing token body=%s", string(body))
	}
	return resp.Token
}

func createProperty(t *testing.T, baseURL, token, name string) int64 {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/api/properties", token, map[string]any{
		"name":        name,
		"city":        "Lima",
		"totalFloors": 2,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create property, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == 0 {
		t.Fatalf("create property: missing id body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, token string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}
