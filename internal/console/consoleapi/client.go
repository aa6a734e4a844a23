// Package consoleapi es el cliente tipado del backend que usa el console.
// Es la única capa que decodifica respuestas y clasifica errores.
package consoleapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"rent-console/internal/permission"
	"rent-console/internal/platform/httpclient"
	"rent-console/internal/platform/logger"
)

// TokenSource entrega el bearer token actual ("" si no hay sesión).
type TokenSource interface {
	Token() string
}

type Client struct {
	http   *httpclient.Client
	tokens TokenSource
	log    logger.Logger

	mu             sync.RWMutex
	onUnauthorized func(token string)
}

func New(hc *httpclient.Client, tokens TokenSource, log logger.Logger) *Client {
	return &Client{
		http:   hc,
		tokens: tokens,
		log:    logger.OrNop(log),
	}
}

// OnUnauthorized registra el hook que corre ante un 401 de una llamada
// autenticada. Recibe el token con el que se hizo el request.
// Las llamadas a /api/auth/* no lo disparan.
func (c *Client) OnUnauthorized(fn func(token string)) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// OAuthURL es el destino del redirect de navegador para "login con Google".
func (c *Client) OAuthURL() string {
	return c.http.BaseURL + "/oauth2/authorization/google"
}

type call struct {
	req httpclient.Request

	// token explícito; vacío => el del TokenSource
	token  string
	noHook bool
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	token := cl.token
	if token == "" && c.tokens != nil {
		token = strings.TrimSpace(c.tokens.Token())
	}
	if token != "" {
		headers := make(map[string]string, len(cl.req.Headers)+1)
		for k, v := range cl.req.Headers {
			headers[k] = v
		}
		headers["Authorization"] = "Bearer " + token
		cl.req.Headers = headers
	}

	err := classify(c.http.Do(ctx, cl.req, out))
	if err == nil {
		return nil
	}

	var ae *APIError
	if errors.As(err, &ae) {
		switch ae.Status {
		case http.StatusUnauthorized:
			if token != "" && !cl.noHook && !strings.HasPrefix(cl.req.Path, "/api/auth/") {
				c.log.Warn("credential rejected by server", map[string]any{"path": cl.req.Path})
				c.mu.RLock()
				hook := c.onUnauthorized
				c.mu.RUnlock()
				if hook != nil {
					hook(token)
				}
			}
		case http.StatusForbidden:
			c.log.Debug("access denied", map[string]any{"path": cl.req.Path})
		}
	} else if IsNetwork(err) {
		c.log.Warn("network error", map[string]any{"path": cl.req.Path, "error": err.Error()})
	}
	return err
}

// -------------------------
// auth
// -------------------------

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out struct {
		Token string `json:"token"`
		Profile
	}
	err := c.do(ctx, call{req: httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   map[string]string{"email": email, "password": password},
	}}, &out)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: out.Token, Profile: out.Profile}, nil
}

func (c *Client) Signup(ctx context.Context, in SignupRequest) (Profile, error) {
	var out Profile
	err := c.do(ctx, call{req: httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/signup",
		Body:   in,
	}}, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, call{req: httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/logout",
	}}, nil)
}

// -------------------------
// perfil
// -------------------------

func (c *Client) Me(ctx context.Context) (Profile, error) {
	var out Profile
	err := c.do(ctx, call{req: httpclient.Request{Method: http.MethodGet, Path: "/api/users/me"}}, &out)
	return out, err
}

// MeWithToken valida un token que todavía no es la sesión actual
// (intercambio OAuth). Un 401 acá no dispara el hook.
func (c *Client) MeWithToken(ctx context.Context, token string) (Profile, error) {
	var out Profile
	err := c.do(ctx, call{
		req:    httpclient.Request{Method: http.MethodGet, Path: "/api/users/me"},
		token:  strings.TrimSpace(token),
		noHook: true,
	}, &out)
	return out, err
}

func (c *Client) UpdateMe(ctx context.Context, patch ProfilePatch) (Profile, error) {
	var out Profile
	err := c.do(ctx, call{req: httpclient.Request{
		Method: http.MethodPut,
		Path:   "/api/users/me",
		Body:   patch,
	}}, &out)
	return out, err
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.do(ctx, call{req: httpclient.Request{
		Method: http.MethodPut,
		Path:   "/api/users/me/password",
		Body:   map[string]string{"currentPassword": current, "newPassword": next},
	}}, nil)
}

// -------------------------
// asistentes
// -------------------------

func (c *Client) Owners(ctx context.Context) ([]Member, error) {
	out := make([]Member, 0)
	err := c.do(ctx, call{req: httpclient.Request{Method: http.MethodGet, Path: "/api/users/owners"}}, &out)
	return out, err
}

func (c *Client) Assistants(ctx context.Context) ([]Member, error) {
	out := make([]Member, 0)
	err := c.do(ctx, call{req: httpclient.Request{Method: http.MethodGet, Path: "/api/users/assistants"}}, &out)
	return out, err
}

func (c *Client) AddAssistant(ctx context.Context, email string) (Member, error) {
	var out Member
	err := c.do(ctx, call{req: httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/users/assistants",
		Body:   map[string]string{"email": email},
	}}, &out)
	return out, err
}

func (c *Client) RemoveAssistant(ctx context.Context, assistantUserID int64) error {
	return c.do(ctx, call{req: httpclient.Request{
		Method: http.MethodDelete,
		Path:   "/api/users/assistants/" + strconv.FormatInt(assistantUserID, 10),
	}}, nil)
}

// -------------------------
// propiedades
// -------------------------

func (c *Client) Properties(ctx context.Context, f PropertyFilter) ([]Property, error) {
	out := make([]Property, 0)
	err := c.do(ctx, call{req: httpclient.Request{
		Method: http.MethodGet,
		Path:   "/api/properties",
		Query:  f,
	}}, &out)
	return out, err
}

func (c *Client) CreateProperty(ctx context.Context, in PropertyInput) (Property, error) {
	var out Property
	err := c.do(ctx, call{req: httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/properties",
		Body:   in,
	}}, &out)
	return out, err
}

func (c *Client) Property(ctx context.Context, id int64) (Property, error) {
	var out Property
	err := c.do(ctx, call{req: httpclient.Request{
		Method: http.MethodGet,
		Path:   propertyPath(id),
	}}, &out)
	return out, err
}

// -------------------------
// permisos por propiedad
// -------------------------

func (c *Client) PropertyAssistants(ctx context.Context, propertyID int64) ([]PropertyAccess, error) {
	out := make([]PropertyAccess, 0)
	err := c.do(ctx, call{req: httpclient.Request{
		Method: http.MethodGet,
		Path:   propertyPath(propertyID) + "/assistants",
	}}, &out)
	return out, err
}

func (c *Client) GrantAccess(ctx context.Context, propertyID int64, email string, perms []permission.Permission) (PropertyAccess, error) {
	var out PropertyAccess
	err := c.do(ctx, call{req: httpclient.Request{
		Method: http.MethodPost,
		Path:   propertyPath(propertyID) + "/assistants",
		Body: map[string]any{
			"email":       email,
			"permissions": permission.Strings(perms),
		},
	}}, &out)
	return out, err
}

func (c *Client) UpdateAccess(ctx context.Context, propertyID, assistantUserID int64, perms []permission.Permission) (PropertyAccess, error) {
	var out PropertyAccess
	err := c.do(ctx, call{req: httpclient.Request{
		Method: http.MethodPut,
		Path:   propertyPath(propertyID) + "/assistants/" + strconv.FormatInt(assistantUserID, 10),
		Body:   map[string]any{"permissions": permission.Strings(perms)},
	}}, &out)
	return out, err
}

func (c *Client) RevokeAccess(ctx context.Context, propertyID, assistantUserID int64) error {
	return c.do(ctx, call{req: httpclient.Request{
		Method: http.MethodDelete,
		Path:   propertyPath(propertyID) + "/assistants/" + strconv.FormatInt(assistantUserID, 10),
	}}, nil)
}

func propertyPath(id int64) string {
	return "/api/properties/" + strconv.FormatInt(id, 10)
}
