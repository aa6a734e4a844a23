package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"rent-console/internal/platform/httpclient"
)

var (
	ErrNotConfigured = errors.New("google oauth not configured")
	ErrInvalidState  = errors.New("google oauth state is invalid or expired")
	ErrUnverified    = errors.New("google account email is not verified")
	ErrUpstream      = errors.New("google upstream error")
)

const (
	defaultAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

	stateTTL = 10 * time.Minute
)

// Config del cliente OAuth. ClientID/ClientSecret salen de env vars.
type Config struct {
	ClientID     string
	ClientSecret string

	// RedirectURL es el callback de esta API (…/login/oauth2/code/google).
	RedirectURL string

	// Overrides de endpoints (tests). Vacíos => los de Google.
	AuthURL     string
	TokenURL    string
	UserInfoURL string

	Timeout time.Duration
}

// Profile es lo que nos interesa del userinfo de Google.
type Profile struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

type Client struct {
	oauth       *oauth2.Config
	userInfoURL string
	http        *httpclient.Client

	mu     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

func NewClient(cfg Config) *Client {
	authURL := strings.TrimSpace(cfg.AuthURL)
	if authURL == "" {
		authURL = defaultAuthURL
	}
	tokenURL := strings.TrimSpace(cfg.TokenURL)
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	userInfoURL := strings.TrimSpace(cfg.UserInfoURL)
	if userInfoURL == "" {
		userInfoURL = defaultUserInfoURL
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     strings.TrimSpace(cfg.ClientID),
			ClientSecret: strings.TrimSpace(cfg.ClientSecret),
			RedirectURL:  strings.TrimSpace(cfg.RedirectURL),
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		userInfoURL: userInfoURL,
		http:        httpclient.New(cfg.Timeout),
		states:      make(map[string]time.Time),
		now:         time.Now,
	}
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.oauth.ClientID != "" && c.oauth.ClientSecret != ""
}

// AuthCodeURL genera un state de un solo uso y devuelve la URL de consentimiento.
func (c *Client) AuthCodeURL() (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}
	state := uuid.NewString()

	c.mu.Lock()
	now := c.now()
	for s, exp := range c.states {
		if now.After(exp) {
			delete(c.states, s)
		}
	}
	c.states[state] = now.Add(stateTTL)
	c.mu.Unlock()

	return c.oauth.AuthCodeURL(state), nil
}

// consumeState valida y descarta el state (un solo uso).
func (c *Client) consumeState(state string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	exp, ok := c.states[state]
	if !ok {
		return false
	}
	delete(c.states, state)
	return !c.now().After(exp)
}

// Exchange valida el state, canjea el code y trae el perfil verificado.
func (c *Client) Exchange(ctx context.Context, state, code string) (Profile, error) {
	if !c.IsConfigured() {
		return Profile{}, ErrNotConfigured
	}
	if !c.consumeState(strings.TrimSpace(state)) {
		return Profile{}, ErrInvalidState
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http.HTTP)
	tok, err := c.oauth.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return Profile{}, fmt.Errorf("%w: exchange: %v", ErrUpstream, err)
	}

	var p Profile
	err = c.http.DoJSON(ctx, http.MethodGet, c.userInfoURL, map[string]string{
		"Authorization": "Bearer " + tok.AccessToken,
	}, nil, &p)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: userinfo: %v", ErrUpstream, err)
	}

	p.Email = strings.TrimSpace(p.Email)
	if p.Email == "" || !p.EmailVerified {
		return Profile{}, ErrUnverified
	}
	return p, nil
}
