// Package guard decide qué hacer con una navegación según el estado de la sesión.
package guard

import (
	"net/url"
	"strings"

	"rent-console/internal/console/session"
)

const (
	LoginPath    = "/login"
	SignupPath   = "/signup"
	RedirectPath = "/oauth2/redirect"

	defaultLanding = "/"
)

type Kind int

const (
	Loading Kind = iota
	Redirect
	Render
)

func (k Kind) String() string {
	switch k {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	default:
		return "render"
	}
}

// Decision: en Redirect, Location es el login y From la ruta pedida.
type Decision struct {
	Kind     Kind
	Location string
	From     string
}

// StatusSource lo cumple *session.Manager.
type StatusSource interface {
	Status() session.Status
}

type Guard struct {
	sessions StatusSource
	public   map[string]struct{}
}

func New(sessions StatusSource) *Guard {
	return &Guard{
		sessions: sessions,
		public: map[string]struct{}{
			LoginPath:    {},
			SignupPath:   {},
			RedirectPath: {},
		},
	}
}

// Evaluate es función pura del estado de la sesión al momento de llamarla.
func (g *Guard) Evaluate(location string) Decision {
	if g.IsPublic(location) {
		return Decision{Kind: Render}
	}

	switch g.sessions.Status() {
	case session.StatusAuthenticated:
		return Decision{Kind: Render}
	case session.StatusUnauthenticated:
		from := ReturnTo(location)
		return Decision{Kind: Redirect, Location: LoginURL(from), From: from}
	default:
		// uninitialized o checking
		return Decision{Kind: Loading}
	}
}

func (g *Guard) IsPublic(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	_, ok := g.public[strings.TrimSuffix(u.Path, "/")]
	return ok
}

// LoginURL arma el destino de login con la ruta pedida en ?from=.
func LoginURL(from string) string {
	from = ReturnTo(from)
	if from == defaultLanding {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"from": {from}}.Encode()
}

// ReturnTo sanea el destino post-login: solo rutas locales ("/..."),
// nunca URLs absolutas ni "//host". Cualquier otra cosa vuelve a "/".
func ReturnTo(from string) string {
	from = strings.TrimSpace(from)
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.Contains(from, `\`) {
		return defaultLanding
	}
	u, err := url.Parse(from)
	if err != nil || u.IsAbs() || u.Host != "" {
		return defaultLanding
	}
	if p := strings.TrimSuffix(u.Path, "/"); p == LoginPath || p == SignupPath {
		return defaultLanding
	}
	return u.RequestURI()
}
