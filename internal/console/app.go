// Package console arma el núcleo del console: Token Store, cliente REST,
// sesión, modo de acceso, permisos y guard. Todo se construye en New y se
// pasa explícitamente; no hay estado global.
package console

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/juju/errors"

	"rent-console/internal/console/accessmode"
	"rent-console/internal/console/consoleapi"
	"rent-console/internal/console/guard"
	"rent-console/internal/console/permissions"
	"rent-console/internal/console/session"
	"rent-console/internal/console/store"
	"rent-console/internal/platform/httpclient"
	"rent-console/internal/platform/logger"
)

const defaultTimeout = 15 * time.Second

type Options struct {
	BaseURL string
	Timeout time.Duration

	// StatePath es el documento persistido; Backend lo reemplaza (tests).
	StatePath string
	Backend   store.Backend

	Logger logger.Logger
}

type App struct {
	Store       *store.Store
	API         *consoleapi.Client
	Session     *session.Manager
	Modes       *accessmode.Controller
	Permissions *permissions.Registry
	Guard       *guard.Guard

	log logger.Logger
}

func New(opts Options) (*App, error) {
	log := logger.OrNop(opts.Logger)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc, err := httpclient.NewWithBaseURL(opts.BaseURL, timeout)
	if err != nil {
		return nil, errors.Annotate(err, "api client")
	}

	backend := opts.Backend
	if backend == nil {
		if strings.TrimSpace(opts.StatePath) == "" {
			return nil, errors.NotValidf("state path")
		}
		backend = store.NewFileBackend(opts.StatePath)
	}

	st := store.New(backend, log.With(map[string]any{"component": "store"}))
	api := consoleapi.New(hc, st, log.With(map[string]any{"component": "api"}))
	modes := accessmode.New(api, st, log.With(map[string]any{"component": "accessmode"}))
	perms := permissions.NewRegistry(api, log.With(map[string]any{"component": "permissions"}))
	sess := session.NewManager(api, st, log.With(map[string]any{"component": "session"}), modes, perms)

	api.OnUnauthorized(sess.HandleUnauthorized)
	sess.Subscribe(func(s session.Status) {
		if s == session.StatusAuthenticated {
			modes.Resume(context.Background())
		}
	})

	return &App{
		Store:       st,
		API:         api,
		Session:     sess,
		Modes:       modes,
		Permissions: perms,
		Guard:       guard.New(sess),
		log:         log,
	}, nil
}

// Start restaura la sesión persistida.
func (a *App) Start(ctx context.Context) {
	a.Session.Start(ctx)
}

// Login devuelve también adónde volver: la ruta que pidió el usuario antes
// de que el guard lo mandara a login.
func (a *App) Login(ctx context.Context, email, password, from string) (consoleapi.Profile, string, error) {
	p, err := a.Session.Login(ctx, email, password)
	if err != nil {
		return consoleapi.Profile{}, "", err
	}
	return p, guard.ReturnTo(from), nil
}

// CompleteOAuth procesa la URL a la que el backend redirige tras Google:
// ?token= inicia sesión; ?error= se devuelve como Unauthorized.
func (a *App) CompleteOAuth(ctx context.Context, redirectURL string) (consoleapi.Profile, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return consoleapi.Profile{}, errors.NewNotValid(err, "oauth redirect")
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return consoleapi.Profile{}, errors.Unauthorizedf("oauth login failed: %s", e)
	}
	tok := q.Get("token")
	if tok == "" {
		return consoleapi.Profile{}, errors.NotValidf("oauth redirect without token")
	}
	return a.Session.LoginWithToken(ctx, tok)
}

// Properties lista propiedades con el scope actual (modo + owner seleccionado).
func (a *App) Properties(ctx context.Context) ([]consoleapi.Property, error) {
	if a.Session.Status() != session.StatusAuthenticated {
		return nil, errors.Unauthorizedf("not logged in")
	}
	return a.API.Properties(ctx, a.Modes.Scope().Filter())
}
