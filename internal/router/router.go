package router

import (
	"database/sql"
	"net/http"

	"rent-console/internal/adapters/auth/google"
	mem "rent-console/internal/adapters/storage/memory"
	pg "rent-console/internal/adapters/storage/postgres"
	_ "rent-console/internal/docs"
	"rent-console/internal/domain/accessgrants"
	"rent-console/internal/domain/assistants"
	"rent-console/internal/domain/properties"
	"rent-console/internal/domain/users"
	"rent-console/internal/middleware"
	"rent-console/internal/platform/logger"
	"rent-console/internal/platform/obs"
	"rent-console/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev, headers X-Debug-*)
	TokenIssuer  auth.TokenIssuer  // nil => login deshabilitado
	TokenRevoker users.TokenRevoker

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger  logger.Logger
	Metrics *obs.Metrics // nil => crea uno propio

	// Opcional: limita /api/auth/* por IP.
	AuthLimiter *middleware.RateLimiter

	// TrustProxy: la IP de cliente sale de X-Forwarded-For / X-Real-IP.
	// Solo detrás de un proxy que los reescribe.
	TrustProxy bool

	// Opcional: login con Google. ConsoleURL es el destino del redirect.
	Google     *google.Client
	ConsoleURL string
}

func NewRouter(opts Options) http.Handler {
	log := logger.OrNop(opts.Logger)
	metrics := opts.Metrics
	if metrics == nil {
		metrics = obs.NewMetrics()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLog(log))
	r.Use(middleware.Recover(log))
	r.Use(metrics.Instrument)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var (
		userRepo      users.Repository
		assistantRepo assistants.Repository
		propertyRepo  properties.Repository
		grantsRepo    accessgrants.Repository
	)

	if opts.DB != nil {
		userRepo = pg.NewUsersRepo(opts.DB)
		assistantRepo = pg.NewAssistantsRepo(opts.DB)
		propertyRepo = pg.NewPropertiesRepo(opts.DB)
		grantsRepo = pg.NewAccessGrantsRepo(opts.DB)
	} else {
		userRepo = mem.NewUsersRepo()
		assistantRepo = mem.NewAssistantsRepo()
		propertyRepo = mem.NewPropertiesRepo()
		grantsRepo = mem.NewAccessGrantsRepo()
	}

	// Services por módulo
	usersSvc := users.NewService(userRepo, opts.TokenIssuer, opts.TokenRevoker)
	propsSvc := properties.NewService(propertyRepo)
	assistantsSvc := assistants.NewService(assistantRepo, usersSvc, nil)
	grantsSvc := accessgrants.NewService(grantsRepo, propsSvc, assistantsSvc, usersSvc)
	propsSvc.SetGrants(grantsSvc)
	assistantsSvc.SetGrantCleaner(grantsSvc)

	var limit func(http.Handler) http.Handler
	if opts.AuthLimiter != nil {
		limit = opts.AuthLimiter.Middleware
	}

	// Rutas públicas
	users.RegisterAuthRoutes(r, usersSvc, limit)
	if opts.Google != nil && opts.Google.IsConfigured() {
		google.RegisterRoutes(r, opts.Google, usersSvc, opts.ConsoleURL, log)
	}

	// Rutas con sesión
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth)

		users.RegisterProfileRoutes(pr, usersSvc)
		assistants.RegisterRoutes(pr, assistantsSvc)
		properties.RegisterRoutes(pr, propsSvc)
		accessgrants.RegisterRoutes(pr, grantsSvc)
	})

	return r
}
