package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"rent-console/internal/adapters/auth/google"
	"rent-console/internal/adapters/auth/jwtauth"
	"rent-console/internal/adapters/storage/memory"
	pg "rent-console/internal/adapters/storage/postgres"
	"rent-console/internal/adapters/storage/redisstore"
	"rent-console/internal/middleware"
	"rent-console/internal/platform/config"
	"rent-console/internal/platform/logger"
	"rent-console/internal/ports/auth"
	"rent-console/internal/router"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, port string
	var migrate bool

	flagSet := pflag.NewFlagSet("rent-api", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config (default: $"+config.EnvConfigPath+")")
	flagSet.StringVar(&port, "port", "", "listen port (overrides PORT)")
	flagSet.BoolVar(&migrate, "migrate", true, "apply the postgres schema on startup")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Server.Port = port
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    firstNonEmpty(cfg.Log.App, "rent-api"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Revocaciones: Redis si está configurado; si no, in-memory.
	var revocations auth.Revocations = memory.NewRevocationList()
	if cfg.Server.RedisAddr != "" {
		rdb, err := redisstore.Open(cfg.Server.RedisAddr)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		revocations = redisstore.NewRevocationList(rdb, "")
		log.Info("using redis revocation list", map[string]any{"addr": cfg.Server.RedisAddr})
	}

	tokens, err := jwtauth.NewManager(jwtauth.Config{
		Secret:      cfg.Server.AuthSecret,
		TTL:         cfg.Server.TokenTTL,
		Revocations: revocations,
	})
	if err != nil {
		return err
	}

	var db *sql.DB
	if cfg.Server.DBDSN != "" {
		db, err = pg.Open(cfg.Server.DBDSN)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer db.Close()
		if migrate {
			if err := pg.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		log.Info("using postgres storage", nil)
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	var gc *google.Client
	if cfg.Server.Google.Enabled() {
		gc = google.NewClient(google.Config{
			ClientID:     cfg.Server.Google.ClientID,
			ClientSecret: cfg.Server.Google.ClientSecret,
			RedirectURL:  strings.TrimRight(cfg.Server.PublicURL, "/") + "/login/oauth2/code/google",
		})
	}

	handler := router.NewRouter(router.Options{
		AuthVerifier: tokens,
		TokenIssuer:  tokens,
		TokenRevoker: tokens,
		DB:           db,
		Logger:       log,
		AuthLimiter:  middleware.NewRateLimiter(cfg.Server.AuthRatePerSecond, cfg.Server.AuthRateBurst),
		TrustProxy:   cfg.Server.TrustProxy,
		Google:       gc,
		ConsoleURL:   cfg.Server.ConsoleURL,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
