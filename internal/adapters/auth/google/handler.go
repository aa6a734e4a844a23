package google

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"rent-console/internal/domain/users"
	"rent-console/internal/platform/logger"
	"rent-console/internal/platform/respond"
)

// SessionStarter es la parte del servicio de usuarios que usa el callback.
type SessionStarter interface {
	LoginOAuth(ctx context.Context, email, fullName string, provider users.Provider) (users.Session, error)
}

// RegisterRoutes monta el inicio del flujo y el callback.
// consoleURL es la base del console; el resultado va a {consoleURL}/oauth2/redirect.
func RegisterRoutes(r chi.Router, c *Client, sessions SessionStarter, consoleURL string, log logger.Logger) {
	log = logger.OrNop(log)
	redirectBase := strings.TrimRight(strings.TrimSpace(consoleURL), "/") + "/oauth2/redirect"

	r.Get("/oauth2/authorization/google", func(w http.ResponseWriter, r *http.Request) {
		target, err := c.AuthCodeURL()
		if err != nil {
			respond.Error(w, http.StatusNotFound, "google login is not enabled")
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	})

	r.Get("/login/oauth2/code/google", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if e := strings.TrimSpace(q.Get("error")); e != "" {
			redirectWith(w, r, redirectBase, "error", e)
			return
		}

		p, err := c.Exchange(r.Context(), q.Get("state"), q.Get("code"))
		if err != nil {
			log.Warn("google oauth exchange failed", map[string]any{"error": err.Error()})
			redirectWith(w, r, redirectBase, "error", "authentication_failed")
			return
		}

		sess, err := sessions.LoginOAuth(r.Context(), p.Email, p.Name, users.ProviderGoogle)
		if err != nil {
			log.Error("google oauth login failed", map[string]any{"error": err.Error(), "email": p.Email})
			redirectWith(w, r, redirectBase, "error", "authentication_failed")
			return
		}

		log.Info("google oauth login", map[string]any{"user_id": sess.User.ID})
		redirectWith(w, r, redirectBase, "token", sess.Token)
	})
}

func redirectWith(w http.ResponseWriter, r *http.Request, base, key, value string) {
	http.Redirect(w, r, base+"?"+url.Values{key: {value}}.Encode(), http.StatusFound)
}
