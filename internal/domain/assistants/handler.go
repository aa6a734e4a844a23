package assistants

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"rent-console/internal/middleware"
	"rent-console/internal/platform/respond"
)

// RegisterRoutes monta /api/users/assistants y /api/users/owners (requiere auth).
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/api/users/assistants", func(ar chi.Router) {
		ar.Get("/", listAssistantsHandler(svc))
		ar.Post("/", addAssistantHandler(svc))
		ar.Delete("/{assistantID}", removeAssistantHandler(svc))
	})
	r.Get("/api/users/owners", listOwnersHandler(svc))
}

type addAssistantRequest struct {
	Email string `json:"email"`
}

type memberResponse struct {
	ID       int64     `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName"`
	IsActive bool      `json:"isActive"`
	Since    time.Time `json:"since"`
}

func listAssistantsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		items, err := svc.ListAssistants(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, toMemberResponses(items))
	}
}

// addAssistantHandler godoc
// @Summary Agregar asistente por email
// @Tags assistants
// @Accept json
// @Produce json
// @Param payload body addAssistantRequest true "Email del usuario a vincular"
// @Success 201 {object} memberResponse
// @Failure 404 {object} respond.ErrorBody "user not found"
// @Failure 409 {object} respond.ErrorBody "assistant already added"
// @Failure 422 {object} respond.ErrorBody "validation failed"
// @Router /api/users/assistants [post]
func addAssistantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req addAssistantRequest
		if !respond.Decode(w, r, &req) {
			return
		}

		m, err := svc.Add(r.Context(), claims.UserID, req.Email)
		if err != nil {
			writeError(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, toMemberResponse(m))
	}
}

func removeAssistantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		assistantID, err := strconv.ParseInt(chi.URLParam(r, "assistantID"), 10, 64)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid assistant id")
			return
		}

		if err := svc.Remove(r.Context(), claims.UserID, assistantID); err != nil {
			if errors.Is(err, ErrNotFound) {
				respond.Error(w, http.StatusNotFound, "assistant not found")
				return
			}
			writeError(w, err)
			return
		}
		respond.NoContent(w)
	}
}

func listOwnersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		items, err := svc.ListOwners(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, toMemberResponses(items))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSelf):
		respond.Validation(w, map[string]string{"email": err.Error()})
	case errors.Is(err, ErrInvalidInput):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "user not found")
	case errors.Is(err, ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, err.Error())
	default:
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func toMemberResponse(m Member) memberResponse {
	return memberResponse{
		ID:       m.ID,
		Email:    m.Email,
		FullName: m.FullName,
		IsActive: m.IsActive,
		Since:    m.Since,
	}
}

func toMemberResponses(items []Member) []memberResponse {
	out := make([]memberResponse, 0, len(items))
	for _, m := range items {
		out = append(out, toMemberResponse(m))
	}
	return out
}
