package accessgrants

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"rent-console/internal/middleware"
	"rent-console/internal/permission"
	"rent-console/internal/platform/respond"
)

// RegisterRoutes monta /api/properties/{propertyID}/assistants (requiere auth).
// Sólo el dueño de la propiedad administra sus asistentes.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/api/properties/{propertyID}/assistants", listHandler(svc))
	r.Post("/api/properties/{propertyID}/assistants", grantHandler(svc))
	r.Put("/api/properties/{propertyID}/assistants/{userID}", updateHandler(svc))
	r.Delete("/api/properties/{propertyID}/assistants/{userID}", revokeHandler(svc))
}

type grantRequest struct {
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
}

type updateRequest struct {
	Permissions []string `json:"permissions"`
}

type entryResponse struct {
	UserID      int64     `json:"userId"`
	Email       string    `json:"email"`
	FullName    string    `json:"fullName"`
	Permissions []string  `json:"permissions"`
	GrantedAt   time.Time `json:"grantedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		propertyID, ok := pathID(w, r, "propertyID")
		if !ok {
			return
		}

		items, err := svc.List(r.Context(), propertyID, claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]entryResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEntryResponse(e))
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

// grantHandler godoc
// @Summary Otorgar acceso a una propiedad
// @Description El email tiene que ser de un asistente vinculado al owner. Para cambiar permisos existentes usar PUT.
// @Tags accessgrants
// @Accept json
// @Produce json
// @Param propertyID path int true "ID de la propiedad"
// @Param payload body grantRequest true "Email y permisos (VIEW_PROPERTY, MANAGE_ROOMS, ...)"
// @Success 201 {object} entryResponse
// @Failure 403 {object} respond.ErrorBody "forbidden"
// @Failure 404 {object} respond.ErrorBody "assistant not found"
// @Failure 409 {object} respond.ErrorBody "already granted"
// @Failure 422 {object} respond.ErrorBody "invalid permissions"
// @Router /api/properties/{propertyID}/assistants [post]
func grantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		propertyID, ok := pathID(w, r, "propertyID")
		if !ok {
			return
		}

		var req grantRequest
		if !respond.Decode(w, r, &req) {
			return
		}

		e, err := svc.Grant(r.Context(), GrantInput{
			PropertyID:  propertyID,
			ActorID:     claims.UserID,
			Email:       req.Email,
			Permissions: permission.FromStrings(req.Permissions),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, toEntryResponse(e))
	}
}

func updateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		propertyID, ok := pathID(w, r, "propertyID")
		if !ok {
			return
		}
		userID, ok := pathID(w, r, "userID")
		if !ok {
			return
		}

		var req updateRequest
		if !respond.Decode(w, r, &req) {
			return
		}

		e, err := svc.UpdatePermissions(r.Context(), propertyID, claims.UserID, userID, permission.FromStrings(req.Permissions))
		if err != nil {
			writeError(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, toEntryResponse(e))
	}
}

func revokeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		propertyID, ok := pathID(w, r, "propertyID")
		if !ok {
			return
		}
		userID, ok := pathID(w, r, "userID")
		if !ok {
			return
		}

		if err := svc.Revoke(r.Context(), propertyID, claims.UserID, userID); err != nil {
			writeError(w, err)
			return
		}
		respond.NoContent(w)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidPermissions):
		respond.Validation(w, map[string]string{"permissions": "unknown permission"})
	case errors.Is(err, ErrInvalidInput):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrForbidden):
		respond.Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrPropertyNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "assistant not found")
	case errors.Is(err, ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, err.Error())
	default:
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func toEntryResponse(e Entry) entryResponse {
	return entryResponse{
		UserID:      e.UserID,
		Email:       e.Email,
		FullName:    e.FullName,
		Permissions: permission.Strings(e.Permissions),
		GrantedAt:   e.GrantedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
