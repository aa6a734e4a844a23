package properties

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"rent-console/internal/middleware"
	"rent-console/internal/permission"
	"rent-console/internal/platform/respond"
)

// RegisterRoutes monta /api/properties (requiere auth).
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/api/properties", listPropertiesHandler(svc))
	r.Post("/api/properties", createPropertyHandler(svc))
	r.Get("/api/properties/{propertyID}", getPropertyHandler(svc))
}

type createPropertyRequest struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	Country     string `json:"country"`
	TotalFloors int    `json:"totalFloors"`
}

type propertyResponse struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"ownerId"`
	Name        string    `json:"name"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	PostalCode  string    `json:"postalCode,omitempty"`
	Country     string    `json:"country,omitempty"`
	TotalFloors int       `json:"totalFloors"`
	AccessRole  Role      `json:"accessRole"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// listPropertiesHandler godoc
// @Summary Listar propiedades según el modo de acceso
// @Description mode=owner (propias), assistant (asistidas con VIEW_PROPERTY) o all. ownerId filtra las asistidas por dueño.
// @Tags properties
// @Produce json
// @Param mode query string false "owner | assistant | all"
// @Param ownerId query int false "Filtrar asistidas por dueño"
// @Success 200 {array} propertyResponse
// @Failure 400 {object} respond.ErrorBody "invalid mode / ownerId"
// @Failure 401 {object} respond.ErrorBody "unauthorized"
// @Router /api/properties [get]
func listPropertiesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		q := r.URL.Query()
		mode, err := ParseMode(q.Get("mode"))
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "mode must be owner, assistant or all")
			return
		}

		f := Filter{Mode: mode}
		if raw := strings.TrimSpace(q.Get("ownerId")); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				respond.Error(w, http.StatusBadRequest, "invalid ownerId")
				return
			}
			f.OwnerID = &id
		}

		items, err := svc.List(r.Context(), claims.UserID, f)
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, "internal error")
			return
		}

		out := make([]propertyResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPropertyResponse(p))
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

func createPropertyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req createPropertyRequest
		if !respond.Decode(w, r, &req) {
			return
		}

		p, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:        req.Name,
			Address:     req.Address,
			City:        req.City,
			State:       req.State,
			PostalCode:  req.PostalCode,
			Country:     req.Country,
			TotalFloors: req.TotalFloors,
		})
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				respond.Validation(w, ve.Fields)
				return
			}
			respond.Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		respond.JSON(w, http.StatusCreated, toPropertyResponse(Listed{Property: p, Role: RoleOwner}))
	}
}

func getPropertyHandler(svc *Service) http.HandlerFunc {
	// Owner bypass, asistente requiere VIEW_PROPERTY
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "propertyID"), 10, 64)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid property id")
			return
		}

		p, err := svc.View(r.Context(), claims.UserID, id)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput):
				respond.Error(w, http.StatusNotFound, "property not found")
			case errors.Is(err, ErrForbidden):
				respond.Error(w, http.StatusForbidden, "forbidden")
			default:
				respond.Error(w, http.StatusInternalServerError, "internal error")
			}
			return
		}
		respond.JSON(w, http.StatusOK, toPropertyResponse(p))
	}
}

func toPropertyResponse(p Listed) propertyResponse {
	return propertyResponse{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Address:     p.Address,
		City:        p.City,
		State:       p.State,
		PostalCode:  p.PostalCode,
		Country:     p.Country,
		TotalFloors: p.TotalFloors,
		AccessRole:  p.Role,
		Permissions: permission.Strings(p.Permissions),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
