package users

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rent-console/internal/middleware"
	"rent-console/internal/platform/respond"
	"rent-console/internal/ports/auth"
)

// RegisterAuthRoutes monta /api/auth/*. limit puede ser nil.
func RegisterAuthRoutes(r chi.Router, svc *Service, limit func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(ar chi.Router) {
		if limit != nil {
			ar.Use(limit)
		}
		ar.Post("/signup", signupHandler(svc))
		ar.Post("/login", loginHandler(svc))
		ar.Post("/logout", logoutHandler(svc))
	})
}

// RegisterProfileRoutes monta /api/users/me*; el caller ya aplicó RequireAuth.
func RegisterProfileRoutes(r chi.Router, svc *Service) {
	r.Get("/api/users/me", getMeHandler(svc))
	r.Put("/api/users/me", updateMeHandler(svc))
	r.Put("/api/users/me/password", changePasswordHandler(svc))
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone,omitempty"`
	UserType string `json:"userType,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string        `json:"token"`
	ID       int64         `json:"id"`
	Email    string        `json:"email"`
	FullName string        `json:"fullName"`
	UserType auth.UserType `json:"userType"`
}

type profileResponse struct {
	ID       int64         `json:"id"`
	Email    string        `json:"email"`
	FullName string        `json:"fullName"`
	UserType auth.UserType `json:"userType"`
	Phone    string        `json:"phone,omitempty"`
}

type updateProfileRequest struct {
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// signupHandler godoc
// @Summary Registrar usuario
// @Description Crea la cuenta. No devuelve token: el cliente hace login después.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body signupRequest true "Datos de registro; userType OWNER (default) o ASSISTANT"
// @Success 201 {object} profileResponse
// @Failure 409 {object} respond.ErrorBody "email already registered"
// @Failure 422 {object} respond.ErrorBody "validation failed"
// @Router /api/auth/signup [post]
func signupHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupRequest
		if !respond.Decode(w, r, &req) {
			return
		}

		u, err := svc.Signup(r.Context(), SignupInput{
			Email:    req.Email,
			Password: req.Password,
			FullName: req.FullName,
			Phone:    req.Phone,
			UserType: auth.UserType(req.UserType),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, toProfileResponse(u))
	}
}

// loginHandler godoc
// @Summary Login con email y password
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} loginResponse
// @Failure 401 {object} respond.ErrorBody "invalid email or password"
// @Failure 429 {object} respond.ErrorBody "rate limit exceeded"
// @Router /api/auth/login [post]
func loginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !respond.Decode(w, r, &req) {
			return
		}

		s, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, loginResponse{
			Token:    s.Token,
			ID:       s.User.ID,
			Email:    s.User.Email,
			FullName: s.User.FullName,
			UserType: s.User.UserType,
		})
	}
}

// Logout siempre responde 204; si vino un token válido lo revoca.
func logoutHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := middleware.GetClaims(r.Context()); ok {
			if err := svc.Logout(r.Context(), claims); err != nil {
				respond.Error(w, http.StatusInternalServerError, "internal error")
				return
			}
		}
		respond.NoContent(w)
	}
}

func getMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		u, err := svc.Get(r.Context(), claims.UserID)
		if err != nil {
			// token válido de un usuario que ya no existe
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		respond.JSON(w, http.StatusOK, toProfileResponse(u))
	}
}

func updateMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req updateProfileRequest
		if !respond.Decode(w, r, &req) {
			return
		}

		u, err := svc.UpdateProfile(r.Context(), claims.UserID, UpdateInput{
			FullName: req.FullName,
			Phone:    req.Phone,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, toProfileResponse(u))
	}
}

func changePasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req changePasswordRequest
		if !respond.Decode(w, r, &req) {
			return
		}

		if err := svc.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
			if errors.Is(err, ErrForbidden) {
				respond.Error(w, http.StatusForbidden, "current password is incorrect")
				return
			}
			writeError(w, err)
			return
		}
		respond.NoContent(w)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		respond.Validation(w, ve.Fields)
	case errors.Is(err, ErrInvalidCredentials):
		respond.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrEmailTaken):
		respond.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "user not found")
	case errors.Is(err, ErrForbidden):
		respond.Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrInvalidInput):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func toProfileResponse(u User) profileResponse {
	return profileResponse{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		UserType: u.UserType,
		Phone:    u.Phone,
	}
}
