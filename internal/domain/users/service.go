package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"rent-console/internal/ports/auth"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
)

const minPasswordLen = 6

// ValidationError lleva el detalle por campo; errors.Is(err, ErrInvalidInput) es true.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %d field(s)", len(e.Fields))
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// TokenRevoker invalida un token emitido (logout).
type TokenRevoker interface {
	Revoke(ctx context.Context, claims auth.Claims) error
}

type Service struct {
	repo    Repository
	tokens  auth.TokenIssuer
	revoker TokenRevoker
	now     func() time.Time
	cost    int
}

func NewService(repo Repository, tokens auth.TokenIssuer, revoker TokenRevoker) *Service {
	return &Service{
		repo:    repo,
		tokens:  tokens,
		revoker: revoker,
		now:     time.Now,
		cost:    bcrypt.DefaultCost,
	}
}

type SignupInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	UserType auth.UserType
}

// Signup crea la cuenta; no emite token (el cliente hace login aparte).
func (s *Service) Signup(ctx context.Context, in SignupInput) (User, error) {
	email := normalizeEmail(in.Email)
	fullName := strings.TrimSpace(in.FullName)

	fields := map[string]string{}
	if !validEmail(email) {
		fields["email"] = "a valid email is required"
	}
	if len(in.Password) < minPasswordLen {
		fields["password"] = fmt.Sprintf("must be at least %d characters", minPasswordLen)
	}
	if fullName == "" {
		fields["fullName"] = "required"
	}

	userType := auth.UserType(strings.ToUpper(strings.TrimSpace(string(in.UserType))))
	switch userType {
	case "":
		userType = auth.UserTypeOwner
	case auth.UserTypeOwner, auth.UserTypeAssistant:
	default:
		fields["userType"] = "must be OWNER or ASSISTANT"
	}
	if len(fields) > 0 {
		return User{}, &ValidationError{Fields: fields}
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	u := User{
		Email:        email,
		FullName:     fullName,
		Phone:        strings.TrimSpace(in.Phone),
		UserType:     userType,
		PasswordHash: string(hash),
		Provider:     ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return s.repo.Create(ctx, u)
}

type Session struct {
	Token  string
	Claims auth.Claims
	User   User
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil || !u.HasPassword() {
		return Session{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(ctx, u)
}

// Logout revoca el token actual. Sin revoker (modo dev) es no-op.
func (s *Service) Logout(ctx context.Context, claims auth.Claims) error {
	if s.revoker == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, claims)
}

func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, ErrInvalidInput
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return User{}, ErrInvalidInput
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return User{}, ErrNotFound
	}
	return u, nil
}

// UpdateInput: nil = no tocar.
type UpdateInput struct {
	FullName *string
	Phone    *string
}

func (s *Service) UpdateProfile(ctx context.Context, id int64, in UpdateInput) (User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return User{}, &ValidationError{Fields: map[string]string{"fullName": "cannot be empty"}}
		}
		u.FullName = name
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// ChangePassword exige la password actual salvo para cuentas OAuth sin password.
func (s *Service) ChangePassword(ctx context.Context, id int64, current, next string) error {
	if len(next) < minPasswordLen {
		return &ValidationError{Fields: map[string]string{
			"newPassword": fmt.Sprintf("must be at least %d characters", minPasswordLen),
		}}
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if u.HasPassword() {
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
			return ErrForbidden
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = s.now()
	return s.repo.Update(ctx, u)
}

// LoginOAuth busca por email (ya verificado por el proveedor) o crea la cuenta.
func (s *Service) LoginOAuth(ctx context.Context, email, fullName string, provider Provider) (Session, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return Session{}, ErrInvalidInput
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		now := s.now()
		name := strings.TrimSpace(fullName)
		if name == "" {
			name = email
		}
		u, err = s.repo.Create(ctx, User{
			Email:     email,
			FullName:  name,
			UserType:  auth.UserTypeOwner,
			Provider:  provider,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return Session{}, err
		}
	}
	return s.issue(ctx, u)
}

func (s *Service) issue(ctx context.Context, u User) (Session, error) {
	if s.tokens == nil {
		return Session{}, errors.New("token issuer not configured")
	}
	tok, claims, err := s.tokens.Issue(ctx, u.ID, u.Email, u.UserType)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: tok, Claims: claims, User: u}, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
