package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"rent-console/internal/ports/auth"
)

const defaultIssuer = "rent-console"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token revoked")
	ErrMissingKey   = errors.New("auth secret is not configured")
)

type Config struct {
	Secret string
	TTL    time.Duration
	Issuer string

	// Opcional; nil => no se chequea revocación.
	Revocations auth.Revocations
}

type tokenClaims struct {
	Email    string `json:"email"`
	UserType string `json:"typ"`
	jwt.RegisteredClaims
}

// Manager implementa auth.TokenIssuer y auth.AuthVerifier con HS256.
type Manager struct {
	secret      []byte
	ttl         time.Duration
	issuer      string
	revocations auth.Revocations
	now         func() time.Time
}

func NewManager(cfg Config) (*Manager, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, ErrMissingKey
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("ttl must be greater than zero")
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = defaultIssuer
	}
	return &Manager{
		secret:      []byte(secret),
		ttl:         cfg.TTL,
		issuer:      issuer,
		revocations: cfg.Revocations,
		now:         time.Now,
	}, nil
}

func (m *Manager) Issue(ctx context.Context, userID int64, email string, userType auth.UserType) (string, auth.Claims, error) {
	if userID <= 0 {
		return "", auth.Claims{}, errors.New("userID is required")
	}

	now := m.now().UTC()
	exp := now.Add(m.ttl)
	c := tokenClaims{
		Email:    strings.TrimSpace(email),
		UserType: string(userType),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", auth.Claims{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, auth.Claims{
		UserID:    userID,
		Email:     c.Email,
		UserType:  userType,
		TokenID:   c.ID,
		ExpiresAt: exp,
	}, nil
}

func (m *Manager) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return auth.Claims{}, ErrInvalidToken
	}
	c, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return auth.Claims{}, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return auth.Claims{}, ErrInvalidToken
	}

	if m.revocations != nil && c.ID != "" {
		revoked, err := m.revocations.IsRevoked(ctx, c.ID)
		if err != nil {
			// Sin denylist disponible no podemos garantizar el logout; cortamos.
			return auth.Claims{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return auth.Claims{}, ErrRevokedToken
		}
	}

	out := auth.Claims{
		UserID:   userID,
		Email:    c.Email,
		UserType: auth.UserType(c.UserType),
		TokenID:  c.ID,
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}

// Revoke invalida el token hasta su expiración natural.
func (m *Manager) Revoke(ctx context.Context, claims auth.Claims) error {
	if m.revocations == nil || claims.TokenID == "" {
		return nil
	}
	until := claims.ExpiresAt
	if until.IsZero() {
		until = m.now().Add(m.ttl)
	}
	return m.revocations.Revoke(ctx, claims.TokenID, until)
}
