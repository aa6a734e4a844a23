package auth

import (
	"context"
	"time"
)

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// TokenIssuer firma un token nuevo para un usuario ya autenticado.
type TokenIssuer interface {
	Issue(ctx context.Context, userID int64, email string, userType UserType) (string, Claims, error)
}

// Revocations guarda los jti invalidados por logout hasta que expiran.
type Revocations interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
