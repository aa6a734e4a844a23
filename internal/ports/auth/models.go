package auth

import "time"

type UserType string

const (
	UserTypeOwner     UserType = "OWNER"
	UserTypeAssistant UserType = "ASSISTANT"
)

// Claims representa la información extraída del token.
type Claims struct {
	UserID   int64
	Email    string
	UserType UserType

	// TokenID (jti) identifica el token para poder revocarlo en logout.
	TokenID   string
	ExpiresAt time.Time
}
