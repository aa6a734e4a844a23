package users

import (
	"time"

	"rent-console/internal/ports/auth"
)

// Provider indica cómo se dio de alta la cuenta.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
)

type User struct {
	ID int64

	Email    string // normalizado a minúsculas
	FullName string
	Phone    string
	UserType auth.UserType

	// Vacío para cuentas OAuth que nunca setearon password.
	PasswordHash string
	Provider     Provider

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}
