package consoleapi

import (
	"time"

	"rent-console/internal/permission"
)

// Profile es el usuario cacheado junto al token.
type Profile struct {
	ID       int64  `json:"id" yaml:"id"`
	Email    string `json:"email" yaml:"email"`
	FullName string `json:"fullName" yaml:"full_name"`
	UserType string `json:"userType" yaml:"user_type"`
	Phone    string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

type LoginResult struct {
	Token   string
	Profile Profile
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone,omitempty"`
	UserType string `json:"userType,omitempty"`
}

// ProfilePatch: nil => el campo no se toca.
type ProfilePatch struct {
	FullName *string `json:"fullName,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

// Member es una fila de "mis asistentes" o "owners a los que asisto".
type Member struct {
	ID       int64     `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName"`
	IsActive bool      `json:"isActive"`
	Since    time.Time `json:"since"`
}

type Property struct {
	ID          int64                   `json:"id"`
	OwnerID     int64                   `json:"ownerId"`
	Name        string                  `json:"name"`
	Address     string                  `json:"address,omitempty"`
	City        string                  `json:"city,omitempty"`
	State       string                  `json:"state,omitempty"`
	PostalCode  string                  `json:"postalCode,omitempty"`
	Country     string                  `json:"country,omitempty"`
	TotalFloors int                     `json:"totalFloors"`
	AccessRole  string                  `json:"accessRole"`
	Permissions []permission.Permission `json:"permissions,omitempty"`
}

type PropertyInput struct {
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	Country     string `json:"country,omitempty"`
	TotalFloors int    `json:"totalFloors,omitempty"`
}

// PropertyFilter viaja como query string (go-querystring).
type PropertyFilter struct {
	Mode    string `url:"mode,omitempty"`
	OwnerID *int64 `url:"ownerId,omitempty"`
}

// PropertyAccess es el grant de un asistente sobre una propiedad.
type PropertyAccess struct {
	UserID      int64                   `json:"userId"`
	Email       string                  `json:"email"`
	FullName    string                  `json:"fullName"`
	Permissions []permission.Permission `json:"permissions"`
	GrantedAt   time.Time               `json:"grantedAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}
