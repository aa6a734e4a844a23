package properties

import (
	"time"

	"rent-console/internal/permission"
)

// Property: sólo lo que necesita la capa de acceso (dueño, datos básicos).
type Property struct {
	ID      int64
	OwnerID int64

	Name        string
	Address     string
	City        string
	State       string
	PostalCode  string
	Country     string
	TotalFloors int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Mode es el lente del listado; los valores son los del query param.
type Mode string

const (
	ModeAll       Mode = "all"
	ModeOwner     Mode = "owner"
	ModeAssistant Mode = "assistant"
)

// Role del usuario sobre una propiedad listada.
type Role string

const (
	RoleOwner     Role = "OWNER"
	RoleAssistant Role = "ASSISTANT"
)

// Listed es una propiedad vista por un usuario concreto.
type Listed struct {
	Property
	Role        Role
	Permissions []permission.Permission // vacío para RoleOwner
}
