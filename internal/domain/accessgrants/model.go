package accessgrants

import (
	"time"

	"rent-console/internal/permission"
)

// Grant es el set de permisos de un asistente sobre una propiedad.
// Hay a lo sumo uno por (PropertyID, AssistantUserID); revocar lo borra.
type Grant struct {
	ID string

	PropertyID      int64
	OwnerID         int64 // dueño de la propiedad al momento de otorgar
	AssistantUserID int64

	Permissions []permission.Permission

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Entry es la fila del listado de asistentes de una propiedad.
type Entry struct {
	UserID      int64
	Email       string
	FullName    string
	Permissions []permission.Permission
	GrantedAt   time.Time
	UpdatedAt   time.Time
}
