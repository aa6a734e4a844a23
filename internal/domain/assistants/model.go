package assistants

import "time"

// Relationship es el vínculo owner → asistente. Es la condición previa para
// que el owner pueda otorgar permisos por propiedad a ese usuario.
type Relationship struct {
	ID int64

	OwnerID         int64
	AssistantUserID int64
	IsActive        bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Member es la vista para listados (mis asistentes / owners que asisto).
type Member struct {
	ID       int64 // user id del otro extremo
	Email    string
	FullName string
	IsActive bool
	Since    time.Time
}
