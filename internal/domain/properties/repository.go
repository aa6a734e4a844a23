package properties

import "context"

type Repository interface {
	// Create asigna el ID.
	Create(ctx context.Context, p Property) (Property, error)
	GetByID(ctx context.Context, id int64) (Property, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Property, error)
}
