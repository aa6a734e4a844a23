package assistants

import "context"

type Repository interface {
	// Create asigna el ID.
	Create(ctx context.Context, rel Relationship) (Relationship, error)
	Update(ctx context.Context, rel Relationship) error
	Get(ctx context.Context, ownerID, assistantUserID int64) (Relationship, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Relationship, error)
	ListByAssistant(ctx context.Context, assistantUserID int64) ([]Relationship, error)
	Delete(ctx context.Context, ownerID, assistantUserID int64) error
}
