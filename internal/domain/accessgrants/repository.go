package accessgrants

import "context"

type Repository interface {
	// Create devuelve ErrAlreadyExists si ya hay grant para el par.
	Create(ctx context.Context, g Grant) error
	Update(ctx context.Context, g Grant) error
	Get(ctx context.Context, propertyID, assistantUserID int64) (Grant, error)
	ListByProperty(ctx context.Context, propertyID int64) ([]Grant, error)
	ListByAssistant(ctx context.Context, assistantUserID int64) ([]Grant, error)
	// Delete no falla si no existía.
	Delete(ctx context.Context, propertyID, assistantUserID int64) error
	DeleteByPair(ctx context.Context, ownerID, assistantUserID int64) error
}
