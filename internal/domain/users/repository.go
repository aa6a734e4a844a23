package users

import "context"

type Repository interface {
	// Create asigna el ID. Devuelve ErrEmailTaken si el email ya existe.
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) error
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}
