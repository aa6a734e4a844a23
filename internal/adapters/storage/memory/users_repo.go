package memory

import (
	"context"
	"strings"
	"sync"

	"rent-console/internal/domain/users"
)

type userRepo struct {
	mu      sync.RWMutex
	ids     seq
	byID    map[int64]users.User
	byEmail map[string]int64
}

func NewUsersRepo() users.Repository {
	return &userRepo{
		byID:    make(map[int64]users.User),
		byEmail: make(map[string]int64),
	}
}

func (r *userRepo) Create(ctx context.Context, u users.User) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := r.byEmail[key]; exists {
		return users.User{}, users.ErrEmailTaken
	}
	u.ID = r.ids.next()
	r.byID[u.ID] = u
	r.byEmail[key] = u.ID
	return u, nil
}

func (r *userRepo) Update(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, exists := r.byID[u.ID]
	if !exists {
		return ErrNotFound
	}
	if !strings.EqualFold(prev.Email, u.Email) {
		delete(r.byEmail, strings.ToLower(prev.Email))
		r.byEmail[strings.ToLower(u.Email)] = u.ID
	}
	r.byID[u.ID] = u
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, ErrNotFound
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return users.User{}, ErrNotFound
	}
	return r.byID[id], nil
}
