package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"rent-console/internal/domain/accessgrants"
)

type grantKey struct{ property, assistant int64 }

type grantRepo struct {
	mu    sync.RWMutex
	byKey map[grantKey]accessgrants.Grant
}

func NewAccessGrantsRepo() accessgrants.Repository {
	return &grantRepo{
		byKey: make(map[grantKey]accessgrants.Grant),
	}
}

func (r *grantRepo) Create(ctx context.Context, g accessgrants.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		return errors.New("grant id required")
	}
	k := grantKey{g.PropertyID, g.AssistantUserID}
	if _, exists := r.byKey[k]; exists {
		return accessgrants.ErrAlreadyExists
	}
	r.byKey[k] = g
	return nil
}

func (r *grantRepo) Update(ctx context.Context, g accessgrants.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := grantKey{g.PropertyID, g.AssistantUserID}
	if _, exists := r.byKey[k]; !exists {
		return ErrNotFound
	}
	r.byKey[k] = g
	return nil
}

func (r *grantRepo) Get(ctx context.Context, propertyID, assistantUserID int64) (accessgrants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byKey[grantKey{propertyID, assistantUserID}]
	if !ok {
		return accessgrants.Grant{}, ErrNotFound
	}
	return g, nil
}

func (r *grantRepo) ListByProperty(ctx context.Context, propertyID int64) ([]accessgrants.Grant, error) {
	return r.list(func(g accessgrants.Grant) bool { return g.PropertyID == propertyID }), nil
}

func (r *grantRepo) ListByAssistant(ctx context.Context, assistantUserID int64) ([]accessgrants.Grant, error) {
	return r.list(func(g accessgrants.Grant) bool { return g.AssistantUserID == assistantUserID }), nil
}

func (r *grantRepo) Delete(ctx context.Context, propertyID, assistantUserID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byKey, grantKey{propertyID, assistantUserID})
	return nil
}

func (r *grantRepo) DeleteByPair(ctx context.Context, ownerID, assistantUserID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, g := range r.byKey {
		if g.OwnerID == ownerID && g.AssistantUserID == assistantUserID {
			delete(r.byKey, k)
		}
	}
	return nil
}

func (r *grantRepo) list(match func(accessgrants.Grant) bool) []accessgrants.Grant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]accessgrants.Grant, 0)
	for _, g := range r.byKey {
		if match(g) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PropertyID != out[j].PropertyID {
			return out[i].PropertyID < out[j].PropertyID
		}
		return out[i].AssistantUserID < out[j].AssistantUserID
	})
	return out
}
