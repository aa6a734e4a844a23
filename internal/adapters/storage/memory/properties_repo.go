package memory

import (
	"context"
	"sort"
	"sync"

	"rent-console/internal/domain/properties"
)

type propertyRepo struct {
	mu   sync.RWMutex
	ids  seq
	byID map[int64]properties.Property
}

func NewPropertiesRepo() properties.Repository {
	return &propertyRepo{byID: make(map[int64]properties.Property)}
}

func (r *propertyRepo) Create(ctx context.Context, p properties.Property) (properties.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = r.ids.next()
	r.byID[p.ID] = p
	return p, nil
}

func (r *propertyRepo) GetByID(ctx context.Context, id int64) (properties.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return properties.Property{}, ErrNotFound
	}
	return p, nil
}

func (r *propertyRepo) ListByOwner(ctx context.Context, ownerID int64) ([]properties.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]properties.Property, 0)
	for _, p := range r.byID {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
