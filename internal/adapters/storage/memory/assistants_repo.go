package memory

import (
	"context"
	"sort"
	"sync"

	"rent-console/internal/domain/assistants"
)

type pair struct{ owner, assistant int64 }

type assistantRepo struct {
	mu   sync.RWMutex
	ids  seq
	rels map[pair]assistants.Relationship
}

func NewAssistantsRepo() assistants.Repository {
	return &assistantRepo{rels: make(map[pair]assistants.Relationship)}
}

func (r *assistantRepo) Create(ctx context.Context, rel assistants.Relationship) (assistants.Relationship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := pair{rel.OwnerID, rel.AssistantUserID}
	if _, exists := r.rels[k]; exists {
		return assistants.Relationship{}, assistants.ErrAlreadyExists
	}
	rel.ID = r.ids.next()
	r.rels[k] = rel
	return rel, nil
}

func (r *assistantRepo) Update(ctx context.Context, rel assistants.Relationship) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := pair{rel.OwnerID, rel.AssistantUserID}
	if _, exists := r.rels[k]; !exists {
		return ErrNotFound
	}
	r.rels[k] = rel
	return nil
}

func (r *assistantRepo) Get(ctx context.Context, ownerID, assistantUserID int64) (assistants.Relationship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rel, ok := r.rels[pair{ownerID, assistantUserID}]
	if !ok {
		return assistants.Relationship{}, ErrNotFound
	}
	return rel, nil
}

func (r *assistantRepo) ListByOwner(ctx context.Context, ownerID int64) ([]assistants.Relationship, error) {
	return r.list(func(k pair) bool { return k.owner == ownerID }), nil
}

func (r *assistantRepo) ListByAssistant(ctx context.Context, assistantUserID int64) ([]assistants.Relationship, error) {
	return r.list(func(k pair) bool { return k.assistant == assistantUserID }), nil
}

func (r *assistantRepo) Delete(ctx context.Context, ownerID, assistantUserID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rels, pair{ownerID, assistantUserID})
	return nil
}

func (r *assistantRepo) list(match func(pair) bool) []assistants.Relationship {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]assistants.Relationship, 0)
	for k, rel := range r.rels {
		if match(k) {
			out = append(out, rel)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
