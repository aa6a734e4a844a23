package assistants

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"rent-console/internal/domain/users"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("assistant already added")
	ErrSelf          = errors.New("cannot add yourself as assistant")
)

// UserDirectory evita acoplar a la implementación de users (lo cumple *users.Service).
type UserDirectory interface {
	Get(ctx context.Context, id int64) (users.User, error)
	GetByEmail(ctx context.Context, email string) (users.User, error)
}

// GrantCleaner borra los permisos por propiedad de un par owner/asistente.
// Lo implementa accessgrants; se inyecta para no importar ese paquete.
type GrantCleaner interface {
	RevokeAllForPair(ctx context.Context, ownerID, assistantUserID int64) error
}

type Service struct {
	repo   Repository
	users  UserDirectory
	grants GrantCleaner
	now    func() time.Time
}

func NewService(repo Repository, dir UserDirectory, grants GrantCleaner) *Service {
	return &Service{
		repo:   repo,
		users:  dir,
		grants: grants,
		now:    time.Now,
	}
}

// SetGrantCleaner completa el wiring cuando accessgrants se construye después.
func (s *Service) SetGrantCleaner(g GrantCleaner) {
	s.grants = g
}

// Add vincula al usuario con ese email como asistente del owner.
// Un vínculo inactivo se reactiva en vez de duplicarse.
func (s *Service) Add(ctx context.Context, ownerID int64, email string) (Member, error) {
	email = strings.TrimSpace(email)
	if ownerID <= 0 || email == "" {
		return Member{}, ErrInvalidInput
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return Member{}, ErrNotFound
	}
	if u.ID == ownerID {
		return Member{}, ErrSelf
	}

	now := s.now()
	rel, err := s.repo.Get(ctx, ownerID, u.ID)
	switch {
	case err == nil && rel.IsActive:
		return Member{}, ErrAlreadyExists
	case err == nil:
		rel.IsActive = true
		rel.UpdatedAt = now
		if err := s.repo.Update(ctx, rel); err != nil {
			return Member{}, err
		}
	default:
		rel, err = s.repo.Create(ctx, Relationship{
			OwnerID:         ownerID,
			AssistantUserID: u.ID,
			IsActive:        true,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return Member{}, err
		}
	}

	return toMember(u, rel), nil
}

// Remove borra el vínculo y en cascada todos los grants del par.
func (s *Service) Remove(ctx context.Context, ownerID, assistantUserID int64) error {
	if ownerID <= 0 || assistantUserID <= 0 {
		return ErrInvalidInput
	}
	if _, err := s.repo.Get(ctx, ownerID, assistantUserID); err != nil {
		return ErrNotFound
	}

	// Primero los grants: si falla, el vínculo sigue y el owner puede reintentar.
	if s.grants != nil {
		if err := s.grants.RevokeAllForPair(ctx, ownerID, assistantUserID); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, ownerID, assistantUserID)
}

func (s *Service) ListAssistants(ctx context.Context, ownerID int64) ([]Member, error) {
	if ownerID <= 0 {
		return nil, ErrInvalidInput
	}
	rels, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.members(ctx, rels, func(r Relationship) int64 { return r.AssistantUserID }, false)
}

// ListOwners devuelve los owners distintos con vínculo activo hacia el asistente.
func (s *Service) ListOwners(ctx context.Context, assistantUserID int64) ([]Member, error) {
	if assistantUserID <= 0 {
		return nil, ErrInvalidInput
	}
	rels, err := s.repo.ListByAssistant(ctx, assistantUserID)
	if err != nil {
		return nil, err
	}
	return s.members(ctx, rels, func(r Relationship) int64 { return r.OwnerID }, true)
}

// IsActive lo usa accessgrants antes de otorgar permisos.
func (s *Service) IsActive(ctx context.Context, ownerID, assistantUserID int64) (bool, error) {
	rel, err := s.repo.Get(ctx, ownerID, assistantUserID)
	if err != nil {
		return false, nil
	}
	return rel.IsActive, nil
}

func (s *Service) members(ctx context.Context, rels []Relationship, other func(Relationship) int64, activeOnly bool) ([]Member, error) {
	seen := map[int64]struct{}{}
	out := make([]Member, 0, len(rels))

	for _, rel := range rels {
		if activeOnly && !rel.IsActive {
			continue
		}
		id := other(rel)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		u, err := s.users.Get(ctx, id)
		if err != nil {
			// vínculo huérfano (usuario borrado); no lo listamos
			continue
		}
		out = append(out, toMember(u, rel))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func toMember(u users.User, rel Relationship) Member {
	return Member{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		IsActive: rel.IsActive,
		Since:    rel.CreatedAt,
	}
}
