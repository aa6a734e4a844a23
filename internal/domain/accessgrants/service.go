package accessgrants

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"rent-console/internal/domain/users"
	"rent-console/internal/permission"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrPropertyNotFound   = errors.New("property not found")
	ErrAlreadyExists      = errors.New("assistant already has access to this property")
	ErrInvalidPermissions = errors.New("invalid permissions")
)

// PropertyOwnerLookup evita importar el paquete properties (rompe ciclos).
type PropertyOwnerLookup interface {
	OwnerOf(ctx context.Context, propertyID int64) (int64, error)
}

// Relationships responde si existe vínculo activo owner → asistente.
type Relationships interface {
	IsActive(ctx context.Context, ownerID, assistantUserID int64) (bool, error)
}

type UserDirectory interface {
	Get(ctx context.Context, id int64) (users.User, error)
	GetByEmail(ctx context.Context, email string) (users.User, error)
}

type Service struct {
	repo       Repository
	properties PropertyOwnerLookup
	rels       Relationships
	users      UserDirectory
	now        func() time.Time
}

func NewService(repo Repository, properties PropertyOwnerLookup, rels Relationships, dir UserDirectory) *Service {
	return &Service{
		repo:       repo,
		properties: properties,
		rels:       rels,
		users:      dir,
		now:        time.Now,
	}
}

type GrantInput struct {
	PropertyID  int64
	ActorID     int64
	Email       string
	Permissions []permission.Permission
}

// Grant otorga acceso. El email tiene que ser de un asistente vinculado al owner.
func (s *Service) Grant(ctx context.Context, in GrantInput) (Entry, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return Entry{}, ErrInvalidInput
	}
	perms, err := permission.Normalize(in.Permissions)
	if err != nil {
		return Entry{}, ErrInvalidPermissions
	}
	if err := s.authorizeOwner(ctx, in.PropertyID, in.ActorID); err != nil {
		return Entry{}, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return Entry{}, ErrNotFound
	}
	active, err := s.rels.IsActive(ctx, in.ActorID, u.ID)
	if err != nil {
		return Entry{}, err
	}
	if !active {
		return Entry{}, ErrNotFound
	}

	if _, err := s.repo.Get(ctx, in.PropertyID, u.ID); err == nil {
		return Entry{}, ErrAlreadyExists
	}

	now := s.now()
	g := Grant{
		ID:              uuid.NewString(),
		PropertyID:      in.PropertyID,
		OwnerID:         in.ActorID,
		AssistantUserID: u.ID,
		Permissions:     perms,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return Entry{}, err
	}
	return toEntry(u, g), nil
}

// UpdatePermissions reemplaza el set completo (no es incremental).
func (s *Service) UpdatePermissions(ctx context.Context, propertyID, actorID, assistantUserID int64, in []permission.Permission) (Entry, error) {
	perms, err := permission.Normalize(in)
	if err != nil {
		return Entry{}, ErrInvalidPermissions
	}
	if err := s.authorizeOwner(ctx, propertyID, actorID); err != nil {
		return Entry{}, err
	}

	g, err := s.repo.Get(ctx, propertyID, assistantUserID)
	if err != nil {
		return Entry{}, ErrNotFound
	}
	g.Permissions = perms
	g.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, g); err != nil {
		return Entry{}, err
	}

	u, err := s.users.Get(ctx, assistantUserID)
	if err != nil {
		u = users.User{ID: assistantUserID}
	}
	return toEntry(u, g), nil
}

// Revoke es idempotente: revocar algo que no existe no es error.
func (s *Service) Revoke(ctx context.Context, propertyID, actorID, assistantUserID int64) error {
	if assistantUserID <= 0 {
		return ErrInvalidInput
	}
	if err := s.authorizeOwner(ctx, propertyID, actorID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, propertyID, assistantUserID)
}

func (s *Service) List(ctx context.Context, propertyID, actorID int64) ([]Entry, error) {
	if err := s.authorizeOwner(ctx, propertyID, actorID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(items))
	for _, g := range items {
		u, err := s.users.Get(ctx, g.AssistantUserID)
		if err != nil {
			continue
		}
		out = append(out, toEntry(u, g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GrantedAt.Before(out[j].GrantedAt) })
	return out, nil
}

// Get lo usa properties para decidir acceso de un asistente.
func (s *Service) Get(ctx context.Context, propertyID, assistantUserID int64) (Grant, error) {
	g, err := s.repo.Get(ctx, propertyID, assistantUserID)
	if err != nil {
		return Grant{}, ErrNotFound
	}
	return g, nil
}

func (s *Service) ListForAssistant(ctx context.Context, assistantUserID int64) ([]Grant, error) {
	if assistantUserID <= 0 {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByAssistant(ctx, assistantUserID)
}

// RevokeAllForPair: cascada al borrar el vínculo owner → asistente.
func (s *Service) RevokeAllForPair(ctx context.Context, ownerID, assistantUserID int64) error {
	return s.repo.DeleteByPair(ctx, ownerID, assistantUserID)
}

// Has valida si el grant incluye un permiso.
func Has(g Grant, p permission.Permission) bool {
	return permission.Has(g.Permissions, p)
}

func (s *Service) authorizeOwner(ctx context.Context, propertyID, actorID int64) error {
	if propertyID <= 0 || actorID <= 0 {
		return ErrInvalidInput
	}
	ownerID, err := s.properties.OwnerOf(ctx, propertyID)
	if err != nil {
		return ErrPropertyNotFound
	}
	if ownerID != actorID {
		return ErrForbidden
	}
	return nil
}

func toEntry(u users.User, g Grant) Entry {
	return Entry{
		UserID:      g.AssistantUserID,
		Email:       u.Email,
		FullName:    u.FullName,
		Permissions: g.Permissions,
		GrantedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}
