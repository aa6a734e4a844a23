package properties

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"rent-console/internal/domain/accessgrants"
	"rent-console/internal/permission"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
)

// GrantLookup lo cumple *accessgrants.Service.
type GrantLookup interface {
	Get(ctx context.Context, propertyID, assistantUserID int64) (accessgrants.Grant, error)
	ListForAssistant(ctx context.Context, assistantUserID int64) ([]accessgrants.Grant, error)
}

type Service struct {
	repo   Repository
	grants GrantLookup
	now    func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// SetGrants cierra el ciclo properties <-> accessgrants en el wiring:
// accessgrants necesita OwnerOf y properties necesita los grants.
func (s *Service) SetGrants(g GrantLookup) {
	s.grants = g
}

type CreateInput struct {
	Name        string
	Address     string
	City        string
	State       string
	PostalCode  string
	Country     string
	TotalFloors int
}

// ValidationError lleva detalle por campo.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "invalid property" }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func (s *Service) Create(ctx context.Context, ownerID int64, in CreateInput) (Property, error) {
	if ownerID <= 0 {
		return Property{}, ErrInvalidInput
	}

	fields := map[string]string{}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		fields["name"] = "required"
	}
	if in.TotalFloors < 0 {
		fields["totalFloors"] = "must be zero or greater"
	}
	if len(fields) > 0 {
		return Property{}, &ValidationError{Fields: fields}
	}

	now := s.now()
	return s.repo.Create(ctx, Property{
		OwnerID:     ownerID,
		Name:        name,
		Address:     strings.TrimSpace(in.Address),
		City:        strings.TrimSpace(in.City),
		State:       strings.TrimSpace(in.State),
		PostalCode:  strings.TrimSpace(in.PostalCode),
		Country:     strings.TrimSpace(in.Country),
		TotalFloors: in.TotalFloors,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s *Service) GetByID(ctx context.Context, id int64) (Property, error) {
	if id <= 0 {
		return Property{}, ErrInvalidInput
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Property{}, ErrNotFound
	}
	return p, nil
}

// OwnerOf implementa accessgrants.PropertyOwnerLookup.
func (s *Service) OwnerOf(ctx context.Context, id int64) (int64, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.OwnerID, nil
}

// ParseMode: vacío = all. Cualquier otro valor es inválido.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAll:
		return ModeAll, nil
	case ModeOwner:
		return ModeOwner, nil
	case ModeAssistant:
		return ModeAssistant, nil
	default:
		return "", ErrInvalidInput
	}
}

type Filter struct {
	Mode Mode
	// OwnerID filtra las propiedades asistidas por dueño; nil = todos.
	OwnerID *int64
}

// List aplica el lente: owner => propias; assistant => las que tienen grant
// con VIEW_PROPERTY (opcionalmente de un solo owner); all => ambas.
func (s *Service) List(ctx context.Context, userID int64, f Filter) ([]Listed, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}
	if f.Mode == "" {
		f.Mode = ModeAll
	}

	out := make([]Listed, 0)

	if f.Mode == ModeOwner || f.Mode == ModeAll {
		own, err := s.repo.ListByOwner(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, p := range own {
			out = append(out, Listed{Property: p, Role: RoleOwner})
		}
	}

	if (f.Mode == ModeAssistant || f.Mode == ModeAll) && s.grants != nil {
		assisted, err := s.listAssisted(ctx, userID, f.OwnerID)
		if err != nil {
			return nil, err
		}
		out = append(out, assisted...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Service) listAssisted(ctx context.Context, userID int64, ownerFilter *int64) ([]Listed, error) {
	grants, err := s.grants.ListForAssistant(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Listed, 0, len(grants))
	for _, g := range grants {
		if !accessgrants.Has(g, permission.ViewProperty) {
			continue
		}
		p, err := s.repo.GetByID(ctx, g.PropertyID)
		if err != nil {
			// grant huérfano
			continue
		}
		if ownerFilter != nil && p.OwnerID != *ownerFilter {
			continue
		}
		out = append(out, Listed{Property: p, Role: RoleAssistant, Permissions: g.Permissions})
	}
	return out, nil
}

// View: owner bypass; asistente necesita grant con VIEW_PROPERTY.
func (s *Service) View(ctx context.Context, userID, propertyID int64) (Listed, error) {
	p, err := s.GetByID(ctx, propertyID)
	if err != nil {
		return Listed{}, err
	}
	if p.OwnerID == userID {
		return Listed{Property: p, Role: RoleOwner}, nil
	}
	if s.grants == nil {
		return Listed{}, ErrForbidden
	}
	g, err := s.grants.Get(ctx, propertyID, userID)
	if err != nil || !accessgrants.Has(g, permission.ViewProperty) {
		return Listed{}, ErrForbidden
	}
	return Listed{Property: p, Role: RoleAssistant, Permissions: g.Permissions}, nil
}
