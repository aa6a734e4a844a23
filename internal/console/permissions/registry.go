// Package permissions es el lado console de los permisos por propiedad:
// media grant/update/revoke contra la API y guarda un cache consultivo
// de quién puede qué. La API es la autoridad; el cache solo decide qué mostrar.
package permissions

import (
	"context"
	"strings"
	"sync"

	"github.com/juju/errors"

	"rent-console/internal/console/consoleapi"
	"rent-console/internal/permission"
	"rent-console/internal/platform/logger"
)

// API es la parte del cliente REST que usa el registry (lo cumple *consoleapi.Client).
type API interface {
	PropertyAssistants(ctx context.Context, propertyID int64) ([]consoleapi.PropertyAccess, error)
	GrantAccess(ctx context.Context, propertyID int64, email string, perms []permission.Permission) (consoleapi.PropertyAccess, error)
	UpdateAccess(ctx context.Context, propertyID, assistantUserID int64, perms []permission.Permission) (consoleapi.PropertyAccess, error)
	RevokeAccess(ctx context.Context, propertyID, assistantUserID int64) error

	Assistants(ctx context.Context) ([]consoleapi.Member, error)
	AddAssistant(ctx context.Context, email string) (consoleapi.Member, error)
	RemoveAssistant(ctx context.Context, assistantUserID int64) error
}

type Registry struct {
	api API
	log logger.Logger

	mu    sync.Mutex
	cache map[int64][]consoleapi.PropertyAccess
	// epoch cambia al descartar todo el cache; gen al invalidar una propiedad.
	// Un List solo escribe si ninguno de los dos cambió mientras estaba en vuelo.
	epoch uint64
	gen   map[int64]uint64
}

func NewRegistry(api API, log logger.Logger) *Registry {
	return &Registry{
		api:   api,
		log:   logger.OrNop(log),
		cache: make(map[int64][]consoleapi.PropertyAccess),
		gen:   make(map[int64]uint64),
	}
}

// Grant da acceso a la propiedad al asistente con ese email.
// NotFound si no hay relación con ese email; AlreadyExists si ya tiene grant.
func (r *Registry) Grant(ctx context.Context, propertyID int64, email string, perms []permission.Permission) (consoleapi.PropertyAccess, error) {
	email = strings.TrimSpace(email)
	if propertyID <= 0 || email == "" {
		return consoleapi.PropertyAccess{}, errors.NotValidf("grant without property or email")
	}
	set, err := normalize(perms)
	if err != nil {
		return consoleapi.PropertyAccess{}, err
	}

	pa, err := r.api.GrantAccess(ctx, propertyID, email, set)
	r.Invalidate(propertyID)
	if err != nil {
		return consoleapi.PropertyAccess{}, r.failed("grant", propertyID, err)
	}
	return pa, nil
}

// UpdatePermissions reemplaza el set completo; no es incremental.
func (r *Registry) UpdatePermissions(ctx context.Context, propertyID, assistantUserID int64, perms []permission.Permission) (consoleapi.PropertyAccess, error) {
	if propertyID <= 0 || assistantUserID <= 0 {
		return consoleapi.PropertyAccess{}, errors.NotValidf("update without property or assistant")
	}
	set, err := normalize(perms)
	if err != nil {
		return consoleapi.PropertyAccess{}, err
	}

	pa, err := r.api.UpdateAccess(ctx, propertyID, assistantUserID, set)
	r.Invalidate(propertyID)
	if err != nil {
		return consoleapi.PropertyAccess{}, r.failed("update permissions", propertyID, err)
	}
	return pa, nil
}

// Revoke es idempotente del lado del servidor: un grant inexistente responde 204.
// Un NotFound acá es la propiedad, y se devuelve tal cual.
func (r *Registry) Revoke(ctx context.Context, propertyID, assistantUserID int64) error {
	if propertyID <= 0 || assistantUserID <= 0 {
		return errors.NotValidf("revoke without property or assistant")
	}

	err := r.api.RevokeAccess(ctx, propertyID, assistantUserID)
	r.Invalidate(propertyID)
	if err != nil {
		return r.failed("revoke", propertyID, err)
	}
	return nil
}

// List trae los grants de la propiedad y los deja en cache.
func (r *Registry) List(ctx context.Context, propertyID int64) ([]consoleapi.PropertyAccess, error) {
	r.mu.Lock()
	epoch, gen := r.epoch, r.gen[propertyID]
	r.mu.Unlock()

	grants, err := r.api.PropertyAssistants(ctx, propertyID)
	if err != nil {
		r.Invalidate(propertyID)
		return nil, r.failed("list grants", propertyID, err)
	}

	r.mu.Lock()
	if r.epoch == epoch && r.gen[propertyID] == gen {
		r.cache[propertyID] = cloneGrants(grants)
	}
	r.mu.Unlock()
	return cloneGrants(grants), nil
}

func (r *Registry) Cached(propertyID int64) ([]consoleapi.PropertyAccess, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	grants, ok := r.cache[propertyID]
	if !ok {
		return nil, false
	}
	return cloneGrants(grants), true
}

// Allowed es el chequeo consultivo sobre el cache. Sin cache => false.
func (r *Registry) Allowed(propertyID, assistantUserID int64, p permission.Permission) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.cache[propertyID] {
		if g.UserID == assistantUserID {
			return HasPermission(g, p)
		}
	}
	return false
}

func (r *Registry) MyAssistants(ctx context.Context) ([]consoleapi.Member, error) {
	return r.api.Assistants(ctx)
}

func (r *Registry) AddAssistant(ctx context.Context, email string) (consoleapi.Member, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return consoleapi.Member{}, errors.NotValidf("empty email")
	}
	return r.api.AddAssistant(ctx, email)
}

// RemoveAssistant: el backend borra en cascada los grants del par, así que
// se descarta todo el cache.
func (r *Registry) RemoveAssistant(ctx context.Context, assistantUserID int64) error {
	if assistantUserID <= 0 {
		return errors.NotValidf("assistant id %d", assistantUserID)
	}
	err := r.api.RemoveAssistant(ctx, assistantUserID)
	r.invalidateAll()
	return err
}

func (r *Registry) Invalidate(propertyID int64) {
	r.mu.Lock()
	r.gen[propertyID]++
	delete(r.cache, propertyID)
	r.mu.Unlock()
}

// Reset descarta el cache al terminar la sesión.
func (r *Registry) Reset() {
	r.invalidateAll()
}

func (r *Registry) invalidateAll() {
	r.mu.Lock()
	r.epoch++
	r.cache = make(map[int64][]consoleapi.PropertyAccess)
	r.mu.Unlock()
}

func (r *Registry) failed(op string, propertyID int64, err error) error {
	if errors.Is(err, errors.Forbidden) {
		// el cache decía otra cosa; queda invalidado arriba
		r.log.Info("forbidden by server", map[string]any{"op": op, "property_id": propertyID})
	}
	return err
}

// HasPermission es el chequeo puro sobre un grant.
func HasPermission(g consoleapi.PropertyAccess, p permission.Permission) bool {
	return permission.Has(g.Permissions, p)
}

func IsFullAccess(g consoleapi.PropertyAccess) bool {
	return permission.IsFullAccess(g.Permissions)
}

func Summary(g consoleapi.PropertyAccess) string {
	return permission.Summary(g.Permissions)
}

func normalize(perms []permission.Permission) ([]permission.Permission, error) {
	set, err := permission.Normalize(perms)
	if err != nil {
		return nil, errors.NewNotValid(err, "permissions")
	}
	return set, nil
}

func cloneGrants(in []consoleapi.PropertyAccess) []consoleapi.PropertyAccess {
	out := make([]consoleapi.PropertyAccess, len(in))
	for i, g := range in {
		g.Permissions = append([]permission.Permission(nil), g.Permissions...)
		out[i] = g
	}
	return out
}
