// Package session maneja el ciclo de vida de la sesión del console:
// login, intercambio de token OAuth, signup, logout y perfil.
package session

import (
	"context"
	"sync"

	"github.com/juju/errors"

	"rent-console/internal/console/consoleapi"
	"rent-console/internal/console/store"
	"rent-console/internal/platform/logger"
)

type Status int

const (
	StatusUninitialized Status = iota
	StatusChecking
	StatusUnauthenticated
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "uninitialized"
	}
}

// API es la parte del cliente REST que usa la sesión (lo cumple *consoleapi.Client).
type API interface {
	Login(ctx context.Context, email, password string) (consoleapi.LoginResult, error)
	Signup(ctx context.Context, in consoleapi.SignupRequest) (consoleapi.Profile, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (consoleapi.Profile, error)
	MeWithToken(ctx context.Context, token string) (consoleapi.Profile, error)
	UpdateMe(ctx context.Context, patch consoleapi.ProfilePatch) (consoleapi.Profile, error)
	ChangePassword(ctx context.Context, current, next string) error
}

// Resetter es estado ligado a la sesión (modo de acceso, caches) que
// vuelve a su default cuando la sesión termina.
type Resetter interface {
	Reset()
}

// Registration es lo que devuelve signup; no implica sesión.
type Registration = consoleapi.Profile

type Manager struct {
	// serializa transiciones de auth (login, logout, 401)
	authMu sync.Mutex

	api    API
	tokens *store.Store
	log    logger.Logger

	mu        sync.RWMutex
	status    Status
	profile   consoleapi.Profile
	epoch     uint64
	resets    []Resetter
	subs      map[int]func(Status)
	nextSubID int
}

func NewManager(api API, tokens *store.Store, log logger.Logger, resets ...Resetter) *Manager {
	return &Manager{
		api:    api,
		tokens: tokens,
		log:    logger.OrNop(log),
		resets: resets,
		subs:   make(map[int]func(Status)),
	}
}

// AddResetter suma estado a limpiar en el próximo fin de sesión.
func (m *Manager) AddResetter(r Resetter) {
	m.mu.Lock()
	m.resets = append(m.resets, r)
	m.mu.Unlock()
}

// Subscribe registra fn para cada cambio de Status. Devuelve el unsubscribe.
// fn corre sincrónicamente dentro de la transición: no puede llamar a
// Login/Logout/HandleUnauthorized.
func (m *Manager) Subscribe(fn func(Status)) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) Profile() (consoleapi.Profile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile, m.status == StatusAuthenticated
}

// Start lee el Token Store. Token + perfil cacheado => autenticado sin
// ir a la red; el perfil puede estar desactualizado.
func (m *Manager) Start(ctx context.Context) {
	m.authMu.Lock()
	defer m.authMu.Unlock()

	m.setStatus(StatusChecking, consoleapi.Profile{})

	_, hasToken := m.tokens.Load()
	p, hasProfile := m.tokens.Profile()
	if hasToken && hasProfile {
		m.log.Debug("session restored", map[string]any{"user_id": p.ID})
		m.setStatus(StatusAuthenticated, p)
		return
	}

	if hasToken {
		// token sin perfil validado: la sesión interrumpida termina acá,
		// con su contexto de acceso
		m.endSession("token without profile")
		return
	}
	m.setStatus(StatusUnauthenticated, consoleapi.Profile{})
}

func (m *Manager) Login(ctx context.Context, email, password string) (consoleapi.Profile, error) {
	m.authMu.Lock()
	defer m.authMu.Unlock()

	res, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.log.Info("login failed", map[string]any{"error": err.Error()})
		return consoleapi.Profile{}, err
	}
	if res.Token == "" {
		return consoleapi.Profile{}, errors.NotValidf("login response without token")
	}

	m.resetIfUserChanged(res.Profile.ID)
	if err := m.tokens.Save(res.Token, res.Profile); err != nil {
		return consoleapi.Profile{}, errors.Annotate(err, "persist session")
	}

	m.setStatus(StatusAuthenticated, res.Profile)
	m.log.Info("logged in", map[string]any{"user_id": res.Profile.ID})
	return res.Profile, nil
}

// LoginWithToken completa el flujo OAuth: guarda el token de forma
// especulativa, trae el perfil y, si falla, deja el Token Store como estaba.
func (m *Manager) LoginWithToken(ctx context.Context, token string) (consoleapi.Profile, error) {
	m.authMu.Lock()
	defer m.authMu.Unlock()

	if token == "" {
		return consoleapi.Profile{}, errors.NotValidf("empty token")
	}

	cp := m.tokens.Checkpoint()
	if err := m.tokens.SaveToken(token); err != nil {
		return consoleapi.Profile{}, errors.Annotate(err, "persist token")
	}

	p, err := m.api.MeWithToken(ctx, token)
	if err == nil {
		m.resetIfUserChanged(p.ID)
		err = m.tokens.Save(token, p)
	}
	if err != nil {
		if rbErr := m.tokens.Rollback(cp); rbErr != nil {
			m.log.Error("token rollback failed", map[string]any{"error": rbErr.Error()})
		}
		return consoleapi.Profile{}, err
	}

	m.setStatus(StatusAuthenticated, p)
	m.log.Info("logged in with token", map[string]any{"user_id": p.ID})
	return p, nil
}

// Signup crea la cuenta. No guarda credencial: después hay que hacer Login.
func (m *Manager) Signup(ctx context.Context, in consoleapi.SignupRequest) (Registration, error) {
	return m.api.Signup(ctx, in)
}

// Logout siempre termina la sesión local, aunque el backend falle.
func (m *Manager) Logout(ctx context.Context) {
	m.authMu.Lock()
	defer m.authMu.Unlock()

	if _, ok := m.tokens.Load(); ok {
		if err := m.api.Logout(ctx); err != nil {
			m.log.Debug("server logout failed, ignoring", map[string]any{"error": err.Error()})
		}
	}
	m.endSession("logout")
}

// HandleUnauthorized es el hook del cliente REST ante un 401. token es el
// que se usó en el request: si la sesión ya cambió, el 401 es viejo y se ignora.
func (m *Manager) HandleUnauthorized(token string) {
	m.authMu.Lock()
	defer m.authMu.Unlock()

	current, ok := m.tokens.Load()
	if !ok || current != token {
		return
	}
	m.endSession("unauthorized")
}

func (m *Manager) UpdateProfile(ctx context.Context, patch consoleapi.ProfilePatch) (consoleapi.Profile, error) {
	epoch, ok := m.authenticatedEpoch()
	if !ok {
		return consoleapi.Profile{}, errors.Unauthorizedf("not logged in")
	}

	updated, err := m.api.UpdateMe(ctx, patch)
	if err != nil {
		return consoleapi.Profile{}, err
	}

	m.authMu.Lock()
	defer m.authMu.Unlock()

	m.mu.RLock()
	stale := m.epoch != epoch || m.status != StatusAuthenticated
	merged := m.profile
	m.mu.RUnlock()
	if stale {
		return consoleapi.Profile{}, errors.Unauthorizedf("session ended during profile update")
	}

	merged = mergeProfile(merged, updated)
	if err := m.tokens.SaveProfile(merged); err != nil {
		m.log.Warn("persist profile failed", map[string]any{"error": err.Error()})
	}
	m.setStatus(StatusAuthenticated, merged)
	return merged, nil
}

// Refresh vuelve a traer el perfil de la sesión actual y lo cachea.
// Un resultado que llega después del fin de sesión se descarta.
func (m *Manager) Refresh(ctx context.Context) (consoleapi.Profile, error) {
	epoch, ok := m.authenticatedEpoch()
	if !ok {
		return consoleapi.Profile{}, errors.Unauthorizedf("not logged in")
	}

	p, err := m.api.Me(ctx)
	if err != nil {
		return consoleapi.Profile{}, err
	}

	m.authMu.Lock()
	defer m.authMu.Unlock()

	m.mu.RLock()
	stale := m.epoch != epoch || m.status != StatusAuthenticated || m.profile.ID != p.ID
	m.mu.RUnlock()
	if stale {
		return consoleapi.Profile{}, errors.Unauthorizedf("session ended during profile refresh")
	}

	if err := m.tokens.SaveProfile(p); err != nil {
		m.log.Warn("persist profile failed", map[string]any{"error": err.Error()})
	}
	m.setStatus(StatusAuthenticated, p)
	return p, nil
}

func (m *Manager) ChangePassword(ctx context.Context, current, next string) error {
	if _, ok := m.authenticatedEpoch(); !ok {
		return errors.Unauthorizedf("not logged in")
	}
	return m.api.ChangePassword(ctx, current, next)
}

// endSession: limpia Token Store, resetea el estado ligado a la sesión
// y sube el epoch para descartar resultados tardíos. Requiere authMu.
func (m *Manager) endSession(reason string) {
	if err := m.tokens.Clear(); err != nil {
		m.log.Warn("clear token store failed", map[string]any{"error": err.Error()})
	}

	m.mu.Lock()
	m.epoch++
	resets := append([]Resetter(nil), m.resets...)
	m.mu.Unlock()

	for _, r := range resets {
		r.Reset()
	}

	m.setStatus(StatusUnauthenticated, consoleapi.Profile{})
	m.log.Info("session ended", map[string]any{"reason": reason})
}

// resetIfUserChanged: loguearse como otro usuario no hereda el contexto
// de acceso del anterior. Requiere authMu.
func (m *Manager) resetIfUserChanged(userID int64) {
	m.mu.Lock()
	prev := m.profile.ID
	changed := prev != 0 && prev != userID
	if changed {
		m.epoch++
	}
	resets := append([]Resetter(nil), m.resets...)
	m.mu.Unlock()

	if !changed {
		return
	}
	for _, r := range resets {
		r.Reset()
	}
}

func (m *Manager) authenticatedEpoch() (uint64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epoch, m.status == StatusAuthenticated
}

func (m *Manager) setStatus(s Status, p consoleapi.Profile) {
	m.mu.Lock()
	changed := m.status != s
	m.status = s
	m.profile = p
	subs := make([]func(Status), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range subs {
		fn(s)
	}
}

func mergeProfile(cached, updated consoleapi.Profile) consoleapi.Profile {
	out := cached
	if updated.ID != 0 {
		out.ID = updated.ID
	}
	if updated.Email != "" {
		out.Email = updated.Email
	}
	if updated.FullName != "" {
		out.FullName = updated.FullName
	}
	if updated.UserType != "" {
		out.UserType = updated.UserType
	}
	out.Phone = updated.Phone
	return out
}
