package store

import (
	"strings"
	"sync"

	"github.com/juju/errors"

	"rent-console/internal/console/consoleapi"
	"rent-console/internal/platform/logger"
)

// Store es el Token Store y, además, el dueño del documento persistido
// (modo de acceso incluido). Todas las escrituras son del documento entero.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	state   State
	log     logger.Logger
}

// Checkpoint es la parte de auth del documento, para rollback.
type Checkpoint struct {
	token   string
	profile *consoleapi.Profile
}

// New carga el documento. Un backend ilegible o una versión desconocida
// se tratan como estado vacío (sin sesión), nunca como error.
func New(backend Backend, log logger.Logger) *Store {
	log = logger.OrNop(log)
	s := &Store{backend: backend, log: log, state: State{Version: CurrentVersion}}

	st, err := backend.Read()
	switch {
	case err != nil:
		log.Warn("state unreadable, starting empty", map[string]any{"error": err.Error()})
	case st.Version == 0 && st.Token == "" && st.Profile == nil && st.Mode == "":
		// documento nuevo
	case st.Version != CurrentVersion:
		log.Warn("state version not supported, starting empty", map[string]any{"version": st.Version})
	default:
		s.state = st.clone()
	}
	return s
}

// Load devuelve la credencial persistida, si hay.
func (s *Store) Load() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token, s.state.Token != ""
}

// Token implementa consoleapi.TokenSource.
func (s *Store) Token() string {
	tok, _ := s.Load()
	return tok
}

func (s *Store) Profile() (consoleapi.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Profile == nil {
		return consoleapi.Profile{}, false
	}
	return *s.state.Profile, true
}

// Save persiste token y perfil en una sola escritura. Si el backend falla,
// el estado en memoria no cambia.
func (s *Store) Save(token string, p consoleapi.Profile) error {
	token = strings.TrimSpace(token)
	return s.update(func(st *State) {
		st.Token = token
		st.Profile = &p
	})
}

// SaveToken guarda sólo el token y descarta el perfil cacheado
// (el perfil todavía no se validó para ese token).
func (s *Store) SaveToken(token string) error {
	token = strings.TrimSpace(token)
	return s.update(func(st *State) {
		st.Token = token
		st.Profile = nil
	})
}

// SaveProfile reemplaza el perfil de la sesión actual.
func (s *Store) SaveProfile(p consoleapi.Profile) error {
	return s.update(func(st *State) {
		st.Profile = &p
	})
}

// Clear borra token y perfil. La memoria se limpia aunque el backend falle.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Token = ""
	s.state.Profile = nil
	if err := s.backend.Write(s.state.clone()); err != nil {
		s.log.Warn("clear session: persist failed", map[string]any{"error": err.Error()})
		return err
	}
	return nil
}

func (s *Store) Checkpoint() Checkpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := Checkpoint{token: s.state.Token}
	if s.state.Profile != nil {
		p := *s.state.Profile
		cp.profile = &p
	}
	return cp
}

// Rollback deja token y perfil exactamente como en cp.
// Como Clear, la memoria se restaura aunque el backend falle.
func (s *Store) Rollback(cp Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Token = cp.token
	s.state.Profile = nil
	if cp.profile != nil {
		p := *cp.profile
		s.state.Profile = &p
	}
	if err := s.backend.Write(s.state.clone()); err != nil {
		s.log.Warn("rollback session: persist failed", map[string]any{"error": err.Error()})
		return err
	}
	return nil
}

// AccessMode devuelve el modo y el owner seleccionado persistidos.
func (s *Store) AccessMode() (string, *int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state.clone()
	return st.Mode, st.SelectedOwnerID
}

func (s *Store) SetAccessMode(mode string, ownerID *int64) error {
	var owner *int64
	if ownerID != nil {
		id := *ownerID
		owner = &id
	}
	return s.update(func(st *State) {
		st.Mode = mode
		st.SelectedOwnerID = owner
	})
}

// Theme es la preferencia de tema; vacío si nunca se eligió.
func (s *Store) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Theme
}

func (s *Store) SetTheme(theme string) error {
	switch theme {
	case ThemeLight, ThemeDark:
	default:
		return errors.NotValidf("theme %q", theme)
	}
	return s.update(func(st *State) {
		st.Theme = theme
	})
}

// Snapshot copia el documento actual.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

func (s *Store) update(fn func(*State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	fn(&next)
	next.Version = CurrentVersion

	if err := s.backend.Write(next); err != nil {
		return err
	}
	s.state = next
	return nil
}
