// Package accessmode mantiene el contexto de acceso del console: modo owner
// (mis propiedades) o asistente (propiedades delegadas, filtrables por owner).
package accessmode

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/juju/errors"

	"rent-console/internal/console/consoleapi"
	"rent-console/internal/platform/logger"
)

type Mode string

const (
	ModeOwner     Mode = "owner"
	ModeAssistant Mode = "assistant"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeOwner:
		return ModeOwner, nil
	case ModeAssistant:
		return ModeAssistant, nil
	default:
		return "", errors.NotValidf("access mode %q", s)
	}
}

const defaultRosterTimeout = 15 * time.Second

// RosterSource trae los owners a los que asiste el usuario (lo cumple *consoleapi.Client).
type RosterSource interface {
	Owners(ctx context.Context) ([]consoleapi.Member, error)
}

// Persister guarda modo y owner seleccionado (lo cumple *store.Store).
type Persister interface {
	AccessMode() (string, *int64)
	SetAccessMode(mode string, ownerID *int64) error
}

// State es una foto del controller.
// RosterLoading distingue "roster vacío confirmado" de "todavía cargando".
type State struct {
	Mode            Mode
	SelectedOwnerID *int64
	Roster          []consoleapi.Member
	RosterLoading   bool
	RosterFetched   bool
}

// Scope es lo que un fetch de propiedades tiene que mandar como filtro.
type Scope struct {
	Mode    Mode
	OwnerID *int64
}

func (s Scope) Filter() consoleapi.PropertyFilter {
	return consoleapi.PropertyFilter{Mode: string(s.Mode), OwnerID: copyID(s.OwnerID)}
}

type Controller struct {
	roster  RosterSource
	persist Persister
	log     logger.Logger
	timeout time.Duration

	mu       sync.Mutex
	mode     Mode
	selected *int64
	owners   []consoleapi.Member
	loading  bool
	fetched  bool
	known    bool // hubo al menos una respuesta de roster (puede ser vacía)
	epoch    uint64
	done     chan struct{}
}

// New restaura modo y selección persistidos. Un modo desconocido vuelve a owner.
func New(roster RosterSource, persist Persister, log logger.Logger) *Controller {
	c := &Controller{
		roster:  roster,
		persist: persist,
		log:     logger.OrNop(log),
		timeout: defaultRosterTimeout,
		mode:    ModeOwner,
	}

	rawMode, owner := persist.AccessMode()
	if m, err := ParseMode(rawMode); err == nil {
		c.mode = m
	}
	if c.mode == ModeAssistant {
		c.selected = copyID(owner)
	} else if owner != nil {
		// owner => sin selección
		c.save()
	}
	return c
}

// SwitchMode cambia y persiste el modo. En owner la selección se borra;
// en asistente se pide el roster si todavía no se trajo en esta sesión.
func (c *Controller) SwitchMode(ctx context.Context, m Mode) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.mode = m
	if m == ModeOwner {
		c.selected = nil
	}
	c.save()

	if m == ModeAssistant {
		c.fetchIfNeeded(ctx)
	}
	return nil
}

// SelectOwner fija el owner del filtro; nil = todos los owners.
// Mientras el roster no se conoce el id no se valida; el próximo fetch lo repara.
// Con un roster conocido (también el vacío de un fetch fallido) solo valen sus miembros.
func (c *Controller) SelectOwner(ownerID *int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeAssistant {
		return errors.NotValidf("owner selection outside assistant mode")
	}
	if ownerID != nil && c.known && !inRoster(c.owners, *ownerID) {
		return errors.NotFoundf("owner %d", *ownerID)
	}

	c.selected = copyID(ownerID)
	c.save()
	return nil
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) Scope() Scope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Scope{Mode: c.mode, OwnerID: copyID(c.selected)}
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	roster := make([]consoleapi.Member, len(c.owners))
	copy(roster, c.owners)
	return State{
		Mode:            c.mode,
		SelectedOwnerID: copyID(c.selected),
		Roster:          roster,
		RosterLoading:   c.loading,
		RosterFetched:   c.fetched,
	}
}

// WaitRoster bloquea hasta que no haya fetch de roster en vuelo.
func (c *Controller) WaitRoster(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Resume se llama cuando la sesión queda autenticada: si el modo restaurado
// es asistente, trae el roster.
func (c *Controller) Resume(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeAssistant {
		c.fetchIfNeeded(ctx)
	}
}

// Refresh vuelve a pedir el roster aunque ya se haya traído.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loading {
		c.startFetch(ctx)
	}
}

// Reset vuelve al default (owner, sin selección, sin roster). Lo dispara el
// fin de sesión; un fetch en vuelo queda descartado.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.mode = ModeOwner
	c.selected = nil
	c.owners = nil
	c.loading = false
	c.fetched = false
	c.known = false
	c.done = nil
	c.save()
}

// requiere mu
func (c *Controller) fetchIfNeeded(ctx context.Context) {
	if c.fetched || c.loading {
		return
	}
	c.startFetch(ctx)
}

// requiere mu
func (c *Controller) startFetch(ctx context.Context) {
	done := make(chan struct{})
	c.loading = true
	c.done = done
	epoch := c.epoch

	// el roster es de la sesión, no de quien lo pidió: no se cancela con ctx
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	go func() {
		defer close(done)
		defer cancel()

		owners, err := c.roster.Owners(fetchCtx)
		c.finishFetch(epoch, done, owners, err)
	}()
}

func (c *Controller) finishFetch(epoch uint64, done chan struct{}, owners []consoleapi.Member, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		c.log.Debug("discarding stale owners roster", nil)
		return
	}
	if c.done == done {
		c.done = nil
	}
	c.loading = false
	c.known = true

	if err != nil {
		// roster vacío; fetched queda en false para reintentar en la próxima entrada
		c.log.Warn("owners roster fetch failed, using empty roster", map[string]any{"error": err.Error()})
		c.owners = []consoleapi.Member{}
		c.fetched = false
		if c.selected != nil {
			c.selected = nil
			c.save()
		}
		return
	}

	if owners == nil {
		owners = []consoleapi.Member{}
	}
	c.owners = owners
	c.fetched = true

	if c.selected != nil && !inRoster(owners, *c.selected) {
		c.log.Info("selected owner not in roster, clearing", map[string]any{"owner_id": *c.selected})
		c.selected = nil
		c.save()
	}
}

// requiere mu
func (c *Controller) save() {
	if err := c.persist.SetAccessMode(string(c.mode), c.selected); err != nil {
		c.log.Warn("persist access mode failed", map[string]any{"error": err.Error()})
	}
}

func inRoster(owners []consoleapi.Member, id int64) bool {
	for _, o := range owners {
		if o.ID == id {
			return true
		}
	}
	return false
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
