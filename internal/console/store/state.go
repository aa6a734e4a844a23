// Package store persiste el estado del console en un único documento
// versionado: credencial, perfil cacheado, tema y modo de acceso.
package store

import "rent-console/internal/console/consoleapi"

// CurrentVersion del documento. Otra versión => se ignora y se arranca vacío.
const CurrentVersion = 1

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type State struct {
	Version int `yaml:"version"`

	Token   string              `yaml:"token,omitempty"`
	Profile *consoleapi.Profile `yaml:"profile,omitempty"`

	Theme string `yaml:"theme,omitempty"`

	Mode            string `yaml:"mode,omitempty"`
	SelectedOwnerID *int64 `yaml:"selected_owner_id,omitempty"`
}

func (s State) clone() State {
	out := s
	if s.Profile != nil {
		p := *s.Profile
		out.Profile = &p
	}
	if s.SelectedOwnerID != nil {
		id := *s.SelectedOwnerID
		out.SelectedOwnerID = &id
	}
	return out
}
