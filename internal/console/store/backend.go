package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Backend lee y escribe el documento completo. Un documento inexistente
// es State{} sin error.
type Backend interface {
	Read() (State, error)
	Write(State) error
}

// FileBackend guarda el documento como YAML. Write escribe a un temporal
// en el mismo directorio y renombra, así un lector nunca ve un archivo a medias.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Read() (State, error) {
	raw, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("read state %s: %w", b.path, err)
	}

	var st State
	if err := yaml.Unmarshal(raw, &st); err != nil {
		return State{}, fmt.Errorf("parse state %s: %w", b.path, err)
	}
	return st, nil
}

func (b *FileBackend) Write(st State) error {
	raw, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op después del rename

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// MemoryBackend para tests. ReadErr/WriteErr simulan fallas del storage.
type MemoryBackend struct {
	mu    sync.Mutex
	state State

	ReadErr  error
	WriteErr error
	Writes   int
}

func NewMemoryBackend(initial State) *MemoryBackend {
	return &MemoryBackend{state: initial.clone()}
}

func (b *MemoryBackend) Read() (State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ReadErr != nil {
		return State{}, b.ReadErr
	}
	return b.state.clone(), nil
}

func (b *MemoryBackend) Write(st State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.WriteErr != nil {
		return b.WriteErr
	}
	b.state = st.clone()
	b.Writes++
	return nil
}

// Stored devuelve lo último escrito.
func (b *MemoryBackend) Stored() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.clone()
}
