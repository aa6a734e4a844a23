// Package memory tiene los repos in-memory que usa la API cuando no hay DB_DSN
// (modo dev y tests end-to-end).
package memory

import (
	"errors"
	"sync"
)

var (
	ErrNotFound = errors.New("not found")
)

// seq entrega IDs incrementales como un BIGSERIAL.
type seq struct {
	mu   sync.Mutex
	last int64
}

func (s *seq) next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return s.last
}
