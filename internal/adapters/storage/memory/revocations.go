package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// RevocationList es la denylist de jti en memoria (modo dev / tests).
type RevocationList struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

func NewRevocationList() *RevocationList {
	return &RevocationList{
		until: make(map[string]time.Time),
		now:   time.Now,
	}
}

func (l *RevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return errors.New("token id required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.until[tokenID] = until
	l.sweepLocked()
	return nil
}

func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	until, ok := l.until[tokenID]
	if !ok {
		return false, nil
	}
	if !l.now().Before(until) {
		delete(l.until, tokenID)
		return false, nil
	}
	return true, nil
}

// limpieza oportunista para que el mapa no crezca sin límite
func (l *RevocationList) sweepLocked() {
	now := l.now()
	for id, until := range l.until {
		if !now.Before(until) {
			delete(l.until, id)
		}
	}
}
