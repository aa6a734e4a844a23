package memory

import (
	"context"
	"testing"
	"time"
)

func TestRevocationList_ExpiresEntries(t *testing.T) {
	l := NewRevocationList()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }
	ctx := context.Background()

	if err := l.Revoke(ctx, "jti", base.Add(time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if ok, _ := l.IsRevoked(ctx, "jti"); !ok {
		t.Fatalf("expected revoked")
	}

	l.now = func() time.Time { return base.Add(time.Hour) }
	if ok, _ := l.IsRevoked(ctx, "jti"); ok {
		t.Fatalf("expected expired entry to be dropped")
	}
}

func TestRevocationList_RejectsEmptyID(t *testing.T) {
	if err := NewRevocationList().Revoke(context.Background(), " ", time.Now()); err == nil {
		t.Fatalf("expected error for empty id")
	}
}
