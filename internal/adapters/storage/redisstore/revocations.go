package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "rc:revoked:"

// RevocationList guarda los jti revocados como keys con TTL = vida restante del token.
// Redis expira las entradas solo; no hace falta limpieza.
type RevocationList struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRevocationList(rdb redis.UniversalClient, prefix string) *RevocationList {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultPrefix
	}
	return &RevocationList{rdb: rdb, prefix: prefix, now: time.Now}
}

// Open crea el cliente y hace ping (3s) como el Open de postgres.
func Open(addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (l *RevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return errors.New("token id required")
	}
	ttl := until.Sub(l.now())
	if ttl <= 0 {
		// ya expiró; no hay nada que revocar
		return nil
	}
	return l.rdb.Set(ctx, l.prefix+tokenID, "1", ttl).Err()
}

func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.rdb.Exists(ctx, l.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
