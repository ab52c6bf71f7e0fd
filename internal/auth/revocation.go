package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList records token ids invalidated before their natural
// expiry. A missing entry means not revoked.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RevocationStore is a Redis-backed RevocationList, kept separate from the
// general-purpose cache package: auth-critical state and best-effort
// caching must never share a failure mode (a dropped cache entry just
// costs a re-read; a dropped revocation entry lets a logged-out token
// back in).
type RevocationStore struct {
	rdb *redis.Client
}

func NewRevocationStore(rdb *redis.Client) *RevocationStore {
	return &RevocationStore{rdb: rdb}
}

func revokedKey(jti string) string {
	return fmt.Sprintf("revoked:%s", jti)
}

// Revoke marks jti revoked until expiresAt; past expiry it would stop
// mattering anyway since Verify would already reject the token.
func (s *RevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, revokedKey(jti), "1", ttl).Err()
}

func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
