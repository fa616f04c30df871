package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TokenRevoker remembers revoked token ids in Redis until they expire.
type TokenRevoker struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewTokenRevoker(rdb *redis.Client, logger *zap.Logger) *TokenRevoker {
	return &TokenRevoker{rdb: rdb, logger: logger}
}

func revokedKey(jti string) string {
	return fmt.Sprintf("revoked:%s", jti)
}

// Revoke marks jti revoked for ttl. Non-positive ttl is a no-op: the token
// is already expired.
func (r *TokenRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, revokedKey(jti), 1, ttl).Err()
}

// IsRevoked reports whether jti was revoked. When Redis is unavailable the
// token is treated as valid and a warning is logged.
func (r *TokenRevoker) IsRevoked(ctx context.Context, jti string) bool {
	n, err := r.rdb.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		r.logger.Warn("Redis revocation check failed, allowing token",
			zap.String("jti", jti),
			zap.Error(err),
		)
		return false
	}
	return n > 0
}
