package identity

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const revocationKeyPrefix = "identity:revoked:"

type redisRevocations struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRevocationStore stores revocation markers in Redis. Markers expire after ttl,
// by which point every token issued before the revocation has expired too.
func NewRedisRevocationStore(client *redis.Client, ttl time.Duration) RevocationStore {
	return &redisRevocations{client: client, ttl: ttl}
}

func (r *redisRevocations) Revoke(ctx context.Context, uid string, at time.Time) error {
	return r.client.Set(ctx, revocationKeyPrefix+uid, at.UnixMilli(), r.ttl).Err()
}

func (r *redisRevocations) RevokedAt(ctx context.Context, uid string) (time.Time, bool, error) {
	val, err := r.client.Get(ctx, revocationKeyPrefix+uid).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	millis, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(millis), true, nil
}
