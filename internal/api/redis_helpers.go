package api

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	errRateLimited   = errors.New("rate limit exceeded")
	errAccountLocked = errors.New("account temporarily locked")
)

// authRedis is the subset of go-redis used by the auth endpoints.
type authRedis interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

func incrWithTTL(ctx context.Context, client authRedis, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}

// loginGuard throttles login attempts per IP and email and locks an email
// after repeated failures. Redis errors fail open.
type loginGuard struct {
	rdb           authRedis
	limit         int
	window        time.Duration
	lockThreshold int
	lockTTL       time.Duration
	now           func() time.Time
}

func newLoginGuard(rdb authRedis, limit int, window time.Duration, lockThreshold int, lockTTL time.Duration) *loginGuard {
	return &loginGuard{
		rdb:           rdb,
		limit:         limit,
		window:        window,
		lockThreshold: lockThreshold,
		lockTTL:       lockTTL,
		now:           time.Now,
	}
}

func (g *loginGuard) check(ctx context.Context, ip, email string) error {
	bucket := strconv.FormatInt(g.now().UTC().UnixNano()/int64(g.window), 10)
	rateKey := "rate:login:" + ip + ":" + email + ":" + bucket
	if count, err := incrWithTTL(ctx, g.rdb, rateKey, g.window); err == nil && count > int64(g.limit) {
		return errRateLimited
	}

	if ttl, _ := g.rdb.TTL(ctx, lockKey(email)).Result(); ttl > 0 {
		return errAccountLocked
	}
	return nil
}

func (g *loginGuard) recordFailure(ctx context.Context, email string) {
	count, err := incrWithTTL(ctx, g.rdb, failKey(email), g.lockTTL)
	if err != nil {
		return
	}
	if count >= int64(g.lockThreshold) {
		_ = g.rdb.Set(ctx, lockKey(email), "1", g.lockTTL).Err()
	}
}

func (g *loginGuard) reset(ctx context.Context, email string) {
	_ = g.rdb.Del(ctx, failKey(email)).Err()
}

func lockKey(email string) string { return "lock:login:" + strings.ToLower(email) }
func failKey(email string) string { return "lock:login:fail:" + strings.ToLower(email) }
