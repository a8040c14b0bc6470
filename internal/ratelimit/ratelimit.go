package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/talentline/apiserver/config"
)

// Limiter is a fixed-window request counter kept in Redis.
type Limiter struct {
	client   redis.Cmdable
	attempts int
	window   time.Duration
	prefix   string
}

// Result describes one Allow decision.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// New returns a limiter permitting attempts hits per window for each key.
func New(client redis.Cmdable, attempts int, window time.Duration) (*Limiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if attempts < 1 {
		return nil, fmt.Errorf("attempts must be positive, got %d", attempts)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %s", window)
	}
	return &Limiter{client: client, attempts: attempts, window: window, prefix: "ratelimit:"}, nil
}

// Connect opens a Redis client from cfg and verifies it with PING. It
// returns nil, nil when no address is configured.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, scope, key string) (Result, error) {
	redisKey := l.key(scope, key)

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, l.window)
		ttl = pipe.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return decide(incr.Val(), ttl.Val(), l.attempts, l.window), nil
}

func (l *Limiter) key(scope, key string) string {
	return l.prefix + scope + ":" + key
}

func decide(count int64, ttl time.Duration, attempts int, window time.Duration) Result {
	if ttl <= 0 {
		ttl = window
	}
	remaining := attempts - int(count)
	if remaining < 0 {
		remaining = 0
	}
	res := Result{Allowed: count <= int64(attempts), Remaining: remaining}
	if !res.Allowed {
		res.RetryAfter = ttl
	}
	return res
}
