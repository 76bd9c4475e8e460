package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRateLimited is returned when an attempt budget is exhausted.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps transport failures talking to Redis.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Config holds rate limiter tuning parameters.
type Config struct {
	// Prefix namespaces every counter key so deployments sharing one Redis
	// keep separate budgets. Empty means "sa".
	Prefix                string
	MaxLoginAttempts      int
	LoginWindow           time.Duration
	MaxRefreshAttempts    int
	RefreshWindow         time.Duration
	EnableRefreshThrottle bool
}

// Limiter enforces per-identifier login and per-session refresh attempt
// budgets using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "sa"
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckLogin reports whether the identifier is still within its failed-login
// budget without consuming an attempt.
func (l *Limiter) CheckLogin(ctx context.Context, identifier string) error {
	count, err := l.redis.Get(ctx, l.loginKey(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count >= int64(l.config.MaxLoginAttempts) {
		return ErrRateLimited
	}
	return nil
}

// IncrementLogin records a failed login attempt for the identifier.
func (l *Limiter) IncrementLogin(ctx context.Context, identifier string) error {
	count, err := l.incrementWithTTL(ctx, l.loginKey(identifier), l.config.LoginWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxLoginAttempts) {
		return ErrRateLimited
	}
	return nil
}

// ResetLogin clears the failed-login counter after a successful login.
func (l *Limiter) ResetLogin(ctx context.Context, identifier string) error {
	if err := l.redis.Del(ctx, l.loginKey(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// CheckRefresh consumes one refresh attempt for the session and reports
// whether the budget is exceeded.
func (l *Limiter) CheckRefresh(ctx context.Context, sessionID string) error {
	if !l.config.EnableRefreshThrottle {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, l.refreshKey(sessionID), l.config.RefreshWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRefreshAttempts) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := l.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return incr.Val(), nil
}

func (l *Limiter) loginKey(identifier string) string {
	return l.config.Prefix + ":al:" + identifier
}

func (l *Limiter) refreshKey(sessionID string) string {
	return l.config.Prefix + ":ar:" + sessionID
}
