package socialauth

import (
	"time"

	"github.com/nexfeed/socialauth/jwt"
	"github.com/nexfeed/socialauth/password"
)

// RefreshConfig controls opaque refresh tokens and their Redis-backed
// sessions.
type RefreshConfig struct {
	// TTL is the lifetime of a session. Rotation does not extend it; the
	// lineage dies at its original expiry.
	TTL time.Duration
}

// RateLimitConfig controls the Redis-backed abuse throttles.
type RateLimitConfig struct {
	// MaxLoginAttempts is the failed-login budget per identifier per window.
	MaxLoginAttempts int
	// LoginWindow is the fixed window for failed-login counting.
	LoginWindow time.Duration
	// MaxRefreshAttempts is the per-session refresh budget per window.
	MaxRefreshAttempts int
	// RefreshWindow is the fixed window for refresh counting.
	RefreshWindow time.Duration
	// EnableRefreshThrottle gates the refresh limiter separately because
	// short access TTLs make heavy refresh traffic legitimate.
	EnableRefreshThrottle bool
}

// AuditConfig controls the async audit pipeline.
type AuditConfig struct {
	// BufferSize is the dispatcher queue depth. Events beyond it are
	// dropped, never blocked on.
	BufferSize int
}

// Config is the full engine configuration. Obtain a baseline from
// [DefaultConfig] and override what you need; Builder options overlay on top.
type Config struct {
	JWT       jwt.Config
	Refresh   RefreshConfig
	Password  password.Config
	RateLimit RateLimitConfig
	Audit     AuditConfig

	// DefaultRole is assigned to every newly registered account. It must
	// exist in the seeded role registry.
	DefaultRole string

	// RedisPrefix namespaces every key the engine writes. Lets multiple
	// deployments share one Redis.
	RedisPrefix string

	// MetricsEnabled toggles the atomic counters. Off means every metric op
	// is a no-op branch.
	MetricsEnabled bool

	// Now is the clock for everything except JWT validation, which has its
	// own hook in JWT.Now. Tests inject both.
	Now func() time.Time
}

// DefaultConfig returns production-reasonable settings: 30 minute access
// tokens, 7 day refresh lineages, interactive-login argon2id parameters, and
// rate limits sized for a human fumbling a password rather than a botnet.
func DefaultConfig() Config {
	return Config{
		JWT: jwt.Config{
			AccessTTL:     30 * time.Minute,
			SigningMethod: jwt.MethodHS256,
		},
		Refresh: RefreshConfig{
			TTL: 7 * 24 * time.Hour,
		},
		Password: password.Config{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		RateLimit: RateLimitConfig{
			MaxLoginAttempts:      10,
			LoginWindow:           15 * time.Minute,
			MaxRefreshAttempts:    60,
			RefreshWindow:         time.Minute,
			EnableRefreshThrottle: false,
		},
		Audit: AuditConfig{
			BufferSize: 1024,
		},
		DefaultRole:    "user",
		RedisPrefix:    "sa",
		MetricsEnabled: true,
		Now:            time.Now,
	}
}
