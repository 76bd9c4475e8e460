package socialauth

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nexfeed/socialauth/internal/rate"
	"github.com/nexfeed/socialauth/jwt"
	"github.com/nexfeed/socialauth/password"
	"github.com/nexfeed/socialauth/permission"
	"github.com/nexfeed/socialauth/session"
)

// Builder assembles an Engine. Zero-value options fall back to
// [DefaultConfig]; a Builder is single-use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	roles []permission.Role

	userProvider UserProvider
	auditSink    AuditSink

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client backing sessions and rate limits.
// Required.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRoles seeds the role registry. When omitted,
// [permission.DefaultRoles] is used.
func (b *Builder) WithRoles(roles []permission.Role) *Builder {
	b.roles = roles
	return b
}

// WithUserProvider sets the account persistence backend. Required.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithAuditSink enables the async audit pipeline. Nil keeps auditing off.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock replaces the wall clock everywhere the engine reads time,
// including JWT validation. Test hook.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.config.Now = now
	b.config.JWT.Now = now
	return b
}

// WithMetricsEnabled toggles the counter sink.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.MetricsEnabled = enabled
	return b
}

// Build validates the configuration and wires the engine. A missing or
// unusable signing key is fatal here, never deferred to the first token.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.JWT.Now == nil {
		cfg.JWT.Now = cfg.Now
	}

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}
	if cfg.Refresh.TTL <= 0 {
		return nil, errors.New("refresh TTL must be positive")
	}
	if cfg.DefaultRole == "" {
		return nil, errors.New("default role must be set")
	}

	roles := b.roles
	if len(roles) == 0 {
		roles = permission.DefaultRoles()
	}
	registry, err := permission.NewRegistry(roles)
	if err != nil {
		return nil, err
	}
	if !registry.Exists(cfg.DefaultRole) {
		return nil, errors.New("default role is not in the seeded role set")
	}

	ph, err := password.NewArgon2(cfg.Password)
	if err != nil {
		return nil, err
	}

	jm, err := jwt.NewManager(cfg.JWT)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		registry:     registry,
		sessionStore: session.NewStore(b.redis, cfg.RedisPrefix, cfg.Now),
		passwordHash: ph,
		jwtManager:   jm,
		userProvider: b.userProvider,
		metrics:      NewMetrics(cfg.MetricsEnabled),
	}

	engine.rateLimiter = rate.New(b.redis, rate.Config{
		Prefix:                cfg.RedisPrefix,
		MaxLoginAttempts:      cfg.RateLimit.MaxLoginAttempts,
		LoginWindow:           cfg.RateLimit.LoginWindow,
		MaxRefreshAttempts:    cfg.RateLimit.MaxRefreshAttempts,
		RefreshWindow:         cfg.RateLimit.RefreshWindow,
		EnableRefreshThrottle: cfg.RateLimit.EnableRefreshThrottle,
	})
	engine.audit = newAuditDispatcher(cfg.Audit.BufferSize, b.auditSink)

	// Precompute the decoy digest used to equalize the cost of logins
	// against unknown identifiers.
	engine.dummyHash, err = ph.Hash("decoy")
	if err != nil {
		return nil, err
	}

	b.built = true

	return engine, nil
}
