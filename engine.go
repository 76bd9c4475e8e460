package socialauth

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/nexfeed/socialauth/internal"
	"github.com/nexfeed/socialauth/internal/rate"
	"github.com/nexfeed/socialauth/jwt"
	"github.com/nexfeed/socialauth/password"
	"github.com/nexfeed/socialauth/permission"
	"github.com/nexfeed/socialauth/session"
)

// Engine is the authentication and authorization core. Construct it through
// [Builder]; a zero Engine returns ErrEngineNotReady from every operation.
type Engine struct {
	config       Config
	registry     *permission.Registry
	sessionStore *session.Store
	rateLimiter  *rate.Limiter
	audit        *auditDispatcher
	metrics      *Metrics
	passwordHash *password.Argon2
	jwtManager   *jwt.Manager
	userProvider UserProvider

	// dummyHash absorbs a verification pass when the identifier is unknown
	// so that path costs the same as a wrong password.
	dummyHash string
}

// Close flushes and stops the audit dispatcher. Safe to call more than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.close()
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher queue was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.droppedCount()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.userProvider != nil && e.sessionStore != nil && e.jwtManager != nil
}

// Login verifies credentials and issues a token pair. Unknown identifiers
// and wrong passwords return the same ErrInvalidCredentials, with comparable
// cost on both paths.
func (e *Engine) Login(ctx context.Context, identifier, plaintext string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || plaintext == "" {
		return nil, ErrInvalidCredentials
	}

	if err := e.rateLimiter.CheckLogin(ctx, identifier); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", ErrLoginRateLimited, map[string]string{
				"identifier": identifier,
			})
			return nil, ErrLoginRateLimited
		}
		return nil, err
	}

	user, err := e.userProvider.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.passwordHash.Verify(plaintext, e.dummyHash)
			return nil, e.failLogin(ctx, identifier, "")
		}
		return nil, err
	}

	if !e.passwordHash.Verify(plaintext, user.PasswordHash) {
		return nil, e.failLogin(ctx, identifier, user.ID)
	}

	if !user.Active {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, "", ErrAccountInactive, nil)
		return nil, ErrAccountInactive
	}

	e.maybeUpgradeHash(ctx, user, plaintext)

	result, err := e.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	_ = e.rateLimiter.ResetLogin(ctx, identifier)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, "", nil, nil)

	return result, nil
}

func (e *Engine) failLogin(ctx context.Context, identifier, userID string) error {
	_ = e.rateLimiter.IncrementLogin(ctx, identifier)
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, userID, "", ErrInvalidCredentials, nil)
	return ErrInvalidCredentials
}

// maybeUpgradeHash transparently re-hashes the password when the stored
// digest carries weaker parameters than configured. Failure to persist the
// new digest never fails the login.
func (e *Engine) maybeUpgradeHash(ctx context.Context, user *UserRecord, plaintext string) {
	upgrade, err := e.passwordHash.NeedsUpgrade(user.PasswordHash)
	if err != nil || !upgrade {
		return
	}

	newHash, err := e.passwordHash.Hash(plaintext)
	if err != nil {
		return
	}
	if err := e.userProvider.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
		return
	}

	user.PasswordHash = newHash
	e.metricInc(MetricPasswordUpgraded)
	e.emitAudit(ctx, auditEventPasswordUpgraded, true, user.ID, "", nil, nil)
}

// Refresh redeems a refresh token for a fresh pair, rotating the session
// secret. A replayed token revokes every session for its user before the
// error surfaces.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	sid, secret, err := internal.DecodeRefreshToken(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", "", ErrRefreshInvalid, nil)
		return nil, ErrRefreshInvalid
	}

	if err := e.rateLimiter.CheckRefresh(ctx, sid); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricRefreshRateLimited)
			e.emitAudit(ctx, auditEventRefreshRateLimited, false, "", sid, ErrRefreshRateLimited, nil)
			return nil, ErrRefreshRateLimited
		}
		return nil, err
	}

	nextSecret, err := internal.NewRefreshSecret()
	if err != nil {
		return nil, err
	}

	sess, err := e.sessionStore.Rotate(ctx, sid,
		internal.HashRefreshSecret(secret),
		internal.HashRefreshSecret(nextSecret),
	)
	if err != nil {
		return nil, e.failRefresh(ctx, sid, err)
	}

	user, err := e.userProvider.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.revokeAll(ctx, sess.UserID, auditEventRefreshInvalid, ErrRefreshInvalid)
			e.metricInc(MetricRefreshFailure)
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}
	if !user.Active {
		e.revokeAll(ctx, user.ID, auditEventRefreshInvalid, ErrAccountInactive)
		e.metricInc(MetricRefreshFailure)
		return nil, ErrAccountInactive
	}

	access, err := e.jwtManager.CreateAccess(user.ID, user.Role, sid)
	if err != nil {
		return nil, err
	}
	opaque, err := internal.EncodeRefreshToken(sid, nextSecret)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, user.ID, sid, nil, map[string]string{
		"generation": strconv.FormatInt(sess.Generation, 10),
	})

	return &LoginResult{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		AccessToken:  access,
		RefreshToken: opaque,
	}, nil
}

func (e *Engine) failRefresh(ctx context.Context, sid string, err error) error {
	switch {
	case errors.Is(err, session.ErrRefreshMismatch):
		// Replay of an already-rotated secret. Treat the lineage as stolen
		// and revoke every session its user holds.
		uid := ""
		if sess, getErr := e.sessionStore.Get(ctx, sid); getErr == nil {
			uid = sess.UserID
			if _, delErr := e.sessionStore.DeleteAllForUser(ctx, uid); delErr == nil {
				e.metricInc(MetricSessionRevoked)
			}
		}
		e.metricInc(MetricReplayDetected)
		e.emitAudit(ctx, auditEventRefreshReuse, false, uid, sid, ErrRefreshReuse, nil)
		return ErrRefreshReuse

	case errors.Is(err, session.ErrSessionExpired):
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshExpired, false, "", sid, ErrRefreshExpired, nil)
		return ErrRefreshExpired

	case errors.Is(err, session.ErrSessionNotFound):
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", sid, ErrRefreshInvalid, nil)
		return ErrRefreshInvalid

	default:
		return err
	}
}

func (e *Engine) revokeAll(ctx context.Context, userID, event string, cause error) {
	if _, err := e.sessionStore.DeleteAllForUser(ctx, userID); err == nil {
		e.metricInc(MetricSessionRevoked)
	}
	e.emitAudit(ctx, event, false, userID, "", cause, nil)
}

// Logout revokes every refresh session for the token's subject. Already
// issued access tokens stay valid until their expiry; that window is the
// documented cost of stateless access tokens.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	claims, err := e.jwtManager.ParseAccess(accessToken)
	if err != nil {
		return ErrUnauthorized
	}

	if _, err := e.sessionStore.DeleteAllForUser(ctx, claims.UID); err != nil {
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, claims.UID, claims.SID, nil, nil)

	return nil
}

// RevokeUser invalidates every refresh session for a user id. Administrative
// entry point; does not touch outstanding access tokens.
func (e *Engine) RevokeUser(ctx context.Context, userID string) (int64, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}

	n, err := e.sessionStore.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	if n > 0 {
		e.metricInc(MetricSessionRevoked)
	}
	e.emitAudit(ctx, auditEventUserRevoked, true, userID, "", nil, map[string]string{
		"sessions": strconv.FormatInt(n, 10),
	})

	return n, nil
}

// Validate verifies an access token without touching Redis and resolves the
// subject's permission set against the live role registry. A role deleted
// since issuance yields an empty permission set, not an error.
func (e *Engine) Validate(ctx context.Context, accessToken string) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	start := e.config.Now()

	claims, err := e.jwtManager.ParseAccess(accessToken)
	if err != nil {
		e.metricInc(MetricValidateFailure)
		return nil, err
	}

	perms, err := e.registry.PermissionsOf(claims.Role)
	if err != nil {
		perms = nil
	}

	e.metricInc(MetricValidateSuccess)
	e.metrics.Observe(MetricValidateLatency, e.config.Now().Sub(start))

	return &AuthResult{
		UserID:      claims.UID,
		Role:        claims.Role,
		SessionID:   claims.SID,
		Permissions: perms,
	}, nil
}

// HasPermission reports whether a role grants a permission, honoring the
// wildcard grant. Unknown roles grant nothing.
func (e *Engine) HasPermission(role, perm string) bool {
	if e == nil || e.registry == nil {
		return false
	}
	return e.registry.Has(role, perm)
}

// Roles exposes the live role registry for management surfaces.
func (e *Engine) Roles() *permission.Registry {
	if e == nil {
		return nil
	}
	return e.registry
}

func (e *Engine) issuePair(ctx context.Context, user *UserRecord) (*LoginResult, error) {
	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, err
	}
	secret, err := internal.NewRefreshSecret()
	if err != nil {
		return nil, err
	}

	now := e.config.Now()
	sess := &session.Session{
		SessionID:   sid.String(),
		UserID:      user.ID,
		Role:        user.Role,
		RefreshHash: internal.HashRefreshSecret(secret),
		Generation:  0,
		CreatedAt:   now.Unix(),
		ExpiresAt:   now.Add(e.config.Refresh.TTL).Unix(),
	}
	if err := e.sessionStore.Save(ctx, sess, e.config.Refresh.TTL); err != nil {
		return nil, err
	}

	access, err := e.jwtManager.CreateAccess(user.ID, user.Role, sid.String())
	if err != nil {
		return nil, err
	}
	opaque, err := internal.EncodeRefreshToken(sid.String(), secret)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricSessionCreated)

	return &LoginResult{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		AccessToken:  access,
		RefreshToken: opaque,
	}, nil
}
