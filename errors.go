package socialauth

import (
	"errors"

	"github.com/nexfeed/socialauth/jwt"
	"github.com/nexfeed/socialauth/permission"
)

var (
	// ErrInvalidCredentials is returned for both an unknown identifier and a
	// wrong password, deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned by user providers for unknown identifiers.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountExists is returned when registering an identifier that is
	// already taken.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountInactive is returned when a deactivated account attempts to
	// authenticate.
	ErrAccountInactive = errors.New("account inactive")
	// ErrRegistrationInvalid is returned for structurally invalid
	// registration requests.
	ErrRegistrationInvalid = errors.New("invalid registration request")
	// ErrPasswordPolicy is returned when a new password fails the strength
	// policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrLoginRateLimited is returned when the failed-login budget for an
	// identifier is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRefreshRateLimited is returned when the per-session refresh budget
	// is exhausted.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrRefreshInvalid is returned for unknown or undecodable refresh
	// tokens, including tokens whose lineage was revoked.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrRefreshExpired is returned when a refresh token is past its stored
	// expiry.
	ErrRefreshExpired = errors.New("refresh token expired")
	// ErrRefreshReuse is returned when an already-redeemed refresh token is
	// presented again. The whole lineage for that user has been revoked by
	// the time the caller sees this.
	ErrRefreshReuse = errors.New("refresh token reuse detected")
	// ErrUnauthorized is the guard outcome for a missing, malformed,
	// expired, or otherwise unverifiable access token.
	ErrUnauthorized = errors.New("unauthenticated")
	// ErrPermissionDenied is the guard outcome for a valid identity lacking
	// the required permission. Never conflated with ErrUnauthorized.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrEngineNotReady is returned when an Engine method is called before
	// [Builder.Build] wired its dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Access-token verification outcomes, re-exported so callers can branch with
// errors.Is without importing the jwt sub-package.
var (
	ErrTokenExpired   = jwt.ErrExpired
	ErrTokenSignature = jwt.ErrBadSignature
	ErrTokenMalformed = jwt.ErrMalformed
)

// Role registry outcomes, re-exported from the permission sub-package.
var (
	ErrRoleNotFound = permission.ErrRoleNotFound
	ErrRoleExists   = permission.ErrRoleExists
)
