// Package jwt wraps golang-jwt/v5 into the socialauth access-token codec.
//
// # Verification contract
//
// [Manager.ParseAccess] is a pure function of the token string, the
// configured keys, and the clock. It fails with exactly one of three
// sentinels: [ErrExpired], [ErrBadSignature], or [ErrMalformed]. Callers
// branch with errors.Is.
//
// # What this package must NOT do
//
//   - Touch Redis or any other store: access-token checks are stateless.
//   - Mint refresh tokens (those are opaque values owned by internal/session).
package jwt
