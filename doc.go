// Package socialauth is the authentication and authorization core of a
// social-media backend: signed JWT access tokens, rotating opaque refresh
// tokens tracked in Redis, and role-based access control over permission
// strings.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// socialauth is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (LoginResult, AuthResult, AuditEvent, MetricsSnapshot).
// User-profile storage is an external collaborator reached only through the
// [UserProvider] interface; request routing and HTTP parsing stay outside,
// with package middleware as the bridge.
//
// # Token model
//
// Access tokens are short-lived, stateless, and verified purely from the
// signature and clock, with no Redis round-trip. Refresh tokens are opaque,
// single-use, server-tracked values: redeeming one atomically rotates it, and
// redeeming an already-used value is treated as theft and revokes the user's
// entire session lineage. Logout deletes refresh state only; an already
// issued access token stays usable until its own expiry, a deliberate
// trade-off bounded by the access TTL.
//
// # What this package must NOT do
//
//   - Expose Redis clients, store internals, or token encoding details in its
//     public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Log, return, or persist plaintext passwords.
package socialauth
