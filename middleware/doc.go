// Package middleware exposes HTTP adapters for socialauth.Engine
// authorization.
//
// # Guards
//
//   - [Guard] — authentication plus an optional permission requirement.
//   - [RequireAuth] — authentication only.
//
// Each guard reads the Authorization header, calls Engine.Validate, and
// injects the verified identity into the request context. An unverifiable
// token is 401; a verified identity missing a required permission is 403.
// The two are never conflated.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis.
//   - Grant anything the Engine's role registry does not.
package middleware
