// Package rate provides Redis-backed fixed-window rate limiting for
// credential-guessing surfaces: login attempts per identifier and refresh
// attempts per session.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys are
// namespaced by the configured deployment prefix:
//   - <prefix>:al: — login per-identifier
//   - <prefix>:ar: — refresh per-session
//
// # What this package must NOT do
//
//   - Implement authentication policy (the Engine decides when to count).
//   - Be imported outside the socialauth module.
package rate
