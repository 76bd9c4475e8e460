// Package session provides the Redis-backed refresh-session store.
//
// # Records
//
// One session per issued refresh token lineage, stored as a Redis hash at
// <prefix>:sess:<sid> with a per-user index set at <prefix>:usr:<uid>. The
// record carries the sha256 of the current refresh secret, never the secret
// itself, together with a generation counter that increments on every
// rotation.
//
// # Rotation atomicity
//
// [Store.Rotate] runs a single Lua script that compares the stored hash,
// checks expiry, swaps in the successor hash, and bumps the generation as one
// indivisible unit per session key. For a given refresh value at most one
// concurrent caller wins; all others observe [ErrRefreshMismatch]. No lock
// spans unrelated sessions or users.
//
// # Architecture boundaries
//
// This package owns the [Store] and [Session] model. It does not interpret
// JWT tokens, evaluate permissions, or decide revocation policy; replay
// handling belongs to the Engine.
//
// # What this package must NOT do
//
//   - Import socialauth, jwt, or permission (no upward imports).
//   - Store plaintext refresh secrets.
//   - Run background sweeps: expiry is enforced lazily at access time plus
//     Redis key TTLs.
package session
