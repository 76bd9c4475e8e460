// Package password provides Argon2id hashing with PHC-formatted digests and
// the registration password policy.
//
// # Digest format
//
// Digests use the PHC string format:
//
//	$argon2id$v=19$m=<KB>,t=<passes>,p=<lanes>$<b64 salt>$<b64 hash>
//
// Each call to [Argon2.Hash] draws a fresh random salt, so hashing the same
// plaintext twice yields different digests; [Argon2.Verify] accepts both.
//
// # Architecture boundaries
//
// This package never logs, returns, or retains plaintext passwords. It has no
// I/O beyond crypto/rand.
//
// # What this package must NOT do
//
//   - Import any other socialauth package.
//   - Treat a malformed digest as an error: Verify reports it as a non-match.
package password
