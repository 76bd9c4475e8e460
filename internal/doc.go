// Package internal contains helper utilities that are intentionally private
// to socialauth: session id generation and the opaque refresh-token codec.
//
// # Refresh token shape
//
// An opaque refresh token is base64url(sessionID || secret): 16 random bytes
// of session id followed by 32 random bytes of secret. Only the sha256 of the
// secret is ever persisted; the plaintext secret exists in the token handed
// to the client and nowhere else.
//
// # What this package must NOT do
//
//   - Export types that appear in the public socialauth API.
//   - Be imported by any package outside the socialauth module.
package internal
