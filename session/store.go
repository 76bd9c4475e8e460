package session

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when no record exists for the session id.
var ErrSessionNotFound = errors.New("refresh session not found")

// ErrSessionExpired is returned when the record exists but is past its
// stored expiry.
var ErrSessionExpired = errors.New("refresh session expired")

// ErrRefreshMismatch is returned when the presented secret hash does not
// match the stored one. This is the replay-detection signal: the secret was
// already rotated away.
var ErrRefreshMismatch = errors.New("refresh hash mismatch")

// ErrSessionCorrupt is returned when a stored record cannot be decoded.
var ErrSessionCorrupt = errors.New("refresh session corrupt")

const (
	rotateStatusNotFound int64 = 0
	rotateStatusExpired  int64 = 1
	rotateStatusMismatch int64 = 2
	rotateStatusRotated  int64 = 3
)

const rotateScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return {0}
end
local expires = tonumber(redis.call("HGET", KEYS[1], "expires_at") or "0")
local now = tonumber(ARGV[3])
if expires > 0 and now >= expires then
  redis.call("DEL", KEYS[1])
  return {1}
end
local current = redis.call("HGET", KEYS[1], "refresh_hash")
if current ~= ARGV[1] then
  return {2}
end
redis.call("HSET", KEYS[1], "refresh_hash", ARGV[2])
local gen = redis.call("HINCRBY", KEYS[1], "generation", 1)
return {3, gen}
`

var rotateLua = redis.NewScript(rotateScript)

const deleteScript = `
local uid = redis.call("HGET", KEYS[1], "user_id")
local existed = redis.call("DEL", KEYS[1])
if uid then
  redis.call("SREM", ARGV[1] .. uid, ARGV[2])
end
return existed
`

var deleteLua = redis.NewScript(deleteScript)

const deleteAllScript = `
local sids = redis.call("SMEMBERS", KEYS[1])
local removed = 0
for _, sid in ipairs(sids) do
  removed = removed + redis.call("DEL", ARGV[1] .. sid)
end
redis.call("DEL", KEYS[1])
return removed
`

var deleteAllLua = redis.NewScript(deleteAllScript)

// Store persists refresh sessions in Redis. It is the only shared mutable
// state in the authentication core.
type Store struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewStore creates a Store on the given client. prefix namespaces all keys;
// now may be nil to use the wall clock.
func NewStore(client redis.UniversalClient, prefix string, now func() time.Time) *Store {
	if prefix == "" {
		prefix = "sa"
	}
	if now == nil {
		now = time.Now
	}
	return &Store{client: client, prefix: prefix, now: now}
}

// Save writes a new session record and indexes it under its user. The record
// carries both a stored expiry (checked in Lua) and a Redis TTL so abandoned
// lineages vanish on their own.
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	if sess == nil || sess.SessionID == "" || sess.UserID == "" {
		return errors.New("incomplete session")
	}
	if ttl <= 0 {
		return errors.New("non-positive session ttl")
	}

	key := s.sessKey(sess.SessionID)
	index := s.userKey(sess.UserID)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"user_id":      sess.UserID,
		"role":         sess.Role,
		"refresh_hash": hex.EncodeToString(sess.RefreshHash[:]),
		"generation":   sess.Generation,
		"created_at":   sess.CreatedAt,
		"expires_at":   sess.ExpiresAt,
	})
	pipe.Expire(ctx, key, ttl)
	pipe.SAdd(ctx, index, sess.SessionID)
	pipe.Expire(ctx, index, ttl)

	_, err := pipe.Exec(ctx)
	return err
}

// Get loads a session record, enforcing the stored expiry lazily.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	fields, err := s.client.HGetAll(ctx, s.sessKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrSessionNotFound
	}

	sess, err := decodeFields(sessionID, fields)
	if err != nil {
		return nil, err
	}
	if sess.ExpiresAt > 0 && s.now().Unix() >= sess.ExpiresAt {
		return nil, ErrSessionExpired
	}

	return sess, nil
}

// Rotate redeems the refresh secret identified by currentHash and installs
// nextHash in its place, all inside one script execution. At most one
// concurrent caller per session succeeds; the rest observe
// [ErrRefreshMismatch]. On success the updated session is returned.
func (s *Store) Rotate(ctx context.Context, sessionID string, currentHash, nextHash [32]byte) (*Session, error) {
	raw, err := rotateLua.Run(ctx, s.client,
		[]string{s.sessKey(sessionID)},
		hex.EncodeToString(currentHash[:]),
		hex.EncodeToString(nextHash[:]),
		s.now().Unix(),
	).Result()
	if err != nil {
		return nil, err
	}

	reply, ok := raw.([]interface{})
	if !ok || len(reply) == 0 {
		return nil, fmt.Errorf("unexpected rotate reply: %T", raw)
	}
	status, ok := reply[0].(int64)
	if !ok {
		return nil, fmt.Errorf("unexpected rotate status: %T", reply[0])
	}

	switch status {
	case rotateStatusNotFound:
		return nil, ErrSessionNotFound
	case rotateStatusExpired:
		return nil, ErrSessionExpired
	case rotateStatusMismatch:
		return nil, ErrRefreshMismatch
	case rotateStatusRotated:
		return s.Get(ctx, sessionID)
	default:
		return nil, fmt.Errorf("unknown rotate status %d", status)
	}
}

// Delete removes one session record and its index entry. Deleting an already
// absent session is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return deleteLua.Run(ctx, s.client,
		[]string{s.sessKey(sessionID)},
		s.userKey(""),
		sessionID,
	).Err()
}

// DeleteAllForUser invalidates every session lineage of a user: logout,
// administrative deactivation, and the replay fail-safe all land here.
// Returns the number of records removed.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	raw, err := deleteAllLua.Run(ctx, s.client,
		[]string{s.userKey(userID)},
		s.prefix+":sess:",
	).Result()
	if err != nil {
		return 0, err
	}

	removed, ok := raw.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected delete-all reply: %T", raw)
	}
	return removed, nil
}

func (s *Store) sessKey(sessionID string) string {
	return s.prefix + ":sess:" + sessionID
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":usr:" + userID
}

func decodeFields(sessionID string, fields map[string]string) (*Session, error) {
	hashHex, ok := fields["refresh_hash"]
	if !ok {
		return nil, ErrSessionCorrupt
	}
	hashBytes, err := hex.DecodeString(hashHex)
	if err != nil || len(hashBytes) != 32 {
		return nil, ErrSessionCorrupt
	}

	sess := &Session{
		SessionID: sessionID,
		UserID:    fields["user_id"],
		Role:      fields["role"],
	}
	copy(sess.RefreshHash[:], hashBytes)

	if sess.UserID == "" {
		return nil, ErrSessionCorrupt
	}

	if sess.Generation, err = strconv.ParseInt(fields["generation"], 10, 64); err != nil {
		return nil, ErrSessionCorrupt
	}
	if sess.CreatedAt, err = strconv.ParseInt(fields["created_at"], 10, 64); err != nil {
		return nil, ErrSessionCorrupt
	}
	if sess.ExpiresAt, err = strconv.ParseInt(fields["expires_at"], 10, 64); err != nil {
		return nil, ErrSessionCorrupt
	}

	return sess, nil
}
