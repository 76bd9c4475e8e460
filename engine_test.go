package socialauth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nexfeed/socialauth/password"
	"github.com/nexfeed/socialauth/permission"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

type mockUserProvider struct {
	mu      sync.Mutex
	users   map[string]*UserRecord
	byIdent map[string]string
}

func newMockUserProvider() *mockUserProvider {
	return &mockUserProvider{
		users:   map[string]*UserRecord{},
		byIdent: map[string]string{},
	}
}

func (m *mockUserProvider) FindByIdentifier(_ context.Context, identifier string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byIdent[identifier]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *m.users[id]
	return &cp, nil
}

func (m *mockUserProvider) FindByID(_ context.Context, id string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *mockUserProvider) Create(_ context.Context, in CreateUserInput) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byIdent[in.Username]; taken {
		return nil, ErrAccountExists
	}
	if _, taken := m.byIdent[in.Email]; taken {
		return nil, ErrAccountExists
	}

	rec := &UserRecord{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		Active:       true,
	}
	m.users[rec.ID] = rec
	m.byIdent[rec.Username] = rec.ID
	m.byIdent[rec.Email] = rec.ID

	return rec, nil
}

func (m *mockUserProvider) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	rec.PasswordHash = hash
	return nil
}

func (m *mockUserProvider) setActive(id string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.users[id]; ok {
		rec.Active = active
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = []byte("unit-test-secret")
	// Smallest parameters the hasher accepts, to keep the suite fast.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.SaltLength = 16
	cfg.Password.KeyLength = 16
	return cfg
}

type engineHarness struct {
	engine   *Engine
	provider *mockUserProvider
	clock    *testClock
	redis    *miniredis.Miniredis
	sink     *ChannelAuditSink
}

func newTestEngine(t *testing.T, mutate func(*Config)) *engineHarness {
	t.Helper()

	mr, rdb := newTestRedis(t)
	clock := newTestClock()
	provider := newMockUserProvider()
	sink := NewChannelAuditSink(64)

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(provider).
		WithAuditSink(sink).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return &engineHarness{engine: engine, provider: provider, clock: clock, redis: mr, sink: sink}
}

func registerUser(t *testing.T, h *engineHarness, username, pass string) *LoginResult {
	t.Helper()

	res, err := h.engine.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: pass,
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
	return res
}

func TestRegisterLoginValidateRoundTrip(t *testing.T) {
	h := newTestEngine(t, nil)
	ctx := context.Background()

	reg := registerUser(t, h, "Alice", "Str0ngpass")
	if reg.Username != "alice" {
		t.Fatalf("username not lowercased: %s", reg.Username)
	}
	if reg.Role != "user" {
		t.Fatalf("expected default role, got %s", reg.Role)
	}
	if reg.AccessToken == "" || reg.RefreshToken == "" {
		t.Fatal("registration must log the account in")
	}

	login, err := h.engine.Login(ctx, "alice", "Str0ngpass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.UserID != reg.UserID {
		t.Fatalf("login user mismatch: %s vs %s", login.UserID, reg.UserID)
	}

	auth, err := h.engine.Validate(ctx, login.AccessToken)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if auth.UserID != reg.UserID || auth.Role != "user" {
		t.Fatalf("unexpected auth result: %+v", auth)
	}
	if len(auth.Permissions) == 0 {
		t.Fatal("expected resolved permissions for the user role")
	}
}

func TestLoginByEmail(t *testing.T) {
	h := newTestEngine(t, nil)

	reg := registerUser(t, h, "alice", "Str0ngpass")

	login, err := h.engine.Login(context.Background(), "ALICE@example.com", "Str0ngpass")
	if err != nil {
		t.Fatalf("Login by email: %v", err)
	}
	if login.UserID != reg.UserID {
		t.Fatal("email login resolved a different account")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	h := newTestEngine(t, nil)
	ctx := context.Background()

	registerUser(t, h, "alice", "Str0ngpass")

	_, unknownErr := h.engine.Login(ctx, "nobody", "Str0ngpass")
	_, wrongErr := h.engine.Login(ctx, "alice", "Wr0ngpass")

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("unknown identifier: %v", unknownErr)
	}
	if !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatal("error text must not reveal which part failed")
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	h := newTestEngine(t, nil)

	reg := registerUser(t, h, "alice", "Str0ngpass")
	h.provider.setActive(reg.UserID, false)

	_, err := h.engine.Login(context.Background(), "alice", "Str0ngpass")
	if !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestRegisterPasswordPolicy(t *testing.T) {
	h := newTestEngine(t, nil)
	ctx := context.Background()

	cases := []string{"Sh0rt", "nodigitshere", "nouppercase1"}
	for _, pass := range cases {
		_, err := h.engine.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: pass})
		if !errors.Is(err, ErrPasswordPolicy) {
			t.Fatalf("password %q: expected ErrPasswordPolicy, got %v", pass, err)
		}
	}
}

func TestRegisterDuplicate(t *testing.T) {
	h := newTestEngine(t, nil)
	ctx := context.Background()

	registerUser(t, h, "alice", "Str0ngpass")

	_, err := h.engine.Register(ctx, RegisterInput{Username: "ALICE", Email: "other@example.com", Password: "Str0ngpass"})
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	h := newTestEngine(t, nil)
	ctx := context.Background()

	reg := registerUser(t, h, "alice", "Str0ngpass")

	first, err := h.engine.Refresh(ctx, reg.RefreshToken)
	if err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	if first.RefreshToken == reg.RefreshToken {
		t.Fatal("rotation must mint a new refresh token")
	}

	// Rotation only retires the refresh token; the access token issued
	// alongside it stays valid until its own expiry.
	if _, err := h.engine.Validate(ctx, reg.AccessToken); err != nil {
		t.Fatalf("pre-rotation access token should verify until expiry: %v", err)
	}

	second, err := h.engine.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if second.UserID != reg.UserID {
		t.Fatal("chain changed subject")
	}

	if _, err := h.engine.Validate(ctx, second.AccessToken); err != nil {
		t.Fatalf("Validate rotated access token: %v", err)
	}
}

func TestRefreshReplayRevokesLineage(t *testing.T) {
	h := newTestEngine(t, nil)
	ctx := context.Background()

	reg := registerUser(t, h, "alice", "Str0ngpass")
	other, err := h.engine.Login(ctx, "alice", "Str0ngpass")
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}

	rotated, err := h.engine.Refresh(ctx, reg.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// Replaying the superseded token must be reported as reuse.
	if _, err := h.engine.Refresh(ctx, reg.RefreshToken); !errors.Is(err, ErrRefreshReuse) {
		t.Fatalf("expected ErrRefreshReuse, got %v", err)
	}

	// The fail-safe revokes the whole lineage, not just the replayed chain.
	if _, err := h.engine.Refresh(ctx, rotated.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("rotated token should be revoked, got %v", err)
	}
	if _, err := h.engine.Refresh(ctx, other.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("sibling session should be revoked, got %v", err)
	}

	if got := h.engine.MetricsSnapshot().Counters[MetricReplayDetected]; got != 1 {
		t.Fatalf("expected 1 replay detection, got %d", got)
	}
}

func TestRefreshExpired(t *testing.T) {
	h := newTestEngine(t, nil)
	ctx := context.Background()

	reg := registerUser(t, h, "alice", "Str0ngpass")

	h.clock.Advance(7*24*time.Hour + time.Second)

	if _, err := h.engine.Refresh(ctx, reg.RefreshToken); !errors.Is(err, ErrRefreshExpired) {
		t.Fatalf("expected ErrRefreshExpired, got %v", err)
	}
}

func TestRefreshGarbageToken(t *testing.T) {
	h := newTestEngine(t, nil)

	for _, token := range []string{"", "not-base64!!", "dG9vc2hvcnQ"} {
		if _, err := h.engine.Refresh(context.Background(), token); !errors.Is(err, ErrRefreshInvalid) {
			t.Fatalf("token %q: expected ErrRefreshInvalid, got %v", token, err)
		}
	}
}

func TestRefreshInactiveAccount(t *testing.T) {
	h := newTestEngine(t, nil)
	ctx := context.Background()

	reg := registerUser(t, h, "alice", "Str0ngpass")
	h.provider.setActive(reg.UserID, false)

	if _, err := h.engine.Refresh(ctx, reg.RefreshToken); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}

	// Deactivation revoked the sessions, so reactivating does not resurrect
	// the old token.
	h.provider.setActive(reg.UserID, true)
	if _, err := h.engine.Refresh(ctx, reg.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid after revocation, got %v", err)
	}
}

func TestLogoutRevokesRefresh(t *testing.T) {
	h := newTestEngine(t, nil)
	ctx := context.Background()

	reg := registerUser(t, h, "alice", "Str0ngpass")

	if err := h.engine.Logout(ctx, reg.AccessToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, err := h.engine.Refresh(ctx, reg.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("refresh after logout: expected ErrRefreshInvalid, got %v", err)
	}

	// Stateless access tokens stay valid until expiry. Accepted trade-off.
	if _, err := h.engine.Validate(ctx, reg.AccessToken); err != nil {
		t.Fatalf("access token should outlive logout until expiry: %v", err)
	}
}

func TestLogoutBadToken(t *testing.T) {
	h := newTestEngine(t, nil)

	if err := h.engine.Logout(context.Background(), "garbage"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAccessTokenExpiry(t *testing.T) {
	// Runs on the default configuration so the strict expiry boundary
	// holds without any leeway override.
	h := newTestEngine(t, nil)
	ctx := context.Background()

	reg := registerUser(t, h, "alice", "Str0ngpass")

	h.clock.Advance(30*time.Minute - time.Second)
	if _, err := h.engine.Validate(ctx, reg.AccessToken); err != nil {
		t.Fatalf("token should still verify inside TTL: %v", err)
	}

	h.clock.Advance(2 * time.Second)
	if _, err := h.engine.Validate(ctx, reg.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestLoginRateLimit(t *testing.T) {
	h := newTestEngine(t, func(cfg *Config) {
		cfg.RateLimit.MaxLoginAttempts = 3
	})
	ctx := context.Background()

	registerUser(t, h, "alice", "Str0ngpass")

	for i := 0; i < 3; i++ {
		if _, err := h.engine.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}

	// The budget is spent, even with the right password.
	if _, err := h.engine.Login(ctx, "alice", "Str0ngpass"); !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited, got %v", err)
	}
}

func TestLoginSuccessResetsRateBudget(t *testing.T) {
	h := newTestEngine(t, func(cfg *Config) {
		cfg.RateLimit.MaxLoginAttempts = 3
	})
	ctx := context.Background()

	registerUser(t, h, "alice", "Str0ngpass")

	for i := 0; i < 2; i++ {
		_, _ = h.engine.Login(ctx, "alice", "wrong")
	}
	if _, err := h.engine.Login(ctx, "alice", "Str0ngpass"); err != nil {
		t.Fatalf("Login within budget: %v", err)
	}

	// Budget is full again after success.
	for i := 0; i < 2; i++ {
		_, _ = h.engine.Login(ctx, "alice", "wrong")
	}
	if _, err := h.engine.Login(ctx, "alice", "Str0ngpass"); err != nil {
		t.Fatalf("Login after reset: %v", err)
	}
}

func TestPasswordUpgradeOnLogin(t *testing.T) {
	h := newTestEngine(t, func(cfg *Config) {
		cfg.Password.Memory = 16 * 1024
	})
	ctx := context.Background()

	// Seed an account whose digest carries weaker parameters than the
	// engine is configured with.
	weakHasher, err := password.NewArgon2(testConfig().Password)
	if err != nil {
		t.Fatalf("weak hasher: %v", err)
	}
	hash, err := weakHasher.Hash("Str0ngpass")
	if err != nil {
		t.Fatalf("weak hash: %v", err)
	}
	rec, err := h.provider.Create(ctx, CreateUserInput{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		Role:         "user",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if _, err := h.engine.Login(ctx, "alice", "Str0ngpass"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	stored, _ := h.provider.FindByID(ctx, rec.ID)
	if stored.PasswordHash == hash {
		t.Fatal("digest was not upgraded on login")
	}
	if got := h.engine.MetricsSnapshot().Counters[MetricPasswordUpgraded]; got != 1 {
		t.Fatalf("expected 1 upgrade, got %d", got)
	}

	// And the upgraded digest still verifies.
	if _, err := h.engine.Login(ctx, "alice", "Str0ngpass"); err != nil {
		t.Fatalf("Login after upgrade: %v", err)
	}
}

func TestRoleManagementGating(t *testing.T) {
	h := newTestEngine(t, nil)
	ctx := context.Background()

	user := registerUser(t, h, "alice", "Str0ngpass")

	newRole := permission.Role{Name: "editor", Permissions: []string{permission.PermPostCreate}}

	if err := h.engine.CreateRole(ctx, user.AccessToken, newRole); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("plain user creating role: expected ErrPermissionDenied, got %v", err)
	}
	if err := h.engine.CreateRole(ctx, "garbage-token", newRole); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("bad token: expected ErrUnauthorized, got %v", err)
	}

	admin := seedAdmin(t, h)
	if err := h.engine.CreateRole(ctx, admin.AccessToken, newRole); err != nil {
		t.Fatalf("admin creating role: %v", err)
	}
	if err := h.engine.CreateRole(ctx, admin.AccessToken, newRole); !errors.Is(err, ErrRoleExists) {
		t.Fatalf("duplicate role: expected ErrRoleExists, got %v", err)
	}

	newRole.Permissions = append(newRole.Permissions, permission.PermCommentCreate)
	if err := h.engine.UpdateRole(ctx, admin.AccessToken, newRole); err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if err := h.engine.DeleteRole(ctx, admin.AccessToken, "editor"); err != nil {
		t.Fatalf("DeleteRole: %v", err)
	}
	if err := h.engine.DeleteRole(ctx, admin.AccessToken, "editor"); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("deleting again: expected ErrRoleNotFound, got %v", err)
	}
}

// seedAdmin creates an account and force-assigns the admin role directly in
// the provider, then logs it in.
func seedAdmin(t *testing.T, h *engineHarness) *LoginResult {
	t.Helper()
	ctx := context.Background()

	reg := registerUser(t, h, "root", "Str0ngpass")
	h.provider.mu.Lock()
	h.provider.users[reg.UserID].Role = "admin"
	h.provider.mu.Unlock()

	admin, err := h.engine.Login(ctx, "root", "Str0ngpass")
	if err != nil {
		t.Fatalf("admin Login: %v", err)
	}
	return admin
}

func TestDeletedRoleDeniesInsteadOfFailing(t *testing.T) {
	h := newTestEngine(t, nil)
	ctx := context.Background()

	admin := seedAdmin(t, h)

	ghost := permission.Role{Name: "ghost", Permissions: []string{permission.PermPostCreate}}
	if err := h.engine.CreateRole(ctx, admin.AccessToken, ghost); err != nil {
		t.Fatalf("CreateRole: %v", err)
	}

	reg := registerUser(t, h, "casper", "Str0ngpass")
	h.provider.mu.Lock()
	h.provider.users[reg.UserID].Role = "ghost"
	h.provider.mu.Unlock()

	login, err := h.engine.Login(ctx, "casper", "Str0ngpass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := h.engine.DeleteRole(ctx, admin.AccessToken, "ghost"); err != nil {
		t.Fatalf("DeleteRole: %v", err)
	}

	// The token still verifies, but resolves to nothing.
	auth, err := h.engine.Validate(ctx, login.AccessToken)
	if err != nil {
		t.Fatalf("Validate after role deletion: %v", err)
	}
	if len(auth.Permissions) != 0 {
		t.Fatalf("deleted role should grant nothing, got %v", auth.Permissions)
	}
	if h.engine.HasPermission("ghost", permission.PermPostCreate) {
		t.Fatal("deleted role must not pass permission checks")
	}
}

func TestWildcardRole(t *testing.T) {
	h := newTestEngine(t, nil)

	if !h.engine.HasPermission("admin", permission.PermUserBan) {
		t.Fatal("wildcard role must grant any named permission")
	}
	if !h.engine.HasPermission("admin", "some:future:perm") {
		t.Fatal("wildcard role must grant unknown permissions too")
	}
	if h.engine.HasPermission("user", permission.PermUserBan) {
		t.Fatal("plain role must not inherit wildcard grants")
	}
}

func TestRevokeUser(t *testing.T) {
	h := newTestEngine(t, nil)
	ctx := context.Background()

	reg := registerUser(t, h, "alice", "Str0ngpass")
	if _, err := h.engine.Login(ctx, "alice", "Str0ngpass"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	n, err := h.engine.RevokeUser(ctx, reg.UserID)
	if err != nil {
		t.Fatalf("RevokeUser: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 revoked sessions, got %d", n)
	}

	if _, err := h.engine.Refresh(ctx, reg.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid after revocation, got %v", err)
	}
}

func TestBuildMissingSigningKeyFails(t *testing.T) {
	_, rdb := newTestRedis(t)

	cfg := testConfig()
	cfg.JWT.PrivateKey = nil

	_, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(newMockUserProvider()).
		Build()
	if err == nil {
		t.Fatal("missing signing key must fail Build")
	}
}

func TestBuildUnknownDefaultRoleFails(t *testing.T) {
	_, rdb := newTestRedis(t)

	cfg := testConfig()
	cfg.DefaultRole = "nonexistent"

	_, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(newMockUserProvider()).
		Build()
	if err == nil {
		t.Fatal("unknown default role must fail Build")
	}
}
