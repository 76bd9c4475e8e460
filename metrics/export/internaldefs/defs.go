package internaldefs

import (
	socialauth "github.com/nexfeed/socialauth"
)

// CounterDef maps one engine counter to its exported metric name.
type CounterDef struct {
	ID   socialauth.MetricID
	Name string
	Help string
}

// HistogramDef maps one engine histogram to its exported metric name.
type HistogramDef struct {
	ID   socialauth.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: socialauth.MetricRegisterSuccess, Name: "socialauth_register_success_total", Help: "Successful account registrations."},
	{ID: socialauth.MetricRegisterDuplicate, Name: "socialauth_register_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: socialauth.MetricRegisterRejected, Name: "socialauth_register_rejected_total", Help: "Registrations rejected by validation or password policy."},
	{ID: socialauth.MetricLoginSuccess, Name: "socialauth_login_success_total", Help: "Successful login attempts."},
	{ID: socialauth.MetricLoginFailure, Name: "socialauth_login_failure_total", Help: "Failed login attempts."},
	{ID: socialauth.MetricLoginRateLimited, Name: "socialauth_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: socialauth.MetricRefreshSuccess, Name: "socialauth_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: socialauth.MetricRefreshFailure, Name: "socialauth_refresh_failure_total", Help: "Failed refresh attempts."},
	{ID: socialauth.MetricRefreshRateLimited, Name: "socialauth_refresh_rate_limited_total", Help: "Rate-limited refresh attempts."},
	{ID: socialauth.MetricReplayDetected, Name: "socialauth_replay_detected_total", Help: "Detected refresh token replays."},
	{ID: socialauth.MetricSessionCreated, Name: "socialauth_session_created_total", Help: "Created refresh sessions."},
	{ID: socialauth.MetricSessionRevoked, Name: "socialauth_session_revoked_total", Help: "Bulk session revocations."},
	{ID: socialauth.MetricLogout, Name: "socialauth_logout_total", Help: "Logout operations."},
	{ID: socialauth.MetricValidateSuccess, Name: "socialauth_validate_success_total", Help: "Successful access token validations."},
	{ID: socialauth.MetricValidateFailure, Name: "socialauth_validate_failure_total", Help: "Failed access token validations."},
	{ID: socialauth.MetricPasswordUpgraded, Name: "socialauth_password_upgraded_total", Help: "Password digests transparently re-hashed on login."},
	{ID: socialauth.MetricRoleCreated, Name: "socialauth_role_created_total", Help: "Runtime role creations."},
	{ID: socialauth.MetricRoleUpdated, Name: "socialauth_role_updated_total", Help: "Runtime role updates."},
	{ID: socialauth.MetricRoleDeleted, Name: "socialauth_role_deleted_total", Help: "Runtime role deletions."},
}

var HistogramDefs = []HistogramDef{
	{ID: socialauth.MetricValidateLatency, Name: "socialauth_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, matching the
// engine's fixed millisecond buckets.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket for backends without native
// histogram types.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form
// histogram consumers expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
