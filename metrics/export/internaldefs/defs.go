package internaldefs

import (
	identity "github.com/inkhaven/identity"
)

// CounterDef binds an engine counter to its stable exported name.
type CounterDef struct {
	ID   identity.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its stable exported name.
type HistogramDef struct {
	ID   identity.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported engine counter. Both exporters iterate
// this slice so names stay identical across backends.
var CounterDefs = []CounterDef{
	{ID: identity.MetricRegisterSuccess, Name: "identity_register_success_total", Help: "Completed registrations."},
	{ID: identity.MetricRegisterConflict, Name: "identity_register_conflict_total", Help: "Registrations rejected on a duplicate identity field."},
	{ID: identity.MetricRegisterFailure, Name: "identity_register_failure_total", Help: "Registrations failed for any other reason."},
	{ID: identity.MetricLoginSuccess, Name: "identity_login_success_total", Help: "Successful login attempts."},
	{ID: identity.MetricLoginFailure, Name: "identity_login_failure_total", Help: "Failed login attempts."},
	{ID: identity.MetricLogout, Name: "identity_logout_total", Help: "Logout operations."},
	{ID: identity.MetricRefreshSuccess, Name: "identity_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: identity.MetricRefreshFailure, Name: "identity_refresh_failure_total", Help: "Rejected refresh attempts."},
	{ID: identity.MetricRefreshReuseDetected, Name: "identity_refresh_reuse_detected_total", Help: "Refresh attempts presenting an already rotated token."},
	{ID: identity.MetricPasswordResetRequest, Name: "identity_password_reset_request_total", Help: "Issued password reset challenges."},
	{ID: identity.MetricPasswordResetConfirmSuccess, Name: "identity_password_reset_confirm_success_total", Help: "Completed password resets."},
	{ID: identity.MetricPasswordResetConfirmFailure, Name: "identity_password_reset_confirm_failure_total", Help: "Failed password reset confirmations."},
	{ID: identity.MetricEmailVerificationSuccess, Name: "identity_email_verification_success_total", Help: "Consumed email verification tokens."},
	{ID: identity.MetricEmailVerificationFailure, Name: "identity_email_verification_failure_total", Help: "Rejected email verification tokens."},
	{ID: identity.MetricEmailVerificationResend, Name: "identity_email_verification_resend_total", Help: "Reissued email verification tokens."},
	{ID: identity.MetricStatusChanged, Name: "identity_status_changed_total", Help: "Administrative account status transitions."},
}

// HistogramDefs lists every exported engine histogram.
var HistogramDefs = []HistogramDef{
	{ID: identity.MetricValidateLatency, Name: "identity_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, Prometheus "le"
// label form. They mirror the engine's fixed bucket layout.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
