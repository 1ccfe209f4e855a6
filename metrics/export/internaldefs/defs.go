package internaldefs

import (
	authcore "github.com/veritane/authcore"
)

// CounterDef binds an engine counter to its exported metric name.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported metric name.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful password logins."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Failed password logins."},
	{ID: authcore.MetricLoginLocked, Name: "authcore_login_locked_total", Help: "Logins rejected while the account was locked."},
	{ID: authcore.MetricAccountLocked, Name: "authcore_account_locked_total", Help: "Lockout transitions."},
	{ID: authcore.MetricAccountUnlocked, Name: "authcore_account_unlocked_total", Help: "Administrative unlocks."},
	{ID: authcore.MetricOTPIssued, Name: "authcore_otp_issued_total", Help: "Issued and dispatched passcodes."},
	{ID: authcore.MetricOTPDispatchFailure, Name: "authcore_otp_dispatch_failure_total", Help: "Passcode dispatch failures."},
	{ID: authcore.MetricOTPLoginSuccess, Name: "authcore_otp_login_success_total", Help: "Completed passcode logins."},
	{ID: authcore.MetricOTPLoginFailure, Name: "authcore_otp_login_failure_total", Help: "Failed passcode logins."},
	{ID: authcore.MetricAccountCreated, Name: "authcore_account_created_total", Help: "Registrations."},
	{ID: authcore.MetricStoreFault, Name: "authcore_store_fault_total", Help: "Masked user-store faults."},
	{ID: authcore.MetricCryptoFault, Name: "authcore_crypto_fault_total", Help: "Masked cryptographic faults."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricLoginLatency, Name: "authcore_login_latency_seconds", Help: "Password login latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds.
var HistogramBounds = []string{
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"+Inf",
}

// HistogramBoundSuffix are the metric-name-safe forms of HistogramBounds.
var HistogramBoundSuffix = []string{
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"inf",
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

// CumulativeBuckets converts per-bucket counts to cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
