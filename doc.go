// Package authcore provides an embeddable credential engine combining password
// authentication built on deterministic elliptic-curve key derivation, a
// per-account failed-attempt lockout state machine, and a one-time-passcode
// side channel for passwordless login.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// sentinel errors, and value types ([SafeUser], [SecurityState],
// MetricsSnapshot). The cryptographic codec lives in the credential
// subpackage, the passcode store in the otp subpackage, and internal
// coordination (keyed locking, code generation) under internal/.
//
// # What this package must NOT do
//
//   - Expose credential secrets (hash, salt, private key material) through
//     any value returned to a caller; only [SafeUser] crosses the boundary.
//   - Persist user records itself; storage is owned by the embedding
//     application through [UserProvider].
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//
// # Performance contract
//
// Login and VerifyOTP each perform one user-store round-trip plus one
// security-state write on the mutating paths. The key-stretching step inside
// credential verification is the dominant latency source and is not
// preemptible; callers must not impose timeouts shorter than its expected
// duration.
package authcore
