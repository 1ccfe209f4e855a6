// Package otp implements ephemeral, TTL-bounded, single-use numeric passcode
// issuance and validation keyed by an identifier.
//
// A [Store] holds at most one live entry per identifier: issuing a new code
// silently replaces any prior one. Validation never consumes an entry on
// success; the caller removes it explicitly to enforce single use. Two
// implementations are provided: [MemoryStore], a mutex-guarded expiring map
// for single-process deployments, and [RedisStore] for shared deployments.
package otp
