// Package internal holds unexported coordination helpers shared by the
// authcore root package and its subpackages: uniform passcode generation and
// striped per-key mutual exclusion.
package internal
