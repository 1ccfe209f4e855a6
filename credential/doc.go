// Package credential implements deterministic password hashing and
// verification, plus generic signing primitives over the same curve
// machinery.
//
// The construction is deliberately non-standard and its external contract is
// frozen: a credential is always the four fields {hash, salt, publicKey,
// algorithm}, and both hash and publicKey are reproducible from
// (password, salt) alone. A password-derived secp256k1 key pair and an
// independent PBKDF2-SHA512 stretched hash are combined into the stored
// digest, so recovering either derivation path alone is insufficient to
// reconstruct it. Note this is not a memory-hard password hash; swapping the
// internals for one requires only a new [Codec] behind the same interface.
//
// Verification is fully deterministic and never draws randomness; only Hash
// touches the system entropy source, and only when generating a salt.
package credential
