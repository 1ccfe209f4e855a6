package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// AlgorithmID tags every credential produced by this codec.
	AlgorithmID = "ECC-secp256k1"

	minIterations  = 100_000
	minSaltBytes   = 8
	stretchedBytes = 64
)

var (
	// ErrEmptyPassword rejects zero-length passwords before any derivation.
	ErrEmptyPassword = errors.New("empty password")
	// ErrWeakParams rejects codec configs below the hardening floor.
	ErrWeakParams = errors.New("credential parameters below minimum")
	// ErrMalformedKey is returned by the signing primitives for undecodable
	// key or signature input.
	ErrMalformedKey = errors.New("malformed key or signature encoding")
)

// Config holds the codec cost parameters.
type Config struct {
	// Iterations is the PBKDF2 round count, minimum 100000.
	Iterations int
	// SaltBytes is the random salt length in bytes before hex encoding,
	// minimum 8.
	SaltBytes int
}

// Credential is the stored four-field shape. All fields are hex strings
// except Algorithm, which is the fixed AlgorithmID tag. The four fields are
// always present together.
type Credential struct {
	Hash      string
	Salt      string
	PublicKey string
	Algorithm string
}

// Codec derives and verifies credentials. A Codec is immutable after
// construction and safe for concurrent use.
type Codec struct {
	config Config
}

// NewCodec validates the cost parameters and returns a codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Iterations < minIterations {
		return nil, ErrWeakParams
	}
	if cfg.SaltBytes < minSaltBytes {
		return nil, ErrWeakParams
	}
	return &Codec{config: cfg}, nil
}

// seed is the private-scalar preimage: SHA-256 over password then salt, in
// that order. Password bytes are used exactly as provided, no normalization.
func seed(password, salt string) [32]byte {
	h := sha256.New()
	h.Write([]byte(password))
	h.Write([]byte(salt))

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// deriveKeyPair maps (password, salt) onto a secp256k1 key pair. The seed is
// interpreted as the private scalar mod N, so the same inputs always yield
// the same pair.
func deriveKeyPair(password, salt string) (*secp256k1.PrivateKey, string) {
	s := seed(password, salt)
	priv := secp256k1.PrivKeyFromBytes(s[:])
	return priv, hex.EncodeToString(priv.PubKey().SerializeCompressed())
}

func (c *Codec) stretch(password, salt string) []byte {
	return pbkdf2.Key([]byte(password), []byte(salt), c.config.Iterations, stretchedBytes, sha512.New)
}

// combined folds the public key and the stretched hash into the stored
// digest: SHA-256 over the hex public key bytes followed by the raw
// stretched output.
func combined(publicKeyHex string, stretched []byte) string {
	h := sha256.New()
	h.Write([]byte(publicKeyHex))
	h.Write(stretched)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash derives a credential with a fresh random salt.
func (c *Codec) Hash(password string) (Credential, error) {
	if password == "" {
		return Credential{}, ErrEmptyPassword
	}

	raw := make([]byte, c.config.SaltBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return Credential{}, err
	}

	return c.HashWithSalt(password, hex.EncodeToString(raw))
}

// HashWithSalt derives a credential for an explicit salt. Repeat calls with
// the same inputs return byte-identical Hash and PublicKey fields.
func (c *Codec) HashWithSalt(password, salt string) (Credential, error) {
	if password == "" {
		return Credential{}, ErrEmptyPassword
	}
	if salt == "" {
		return Credential{}, errors.New("empty salt")
	}

	_, publicKey := deriveKeyPair(password, salt)
	stretched := c.stretch(password, salt)

	return Credential{
		Hash:      combined(publicKey, stretched),
		Salt:      salt,
		PublicKey: publicKey,
		Algorithm: AlgorithmID,
	}, nil
}

// Verify recomputes the derivation and reports whether it matches the stored
// fields. A regenerated public key that differs from storedPublicKey rejects
// before the expensive stretching step runs. Verify never fails on a
// mismatch, only reports it.
func (c *Codec) Verify(password, storedHash, salt, storedPublicKey string) bool {
	if password == "" || storedHash == "" || salt == "" || storedPublicKey == "" {
		return false
	}

	_, publicKey := deriveKeyPair(password, salt)
	if subtle.ConstantTimeCompare([]byte(publicKey), []byte(storedPublicKey)) != 1 {
		return false
	}

	stretched := c.stretch(password, salt)
	return subtle.ConstantTimeCompare([]byte(combined(publicKey, stretched)), []byte(storedHash)) == 1
}

// KeyPair exposes the deterministic derivation for callers that sign with
// password-derived keys. Returns hex private scalar and hex compressed
// public key.
func KeyPair(password, salt string) (privateKey, publicKey string) {
	priv, pub := deriveKeyPair(password, salt)
	return hex.EncodeToString(priv.Serialize()), pub
}

// SignData signs SHA-256(data) with the hex-encoded private scalar and
// returns the DER signature in hex. Signatures are randomized per RFC 6979
// nonce derivation inside the curve library; determinism is only required of
// the password path, not of signing.
func SignData(data []byte, privateKeyHex string) (string, error) {
	raw, err := hex.DecodeString(privateKeyHex)
	if err != nil || len(raw) != 32 {
		return "", ErrMalformedKey
	}

	priv := secp256k1.PrivKeyFromBytes(raw)
	digest := sha256.Sum256(data)
	sig := secpecdsa.Sign(priv, digest[:])

	return hex.EncodeToString(sig.Serialize()), nil
}

// VerifySignature checks a hex DER signature over SHA-256(data) against a
// hex compressed public key.
func VerifySignature(data []byte, signatureHex, publicKeyHex string) (bool, error) {
	rawSig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false, ErrMalformedKey
	}
	sig, err := secpecdsa.ParseDERSignature(rawSig)
	if err != nil {
		return false, ErrMalformedKey
	}

	rawPub, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false, ErrMalformedKey
	}
	pub, err := secp256k1.ParsePubKey(rawPub)
	if err != nil {
		return false, ErrMalformedKey
	}

	digest := sha256.Sum256(data)
	return sig.Verify(digest[:], pub), nil
}
