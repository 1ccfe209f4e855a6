package internal

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// NewCode returns a numeric string of the given length with each digit drawn
// uniformly at random. Per-digit draws avoid modulo bias over the whole code.
func NewCode(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("invalid code digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}
