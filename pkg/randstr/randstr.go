// Package randstr generates random identifiers over a lowercase alphanumeric
// alphabet, the id format used by stored token and order records.
package randstr

import (
	"crypto/rand"

	"github.com/go-faster/errors"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// New returns a random string of length n drawn from [a-z0-9], using
// rejection sampling to keep the distribution uniform.
func New(n int) (string, error) {
	if n <= 0 {
		return "", errors.Errorf("invalid length %d", n)
	}

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	// 252 is the largest multiple of len(alphabet) below 256; bytes at or
	// above it would bias the low characters.
	const max = byte(252)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Wrap(err, "read random bytes")
		}
		for _, b := range buf {
			if b >= max {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
