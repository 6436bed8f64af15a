// Package secret generates the random part of API tokens.
package secret

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

// Alphabet holds the characters a generated secret may contain.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// ErrBadLength is returned for a non-positive length.
var ErrBadLength = errors.New("secret length must be positive")

// readChunk bounds a single read from crypto/rand.
const readChunk = 64

// New returns a random string of length characters drawn from Alphabet.
// Bytes that would bias the modulo are discarded and redrawn.
func New(length int) (string, error) {
	if length <= 0 {
		return "", ErrBadLength
	}

	n := len(Alphabet)
	limit := 256 - 256%n // bytes >= limit are rejected

	out := make([]byte, 0, length)
	buf := make([]byte, readChunk)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Wrap(err, "failed to read random bytes")
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			out = append(out, Alphabet[int(b)%n])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
