// Package security generates random credentials for operators.
package security

import (
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	secretKeyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"
	SecretKeyLength   = 48
	maxAlphabetLength = 256
)

var (
	errNegativeLength = errors.New("length must be non-negative")
	errEmptyAlphabet  = errors.New("alphabet must not be empty")
	errLongAlphabet   = errors.New("alphabet must have at most 256 characters")
)

// RandomString draws length characters uniformly from alphabet using crypto/rand.
// Bytes at or above the largest multiple of len(alphabet) are rejected to avoid modulo bias.
func RandomString(length int, alphabet string) (string, error) {
	switch {
	case length < 0:
		return "", errNegativeLength
	case length == 0:
		return "", nil
	case len(alphabet) == 0:
		return "", errEmptyAlphabet
	case len(alphabet) > maxAlphabetLength:
		return "", errLongAlphabet
	}

	size := len(alphabet)
	ceiling := maxAlphabetLength - maxAlphabetLength%size
	out := make([]byte, 0, length)
	buffer := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buffer); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buffer {
			if int(b) >= ceiling {
				continue
			}
			out = append(out, alphabet[int(b)%size])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// NewSecretKey returns a value suitable for SECRET_KEY.
func NewSecretKey() (string, error) {
	return RandomString(SecretKeyLength, secretKeyAlphabet)
}
