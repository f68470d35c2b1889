package api

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	sealedCookieVersion = "v1"
	sealedCookieLabel   = "cronograma.sealed-cookie.v1"
)

var errInvalidSealedCookie = errors.New("invalid sealed cookie")

// secureCookieCodec encrypts cookie values with AES-GCM. The purpose is bound as
// additional data so a value sealed for one cookie cannot be replayed in another.
type secureCookieCodec struct {
	aead cipher.AEAD
}

func newSecureCookieCodec(secretKey []byte) (*secureCookieCodec, error) {
	if len(secretKey) == 0 {
		return nil, errors.New("cookie secret key is required")
	}

	key := sha256.Sum256(append([]byte(sealedCookieLabel), secretKey...))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("init cookie cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init cookie aead: %w", err)
	}
	return &secureCookieCodec{aead: aead}, nil
}

func (codec *secureCookieCodec) seal(purpose string, plaintext []byte) (string, error) {
	aad, err := purposeData(purpose)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, codec.aead.NonceSize(), codec.aead.NonceSize()+len(plaintext)+codec.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("cookie nonce: %w", err)
	}
	payload := codec.aead.Seal(nonce, nonce, plaintext, aad)
	return sealedCookieVersion + "." + base64.RawURLEncoding.EncodeToString(payload), nil
}

func (codec *secureCookieCodec) open(purpose string, value string) ([]byte, error) {
	aad, err := purposeData(purpose)
	if err != nil {
		return nil, err
	}

	version, encoded, found := strings.Cut(strings.TrimSpace(value), ".")
	if !found || version != sealedCookieVersion || encoded == "" {
		return nil, errInvalidSealedCookie
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(payload) <= codec.aead.NonceSize() {
		return nil, errInvalidSealedCookie
	}

	nonce, ciphertext := payload[:codec.aead.NonceSize()], payload[codec.aead.NonceSize():]
	plaintext, err := codec.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, errInvalidSealedCookie
	}
	return plaintext, nil
}

func purposeData(purpose string) ([]byte, error) {
	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return nil, errors.New("cookie purpose is required")
	}
	return []byte("cronograma.cookie." + purpose), nil
}
