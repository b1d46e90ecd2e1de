// Package credential issues and checks the secrets printed on a voucher's QR code.
package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// TokenLength is the length of an encoded security token
const TokenLength = 32

// ErrMalformedPayload is returned when scanned QR content cannot be decoded
var ErrMalformedPayload = errors.New("malformed qr payload")

// RandomTokens draws security tokens from a cryptographic source
type RandomTokens struct {
	src io.Reader
}

// NewRandomTokens reads from crypto/rand
func NewRandomTokens() *RandomTokens {
	return &RandomTokens{src: rand.Reader}
}

// NewToken returns 16 random bytes hex-encoded
func (g *RandomTokens) NewToken() (string, error) {
	b := make([]byte, TokenLength/2)
	if _, err := io.ReadFull(g.src, b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ValidToken reports whether s has the shape of an issued token
func ValidToken(s string) bool {
	if len(s) != TokenLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// Match compares a presented token against the stored one in constant time
func Match(stored, presented string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
