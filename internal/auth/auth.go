// Package auth signs partner API requests.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

// HMACSigner produces hex-encoded HMAC-SHA256 signatures with a shared secret.
type HMACSigner struct {
	secret []byte
}

// NewHMACSigner creates a signer for secret.
func NewHMACSigner(secret string) (*HMACSigner, error) {
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}
	return &HMACSigner{secret: []byte(secret)}, nil
}

// Sign returns the hex HMAC-SHA256 of message.
func (s *HMACSigner) Sign(message string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignNonce signs the millisecond timestamp of now and returns the nonce
// alongside its signature.
func (s *HMACSigner) SignNonce(now time.Time) (nonce, signature string) {
	nonce = strconv.FormatInt(now.UnixMilli(), 10)
	return nonce, s.Sign(nonce)
}
