package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
)

var ErrEmptySecret = errors.New("vnpay: hash secret is empty")

// Signer computes the HMAC-SHA512 signature the gateway expects over
// a canonical string. The secret is held as raw bytes and never logged.
type Signer struct {
	secret []byte
}

// NewSigner fails on an empty secret so a misconfigured service
// refuses to start instead of producing unverifiable signatures.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign returns the lowercase hex HMAC-SHA512 digest of canonical.
func (s *Signer) Sign(canonical string) string {
	mac := hmac.New(sha512.New, s.secret)
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}
