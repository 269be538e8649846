// Package webhooks receives Shopify webhook deliveries, authenticates them,
// and hands the decoded events to the durable orchestrator.
package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

var (
	// ErrSecretNotConfigured means no shared secret was provided; every
	// delivery must be rejected rather than accepted open.
	ErrSecretNotConfigured = errors.New("webhook secret not configured")
	// ErrMissingSignature means the delivery carried no signature header.
	ErrMissingSignature = errors.New("webhook signature missing")
	// ErrInvalidSignature means the signature did not match the body.
	ErrInvalidSignature = errors.New("webhook signature mismatch")
)

// Authenticator verifies Shopify webhook signatures: HMAC-SHA256 over the raw
// request body, base64 encoded, compared in constant time.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator builds an authenticator from the shared app secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Verify checks the signature against the raw body. Verification happens
// before any parsing; callers must not act on an unverified body.
func (a *Authenticator) Verify(body []byte, signature string) error {
	if a == nil || len(a.secret) == 0 {
		return ErrSecretNotConfigured
	}
	if strings.TrimSpace(signature) == "" {
		return ErrMissingSignature
	}
	mac := hmac.New(sha256.New, a.secret)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
