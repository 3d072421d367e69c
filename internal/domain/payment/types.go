package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/go-playground/validator/v10"
)

// ProtocolVersion is the supported version of the payment protocol.
const ProtocolVersion = 1

// SchemeExact is the only payment scheme the gate accepts: a signed
// authorization for an exact token amount.
const SchemeExact = "exact"

var validate = validator.New()

// Authorization is the gasless transfer authorization tuple signed by the
// payer (EIP-3009 shape). Value is an atomic-unit integer carried as a
// string because uint256 does not fit native Go integers.
type Authorization struct {
	From        string `json:"from" validate:"required"`
	To          string `json:"to" validate:"required"`
	Value       string `json:"value" validate:"required"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce" validate:"required"`
}

// ExactEvidence carries the signature over the authorization tuple.
type ExactEvidence struct {
	Signature     string        `json:"signature" validate:"required"`
	Authorization Authorization `json:"authorization" validate:"required"`
}

// Payload is the caller-supplied proof of payment, decoded from the
// X-PAYMENT request header. Cryptographic validation of the signature is
// owned by the external facilitator; this package only compares the fields
// relevant to an endpoint's payment policy.
type Payload struct {
	X402Version int           `json:"x402Version"`
	Scheme      string        `json:"scheme" validate:"required"`
	Network     string        `json:"network" validate:"required"`
	Asset       string        `json:"asset" validate:"required"`
	Payload     ExactEvidence `json:"payload" validate:"required"`
}

// Value parses the authorized amount as an atomic-unit integer.
func (p *Payload) Value() (*big.Int, error) {
	raw := p.Payload.Authorization.Value
	if raw == "" {
		return nil, fmt.Errorf("authorization value is empty")
	}
	v := new(big.Int)
	if _, ok := v.SetString(raw, 10); !ok {
		return nil, fmt.Errorf("invalid authorization value %q", raw)
	}
	return v, nil
}

// DecodePayload decodes a base64-encoded JSON payment payload as sent in
// the X-PAYMENT header.
func DecodePayload(header string) (*Payload, error) {
	if header == "" {
		return nil, fmt.Errorf("empty payment header")
	}

	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, fmt.Errorf("payment header is not valid base64: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("payment header is not valid JSON: %w", err)
	}

	if err := validate.Struct(&payload); err != nil {
		return nil, fmt.Errorf("payment payload validation failed: %w", err)
	}

	return &payload, nil
}

// Session is the per-request authentication context populated by the HTTP
// middleware before any tool runs. Read-only to tool logic.
type Session struct {
	// APIKey is the caller-supplied bearer credential, if any.
	APIKey string

	// Payment is the decoded payment payload, if any.
	Payment *Payload
}

// SessionContextKey is the context key for the per-request session.
type SessionContextKey struct{}

// WithSession injects the session into the request context.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, SessionContextKey{}, sess)
}

// SessionFromContext retrieves the session populated by the middleware.
// A zero session is a valid outcome: it routes the request into the
// payment-required path.
func SessionFromContext(ctx context.Context) Session {
	if val := ctx.Value(SessionContextKey{}); val != nil {
		if sess, ok := val.(Session); ok {
			return sess
		}
	}
	return Session{}
}
