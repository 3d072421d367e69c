package payment

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"serper-mcp/utils/platformerrors"
)

// ResolveCredential returns the caller-supplied bearer credential from the
// session, if present and non-empty. Absence is a valid outcome, not an
// error: it routes the request into the payment path.
func ResolveCredential(sess Session) (string, bool) {
	key := strings.TrimSpace(sess.APIKey)
	return key, key != ""
}

// Verifier is the external cryptographic/on-chain predicate the gate must
// invoke before accepting a payment. Implemented by the facilitator client.
type Verifier interface {
	Verify(ctx context.Context, payload *Payload, requirements Requirements) error
}

// Authorizer decides whether a request without a caller credential may use
// the operator's internal credential.
type Authorizer interface {
	Evaluate(ctx context.Context, sess Session, pol Policy, resource string) error
}

// Gate evaluates a payment payload against an endpoint's payment policy.
// It holds no mutable state and is safe for concurrent use.
type Gate struct {
	verifier Verifier
}

var _ Authorizer = (*Gate)(nil)

// NewGate creates a payment gate backed by the given verification predicate.
func NewGate(verifier Verifier) *Gate {
	return &Gate{verifier: verifier}
}

// Evaluate returns nil when the session's payment payload satisfies the
// policy and passes external verification. Every rejection is a typed
// payment error; the caller renders it as a payment-required response.
// The token, network and amount comparisons always run; only the external
// verification step can be short-circuited by a testing-mode verifier.
func (g *Gate) Evaluate(ctx context.Context, sess Session, pol Policy, resource string) error {
	payload := sess.Payment
	if payload == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypePaymentRequired,
			"no caller credential and no payment payload", nil,
			"0f6a2c4e-90d1-4f5b-8f33-6be2a1c7d458")
	}

	if payload.Scheme != SchemeExact {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypePaymentMismatch,
			"unsupported payment scheme", nil,
			"c1d9b7aa-53f2-4f0e-9a51-93a0f41f7a02",
			map[string]any{"scheme": payload.Scheme})
	}

	// Token and network are exact, case-sensitive identifier matches.
	if payload.Asset != pol.Asset {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypePaymentMismatch,
			"payment token does not match endpoint policy", nil,
			"8d4f0b6c-7e11-4d2a-b7c3-f52a9d0e6b31",
			map[string]any{"asset": payload.Asset, "required": pol.Asset})
	}
	if payload.Network != pol.Network {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypePaymentMismatch,
			"payment network does not match endpoint policy", nil,
			"2b9e61d7-4c3a-48f9-a0d5-e87b13c6f920",
			map[string]any{"network": payload.Network, "required": pol.Network})
	}

	// Exact integer comparison in atomic units. Never floats.
	value, err := payload.Value()
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypePaymentMismatch,
			"payment authorization value is not a valid integer", err,
			"a7c52e19-0d84-4b6f-9e12-347fb8d0c165")
	}
	if value.Cmp(pol.Amount) < 0 {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypePaymentMismatch,
			"payment authorization value below required amount", nil,
			"5e38f2ab-c691-4da7-8b04-1f62d97e0c43",
			map[string]any{"value": value.String(), "required": pol.Amount.String()})
	}

	if err := g.verifier.Verify(ctx, payload, pol.Requirements(resource, "")); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypePaymentVerification,
			"payment verification rejected by facilitator", err,
			"e90c47d1-6b2f-4a83-bd59-08a3f14e7c26")
	}

	log.Debug().
		Str("resource", resource).
		Str("payer", payload.Payload.Authorization.From).
		Str("value", payload.Payload.Authorization.Value).
		Msg("payment accepted")

	return nil
}
