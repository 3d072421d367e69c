package serper

import (
	"context"

	"github.com/rs/zerolog/log"

	"serper-mcp/internal/domain/payment"
)

// Client defines the upstream Serper API operations required by the domain
// layer. The credential is chosen per call by the service.
type Client interface {
	Post(ctx context.Context, endpoint Endpoint, apiKey string, body map[string]any) (map[string]any, error)
}

// Service orchestrates the dual-mode authorization flow for every tool
// invocation: a caller credential short-circuits the payment gate; otherwise
// a validated payment unlocks the operator's internal credential. Exactly
// one of the two outcomes authorizes the upstream call.
type Service struct {
	client      Client
	gate        payment.Authorizer
	operatorKey string
}

// NewService creates the Serper domain service.
func NewService(client Client, gate payment.Authorizer, operatorKey string) *Service {
	return &Service{
		client:      client,
		gate:        gate,
		operatorKey: operatorKey,
	}
}

// Execute authorizes and performs one upstream call. Payment-gate
// rejections and upstream failures come back as typed platform errors for
// the dispatch surface to shape; nothing is raised past this boundary raw.
func (s *Service) Execute(ctx context.Context, endpoint Endpoint, req SearchRequest, pol payment.Policy) (*Outcome, error) {
	sess := payment.SessionFromContext(ctx)

	if key, ok := payment.ResolveCredential(sess); ok {
		body, err := s.client.Post(ctx, endpoint, key, req.Body())
		if err != nil {
			return nil, err
		}
		return &Outcome{Mode: ModeCredential, Body: body}, nil
	}

	if err := s.gate.Evaluate(ctx, sess, pol, string(endpoint)); err != nil {
		return nil, err
	}

	log.Debug().
		Str("endpoint", string(endpoint)).
		Msg("payment validated, using operator credential")

	body, err := s.client.Post(ctx, endpoint, s.operatorKey, req.Body())
	if err != nil {
		return nil, err
	}
	return &Outcome{Mode: ModePaid, Body: body}, nil
}
