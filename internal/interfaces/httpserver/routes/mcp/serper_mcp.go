package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"serper-mcp/internal/domain/payment"
	domainserper "serper-mcp/internal/domain/serper"
	"serper-mcp/internal/infrastructure/facilitator"
	"serper-mcp/internal/infrastructure/metrics"
	"serper-mcp/internal/interfaces/httpserver/responses"
	"serper-mcp/utils/mcpschema"
	"serper-mcp/utils/platformerrors"
)

// Fixed payment terms shared by every Serper tool. Embedded at build time;
// only the pay-to address comes from configuration.
const (
	policyAsset         = "0x3e17730bb2ca51a8D5deD7E44c003A2e95a4d822"
	policyNetwork       = "sepolia"
	policyAtomicAmount  = "10000000000000"
	policyDecimals      = 6
	policyDomainName    = "IATPWallet"
	policyDomainVersion = "1"
)

// SerperArgs defines the arguments shared by the Serper search tools.
type SerperArgs struct {
	Q           string  `json:"q" jsonschema:"required,description=Search query string"`
	GL          *string `json:"gl,omitempty" jsonschema:"description=Optional region code for results in ISO 3166-1 alpha-2 format (e.g., 'us')"`
	HL          *string `json:"hl,omitempty" jsonschema:"description=Optional language code for results in ISO 639-1 format (e.g., 'en')"`
	Location    *string `json:"location,omitempty" jsonschema:"description=Optional geographic location to localize results (e.g., 'Lagos, Nigeria')"`
	Autocorrect *bool   `json:"autocorrect,omitempty" jsonschema:"description=Whether to autocorrect spelling in the query"`
	Num         *int    `json:"num,omitempty" jsonschema:"description=Number of results to return (default: 10)"`
	Page        *int    `json:"page,omitempty" jsonschema:"description=Page number of results to return (default: 1)"`
}

// ToolSpec binds one exposed operation to its upstream endpoint and fixed
// payment policy. The registry of specs is built once at startup and
// iterated to expose the dispatch surface.
type ToolSpec struct {
	Name        string
	Description string
	Endpoint    domainserper.Endpoint
	Policy      payment.Policy
}

// ToolSpecs builds the tool registry for the given operator payment
// address.
func ToolSpecs(payTo string) ([]ToolSpec, error) {
	pol, err := payment.NewPolicy(policyAsset, policyNetwork, policyAtomicAmount, policyDecimals,
		payTo, policyDomainName, policyDomainVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to build payment policy: %w", err)
	}

	return []ToolSpec{
		{
			Name:        "serper_search",
			Description: "Perform a Google web search using Serper. Returns high-level structured SERP signals such as knowledge graph and answer boxes.",
			Endpoint:    domainserper.EndpointSearch,
			Policy:      pol,
		},
		{
			Name:        "serper_news",
			Description: "Perform a Google News search using Serper. Returns structured news article metadata.",
			Endpoint:    domainserper.EndpointNews,
			Policy:      pol,
		},
		{
			Name:        "serper_scholar",
			Description: "Perform a Google Scholar search using Serper. Returns structured academic metadata.",
			Endpoint:    domainserper.EndpointScholar,
			Policy:      pol,
		},
	}, nil
}

// Settler performs settlement attestation after a successful paid call.
type Settler interface {
	Settle(ctx context.Context, payload *payment.Payload, requirements payment.Requirements) (*facilitator.SettleResponse, error)
}

// SerperMCP handles MCP tool registration for the Serper search tools.
type SerperMCP struct {
	service *domainserper.Service
	settler Settler
	specs   []ToolSpec
}

// NewSerperMCP creates the Serper MCP handler with its tool registry.
func NewSerperMCP(service *domainserper.Service, settler Settler, specs []ToolSpec) *SerperMCP {
	return &SerperMCP{
		service: service,
		settler: settler,
		specs:   specs,
	}
}

// RegisterTools registers every tool in the registry with the MCP server.
func (s *SerperMCP) RegisterTools(server *mcp.Server) {
	inputSchema := mcpschema.ReflectToInputSchema(SerperArgs{})

	for _, spec := range s.specs {
		mcp.AddTool(server, &mcp.Tool{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: inputSchema,
		}, s.handler(spec))

		log.Info().
			Str("tool", spec.Name).
			Str("endpoint", string(spec.Endpoint)).
			Str("price", spec.Policy.Price.String()).
			Msg("Registered Serper MCP tool")
	}
}

func (s *SerperMCP) handler(spec ToolSpec) func(context.Context, *mcp.CallToolRequest, SerperArgs) (*mcp.CallToolResult, map[string]any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SerperArgs) (*mcp.CallToolResult, map[string]any, error) {
		startTime := time.Now()

		if strings.TrimSpace(input.Q) == "" {
			log.Error().Str("tool", spec.Name).Msg("missing required parameter 'q'")
			return nil, nil, fmt.Errorf("q is required")
		}

		searchReq := domainserper.SearchRequest{
			Q:           input.Q,
			GL:          input.GL,
			HL:          input.HL,
			Location:    input.Location,
			Autocorrect: input.Autocorrect,
			Num:         input.Num,
			Page:        input.Page,
		}

		outcome, err := s.service.Execute(ctx, spec.Endpoint, searchReq, spec.Policy)
		if err != nil {
			return nil, s.shapeFailure(spec, err, startTime), nil
		}

		if outcome.Mode == domainserper.ModePaid {
			s.settle(ctx, spec)
		}

		metrics.RecordPaymentDecision(spec.Name, string(outcome.Mode), "accept")
		metrics.RecordToolCall(spec.Name, "success", time.Since(startTime).Seconds())

		return nil, shapeSuccess(outcome.Body), nil
	}
}

// shapeFailure turns a typed error into the operation's structured failure
// payload. Nothing raw crosses the tool boundary.
func (s *SerperMCP) shapeFailure(spec ToolSpec, err error, startTime time.Time) map[string]any {
	if platformerrors.IsPaymentError(err) {
		log.Info().
			Str("tool", spec.Name).
			Err(err).
			Msg("payment required")
		metrics.RecordPaymentDecision(spec.Name, "none", "reject")
		metrics.RecordToolCall(spec.Name, "payment_required", time.Since(startTime).Seconds())
		return paymentRequiredPayload(spec.Policy)
	}

	log.Error().
		Str("tool", spec.Name).
		Err(err).
		Msg("upstream call failed")
	metrics.RecordToolCall(spec.Name, "error", time.Since(startTime).Seconds())
	return upstreamErrorPayload(spec.Endpoint, err)
}

// settle requests settlement attestation from the facilitator after a
// successful paid call. Best-effort: a settlement failure is logged, never
// surfaced to the caller whose request already succeeded.
func (s *SerperMCP) settle(ctx context.Context, spec ToolSpec) {
	if s.settler == nil {
		return
	}

	sess := payment.SessionFromContext(ctx)
	if sess.Payment == nil {
		return
	}

	result, err := s.settler.Settle(ctx, sess.Payment, spec.Policy.Requirements(spec.Name, spec.Description))
	if err != nil {
		log.Warn().
			Str("tool", spec.Name).
			Err(err).
			Msg("settlement attestation failed")
		return
	}

	log.Info().
		Str("tool", spec.Name).
		Str("tx_hash", result.TxHash).
		Str("network", result.NetworkID).
		Msg("payment settled")
}

// shapeSuccess wraps the upstream response in the operation's declared
// output structure.
func shapeSuccess(body map[string]any) map[string]any {
	payload := map[string]any{"status": "success"}
	for k, v := range body {
		if k == "status" {
			continue
		}
		payload[k] = v
	}
	return payload
}

// paymentRequiredPayload names the policy's terms so the caller can retry
// with correct payment.
func paymentRequiredPayload(pol payment.Policy) map[string]any {
	pr := responses.NewPaymentRequired(pol)
	return map[string]any{
		"error": pr.Error,
		"code":  pr.Code,
		"required_payment": map[string]any{
			"token":   pr.RequiredPayment.Token,
			"network": pr.RequiredPayment.Network,
			"amount":  pr.RequiredPayment.Amount,
		},
	}
}

func upstreamErrorPayload(endpoint domainserper.Endpoint, err error) map[string]any {
	kind := "upstream_error"
	switch {
	case platformerrors.IsErrorType(err, platformerrors.ErrorTypeUpstreamAuth):
		kind = "upstream_auth"
	case platformerrors.IsErrorType(err, platformerrors.ErrorTypeUpstreamExhausted):
		kind = "upstream_exhausted"
	}
	return map[string]any{
		"error":    err.Error(),
		"endpoint": string(endpoint),
		"kind":     kind,
	}
}
