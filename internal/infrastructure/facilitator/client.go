package facilitator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"serper-mcp/internal/domain/payment"
)

// VerifyRequest is the payload sent to the facilitator to verify a payment
// without executing it.
type VerifyRequest struct {
	X402Version         int                  `json:"x402Version"`
	PaymentPayload      payment.Payload      `json:"paymentPayload"`
	PaymentRequirements payment.Requirements `json:"paymentRequirements"`
}

// VerifyResponse is the facilitator's verification result.
type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}

// SettleResponse is the facilitator's settlement result.
type SettleResponse struct {
	Success   bool   `json:"success"`
	TxHash    string `json:"txHash,omitempty"`
	NetworkID string `json:"networkId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Client talks to the external payment facilitator. It owns the
// cryptographic/on-chain predicate the payment gate calls before accepting
// a payment, and performs settlement attestation after a paid call.
// In testing mode both steps are bypassed; the gate's policy comparisons
// still run in the domain layer.
type Client struct {
	httpClient  *resty.Client
	baseURL     string
	apiKey      string
	testingMode bool
}

var _ payment.Verifier = (*Client)(nil)

// NewClient creates a facilitator client.
func NewClient(baseURL, apiKey string, testingMode bool) *Client {
	httpClient := resty.New().
		SetHeader("User-Agent", "Serper-MCP/1.0").
		SetTimeout(30 * time.Second)

	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		testingMode: testingMode,
	}
}

// Verify asks the facilitator whether the payment payload is
// cryptographically valid and settleable against the requirements.
func (c *Client) Verify(ctx context.Context, payload *payment.Payload, requirements payment.Requirements) error {
	if c.testingMode {
		log.Debug().Str("resource", requirements.Resource).Msg("testing mode, facilitator verification bypassed")
		return nil
	}

	req := VerifyRequest{
		X402Version:         payment.ProtocolVersion,
		PaymentPayload:      *payload,
		PaymentRequirements: requirements,
	}

	var result VerifyResponse
	resp, err := c.request(ctx).
		SetBody(req).
		SetResult(&result).
		Post(c.baseURL + "/verify")

	if err != nil {
		return fmt.Errorf("failed to reach facilitator: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("facilitator verify error (status %d): %s", resp.StatusCode(), resp.String())
	}
	if !result.IsValid {
		return fmt.Errorf("payment invalid: %s", result.InvalidReason)
	}

	return nil
}

// Settle asks the facilitator to execute the verified payment on-chain.
// Called by the dispatch surface after a successful paid call, never by the
// payment gate itself.
func (c *Client) Settle(ctx context.Context, payload *payment.Payload, requirements payment.Requirements) (*SettleResponse, error) {
	if c.testingMode {
		log.Debug().Str("resource", requirements.Resource).Msg("testing mode, settlement skipped")
		return &SettleResponse{Success: true, NetworkID: requirements.Network}, nil
	}

	req := VerifyRequest{
		X402Version:         payment.ProtocolVersion,
		PaymentPayload:      *payload,
		PaymentRequirements: requirements,
	}

	var result SettleResponse
	resp, err := c.request(ctx).
		SetBody(req).
		SetResult(&result).
		Post(c.baseURL + "/settle")

	if err != nil {
		return nil, fmt.Errorf("failed to reach facilitator: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("facilitator settle error (status %d): %s", resp.StatusCode(), resp.String())
	}
	if !result.Success {
		return nil, fmt.Errorf("settlement failed: %s", result.Error)
	}

	return &result, nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
	if c.apiKey != "" {
		req.SetHeader("Authorization", "Bearer "+c.apiKey)
	}
	return req
}
