package serper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"serper-mcp/internal/domain/serper"
	"serper-mcp/internal/infrastructure/metrics"
	"serper-mcp/utils/platformerrors"
)

// Client implements the Serper API client. The credential is supplied per
// call; which one (caller's or operator's) is decided upstream by the
// domain service.
type Client struct {
	httpClient *resty.Client
	baseURL    string
	retry      RetryConfig
}

var _ serper.Client = (*Client)(nil)

// NewClient creates a Serper API client. Each individual attempt is
// bounded by the given timeout; exceeding it counts as a retryable failure.
func NewClient(baseURL string, timeout time.Duration, retry RetryConfig) *Client {
	httpClient := resty.New().
		SetHeader("User-Agent", "Serper-MCP/1.0").
		SetTimeout(timeout)

	if retry.Classify == nil {
		retry.Classify = isRetryable
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		retry:      retry,
	}
}

// Post performs an authenticated call against an upstream endpoint with
// bounded retry. Auth failures (401/403) are surfaced immediately since
// retrying cannot change that outcome; everything else retries once, then
// becomes a typed upstream-exhausted error.
func (c *Client) Post(ctx context.Context, endpoint serper.Endpoint, apiKey string, body map[string]any) (map[string]any, error) {
	cfg := c.retry
	cfg.OnRetry = func(int) {
		metrics.RecordUpstreamRetry(string(endpoint))
	}

	result, err := WithRetry(ctx, cfg, "serper"+string(endpoint), func() (map[string]any, error) {
		return c.attempt(ctx, endpoint, apiKey, body)
	})
	if err == nil {
		return result, nil
	}

	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeUpstreamExhausted,
			fmt.Sprintf("Serper API unavailable after %d attempts", exhausted.Attempts),
			exhausted.Err,
			"47b0e9c2-81d5-4f6a-9c03-2ae6f5d18b74",
			map[string]any{"endpoint": string(endpoint)})
	}
	return nil, err
}

func (c *Client) attempt(ctx context.Context, endpoint serper.Endpoint, apiKey string, body map[string]any) (map[string]any, error) {
	start := time.Now()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-API-KEY", apiKey).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(c.baseURL + string(endpoint))

	if err != nil {
		metrics.RecordUpstreamLatency(string(endpoint), "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to query Serper API: %w", err)
	}

	status := resp.StatusCode()
	metrics.RecordUpstreamLatency(string(endpoint), strconv.Itoa(status), time.Since(start).Seconds())

	if resp.IsError() {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure,
				platformerrors.ErrorTypeUpstreamAuth,
				fmt.Sprintf("Serper API rejected credential (status %d)", status), nil,
				"d30c5f8e-2a47-49b1-8e6d-90f4c7a1b532",
				map[string]any{"endpoint": string(endpoint), "status": status})
		}
		return nil, fmt.Errorf("Serper API error (status %d): %s", status, resp.String())
	}

	var result map[string]any
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode Serper API response: %w", err)
	}

	return result, nil
}

// isRetryable treats credential rejections as final; everything else
// (network failures, timeouts, 5xx, rate limits) is worth one more try.
func isRetryable(err error) bool {
	return !platformerrors.IsErrorType(err, platformerrors.ErrorTypeUpstreamAuth)
}
