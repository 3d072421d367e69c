package middlewares

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"serper-mcp/internal/domain/payment"
	"serper-mcp/internal/infrastructure/metrics"
)

// RequestLogger logs HTTP requests
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Msg("incoming request")

		c.Next()

		if len(c.Errors) > 0 {
			for _, e := range c.Errors {
				log.Error().
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Int("status", c.Writer.Status()).
					Err(e.Err).
					Msg("request error")
			}
		}

		logEvent := log.Info()
		if c.Writer.Status() >= 400 {
			logEvent = log.Warn()
		}
		logEvent.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request completed")
	}
}

// CORS adds CORS headers
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key, X-Payment, X-Request-Id, Mcp-Session-Id, mcp-protocol-version")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-Id, Mcp-Session-Id")
		c.Writer.Header().Set("Access-Control-Max-Age", "3600")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// ExtractPaymentContext populates the per-request session from the inbound
// headers before any tool runs: the caller's bearer credential from
// Authorization and the payment payload from X-PAYMENT (base64 JSON).
// Tool logic never parses raw headers itself. A malformed payment header
// is treated as absent; the payment gate then rejects with the endpoint's
// terms so the caller can retry with a correct payload.
func ExtractPaymentContext() gin.HandlerFunc {
	return func(reqCtx *gin.Context) {
		sess := payment.Session{}

		auth := reqCtx.GetHeader("Authorization")
		if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
			sess.APIKey = strings.TrimSpace(after)
		} else {
			sess.APIKey = strings.TrimSpace(auth)
		}

		if header := reqCtx.GetHeader("X-PAYMENT"); header != "" {
			payload, err := payment.DecodePayload(header)
			if err != nil {
				log.Warn().Err(err).Msg("discarding malformed payment header")
			} else {
				sess.Payment = payload
			}
		}

		ctx := payment.WithSession(reqCtx.Request.Context(), sess)
		reqCtx.Request = reqCtx.Request.WithContext(ctx)

		reqCtx.Next()
	}
}

// MetricsRecorder records HTTP request metrics for Prometheus
func MetricsRecorder() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.Request.URL.Path
		if path == "/healthz" || path == "/readyz" || path == "/metrics" {
			return
		}

		status := strconv.Itoa(c.Writer.Status())
		metrics.RecordRequest(c.Request.Method, status)
	}
}
