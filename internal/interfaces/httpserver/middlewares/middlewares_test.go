package middlewares_test

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"serper-mcp/internal/domain/payment"
	"serper-mcp/internal/interfaces/httpserver/middlewares"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const paymentHeaderJSON = `{
	"x402Version": 1,
	"scheme": "exact",
	"network": "sepolia",
	"asset": "0xtoken",
	"payload": {
		"signature": "0xsig",
		"authorization": {
			"from": "0xpayer",
			"to": "0xoperator",
			"value": "10000",
			"nonce": "0x1"
		}
	}
}`

func extractSession(t *testing.T, headers map[string]string) payment.Session {
	t.Helper()

	router := gin.New()
	var sess payment.Session
	router.POST("/mcp", middlewares.ExtractPaymentContext(), func(c *gin.Context) {
		sess = payment.SessionFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	router.ServeHTTP(httptest.NewRecorder(), req)

	return sess
}

func TestExtractPaymentContext(t *testing.T) {
	validHeader := base64.StdEncoding.EncodeToString([]byte(paymentHeaderJSON))

	t.Run("bearer credential", func(t *testing.T) {
		sess := extractSession(t, map[string]string{"Authorization": "Bearer serper-key"})
		if sess.APIKey != "serper-key" {
			t.Errorf("session APIKey = %q, want serper-key", sess.APIKey)
		}
	})

	t.Run("raw credential without bearer prefix", func(t *testing.T) {
		sess := extractSession(t, map[string]string{"Authorization": "serper-key"})
		if sess.APIKey != "serper-key" {
			t.Errorf("session APIKey = %q, want serper-key", sess.APIKey)
		}
	})

	t.Run("payment header decoded", func(t *testing.T) {
		sess := extractSession(t, map[string]string{"X-PAYMENT": validHeader})
		if sess.Payment == nil {
			t.Fatal("session Payment = nil, want decoded payload")
		}
		if sess.Payment.Network != "sepolia" {
			t.Errorf("payment network = %q, want sepolia", sess.Payment.Network)
		}
		if sess.Payment.Payload.Authorization.Value != "10000" {
			t.Errorf("payment value = %q, want 10000", sess.Payment.Payload.Authorization.Value)
		}
	})

	t.Run("malformed payment header treated as absent", func(t *testing.T) {
		sess := extractSession(t, map[string]string{"X-PAYMENT": "%%%not-base64%%%"})
		if sess.Payment != nil {
			t.Errorf("session Payment = %+v, want nil for malformed header", sess.Payment)
		}
	})

	t.Run("both headers captured", func(t *testing.T) {
		sess := extractSession(t, map[string]string{
			"Authorization": "Bearer serper-key",
			"X-PAYMENT":     validHeader,
		})
		if sess.APIKey != "serper-key" || sess.Payment == nil {
			t.Errorf("session = %+v, want both credential and payment", sess)
		}
	})

	t.Run("no headers yields zero session", func(t *testing.T) {
		sess := extractSession(t, nil)
		if sess.APIKey != "" || sess.Payment != nil {
			t.Errorf("session = %+v, want zero session", sess)
		}
	})
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(middlewares.CORS())
	router.POST("/mcp", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("preflight", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("preflight status = %d, want 204", w.Code)
		}
		allowed := w.Header().Get("Access-Control-Allow-Headers")
		if allowed == "" {
			t.Fatal("Access-Control-Allow-Headers not set")
		}
		for _, h := range []string{"Authorization", "X-Payment"} {
			if !headerListContains(allowed, h) {
				t.Errorf("Access-Control-Allow-Headers does not include %s: %s", h, allowed)
			}
		}
	})
}

func headerListContains(list, header string) bool {
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == header {
			return true
		}
	}
	return false
}
