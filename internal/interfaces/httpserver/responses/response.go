package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"serper-mcp/internal/domain/payment"
	"serper-mcp/utils/platformerrors"
)

type ErrorResponse struct {
	Code          string `json:"code"` // UUID from PlatformError
	Error         string `json:"error"`
	ErrorInstance error  `json:"-"`
	RequestID     string `json:"request_id,omitempty"`
}

// RequiredPayment names the terms a caller must satisfy to retry a
// rejected paid call.
type RequiredPayment struct {
	Token   string `json:"token"`
	Network string `json:"network"`
	Amount  string `json:"amount"`
}

// PaymentRequired is the structured payment-required object returned both
// from tool results and HTTP 402 responses.
type PaymentRequired struct {
	Error           string          `json:"error"`
	Code            int             `json:"code"`
	RequiredPayment RequiredPayment `json:"required_payment"`
}

// NewPaymentRequired builds the payment-required response for a policy.
func NewPaymentRequired(pol payment.Policy) PaymentRequired {
	return PaymentRequired{
		Error: "Payment required or insufficient",
		Code:  http.StatusPaymentRequired,
		RequiredPayment: RequiredPayment{
			Token:   pol.Asset,
			Network: pol.Network,
			Amount:  pol.Amount.String(),
		},
	}
}

// HandleError handles domain errors and returns appropriate HTTP responses.
// The status code is determined from the error type.
func HandleError(reqCtx *gin.Context, err error, message string) {
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		statusCode := platformerrors.ErrorTypeToHTTPStatus(domainErr.GetErrorType())

		reqCtx.AbortWithStatusJSON(statusCode, ErrorResponse{
			Code:          domainErr.GetUUID(),
			Error:         message,
			ErrorInstance: domainErr,
			RequestID:     domainErr.GetRequestID(),
		})
		return
	}

	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:         message,
		ErrorInstance: err,
	})
}

// HandleNewError creates a new typed error at the route layer and renders
// it. The uuid parameter is the route's stable error code.
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string, uuid string) {
	ctx := reqCtx.Request.Context()
	err := platformerrors.NewError(ctx, platformerrors.LayerRoute, errorType, message, nil, uuid)

	statusCode := platformerrors.ErrorTypeToHTTPStatus(err.GetErrorType())

	reqCtx.AbortWithStatusJSON(statusCode, ErrorResponse{
		Code:          err.GetUUID(),
		Error:         message,
		ErrorInstance: err,
		RequestID:     err.GetRequestID(),
	})
}
