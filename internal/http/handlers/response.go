// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by all endpoints:
//   - fail()/failDetail() write the ErrorResponse envelope and log 5xx with
//     the request-scoped logger.
//   - ok() writes a JSON success body.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "bad_request",
//	  "message": "description is required"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/campuspulse-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"create_failed"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"failed to process complaint"`
	// Underlying error text on 5xx responses; equal to Message when error
	// detail exposure is disabled.
	Detail string `json:"detail,omitempty" example:"store complaint: connection refused"`
}

// fail aborts the request with a structured error and no detail.
func fail(c *gin.Context, status int, code, msg string) {
	failDetail(c, status, code, msg, "")
}

// failDetail aborts the request with a structured error. Server errors
// (>=500) are logged with the request-scoped logger, detail included.
func failDetail(c *gin.Context, status int, code, msg, detail string) {
	resp := ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Message:   msg,
		Detail:    detail,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Str("detail", detail).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
