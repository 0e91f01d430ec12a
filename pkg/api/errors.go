package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/synthmob/synthmob/pkg/core"
)

// ErrorBody is the wire shape of every error response: a short machine
// code, a human message, and optional structured detail. RetryAfter is
// set only on cooldown and rate-limit rejections.
type ErrorBody struct {
	Error      string   `json:"error"`
	Message    string   `json:"message,omitempty"`
	RetryAfter *float64 `json:"retry_after,omitempty"`
	Details    []string `json:"details,omitempty"`
}

func errorBody(code core.Code, message string) ErrorBody {
	return ErrorBody{Error: string(code), Message: message}
}

// respondCoreError maps a core error to its HTTP response. The machine
// code decides the status; the body carries code, message, and detail.
func (s *Server) respondCoreError(c *echo.Context, err error) error {
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		slog.Error("Unexpected core error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	if s.metrics != nil {
		s.metrics.RecordRejection(c.Request().Context(), string(coreErr.Code))
	}

	body := ErrorBody{
		Error:   string(coreErr.Code),
		Message: coreErr.Message,
		Details: coreErr.Details,
	}
	if coreErr.RetryAfter > 0 {
		retry := coreErr.RetryAfter
		body.RetryAfter = &retry
	}
	return c.JSON(statusForCode(coreErr.Code), body)
}

// statusForCode maps machine codes to HTTP status. Codes not listed are
// client errors: the request was well-formed HTTP but the core refused it.
func statusForCode(code core.Code) int {
	switch code {
	case core.CodeUnauthorized:
		return http.StatusUnauthorized
	case core.CodeNotOwner:
		return http.StatusForbidden
	case core.CodeNameTaken:
		return http.StatusConflict
	case core.CodeCooldown, core.CodeRateLimited:
		return http.StatusTooManyRequests
	case core.CodeSessionNotFound, core.CodePlacementNotFound, core.CodeAgentNotFound:
		return http.StatusNotFound
	case core.CodePaymentUnverified:
		return http.StatusPaymentRequired
	default:
		return http.StatusBadRequest
	}
}
