package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/synthmob/synthmob/pkg/core"
)

// wayfindingStateHandler handles GET /wayfinding/state.
func (s *Server) wayfindingStateHandler(c *echo.Context) error {
	state, err := s.core.WayfindingView(bearerToken(c))
	if err != nil {
		return s.respondCoreError(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// wayfindingActionHandler handles POST /wayfinding/action. Rejected
// actions are not errors: they come back as a 400 with accepted=false
// and the reason code, alongside the caller's current state.
func (s *Server) wayfindingActionHandler(c *echo.Context) error {
	var action core.WayfindingAction
	if err := c.Bind(&action); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "malformed JSON body"))
	}

	result, err := s.core.SubmitWayfindingAction(bearerToken(c), action)
	if err != nil {
		return s.respondCoreError(c, err)
	}
	if !result.Accepted {
		if s.metrics != nil {
			s.metrics.RecordRejection(c.Request().Context(), result.ReasonCode)
		}
		return c.JSON(http.StatusBadRequest, result)
	}
	return c.JSON(http.StatusOK, result)
}
