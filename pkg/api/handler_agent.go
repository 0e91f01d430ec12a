package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/synthmob/synthmob/pkg/core"
)

// registerAgentHandler handles POST /agents. The response is the only
// place the agent token ever appears.
func (s *Server) registerAgentHandler(c *echo.Context) error {
	var req RegisterAgentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "malformed JSON body"))
	}

	agent, err := s.core.RegisterAgent(req.Name)
	if err != nil {
		return s.respondCoreError(c, err)
	}

	if s.metrics != nil {
		s.metrics.RecordRegistration(c.Request().Context())
	}
	return c.JSON(http.StatusCreated, agent)
}

// agentStatusHandler handles GET /agents/status.
func (s *Server) agentStatusHandler(c *echo.Context) error {
	status, err := s.core.AgentStatus(bearerToken(c))
	if err != nil {
		return s.respondCoreError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}
