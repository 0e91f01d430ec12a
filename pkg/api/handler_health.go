package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// healthzHandler handles GET /healthz. Liveness only: if this handler
// runs, the process is alive.
func (s *Server) healthzHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// readyzHandler handles GET /readyz.
func (s *Server) readyzHandler(c *echo.Context) error {
	if s.ready != nil && !s.ready() {
		return c.JSON(http.StatusServiceUnavailable, StatusResponse{Status: "not ready"})
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "ready"})
}
