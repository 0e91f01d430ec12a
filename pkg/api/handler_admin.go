package api

import (
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// adminResetHandler handles POST /admin/reset: a full wipe back to the
// initial arena. requireAdmin has already checked the key.
func (s *Server) adminResetHandler(c *echo.Context) error {
	counters := s.core.Reset()
	slog.Warn("Admin reset executed",
		"agents", counters.Agents,
		"sessions", counters.Sessions,
		"placements", counters.Placements)
	return c.JSON(http.StatusOK, ResetResponse{Status: "ok", Counters: counters})
}
