package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/synthmob/synthmob/pkg/core"
)

// worldHandler handles GET /world.
func (s *Server) worldHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.core.World())
}

// writeWorldHandler handles POST /world. The output document is passed
// through raw; the validator owns its shape and size limits.
func (s *Server) writeWorldHandler(c *echo.Context) error {
	var req WriteWorldRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "malformed JSON body"))
	}

	snapshot, err := s.core.WriteWorld(bearerToken(c), req.Output)
	if err != nil {
		return s.respondCoreError(c, err)
	}
	return c.JSON(http.StatusOK, snapshot)
}

// clearWorldHandler handles DELETE /world.
func (s *Server) clearWorldHandler(c *echo.Context) error {
	snapshot, err := s.core.ClearWorld(bearerToken(c))
	if err != nil {
		return s.respondCoreError(c, err)
	}
	return c.JSON(http.StatusOK, snapshot)
}
