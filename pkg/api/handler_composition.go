package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/synthmob/synthmob/pkg/core"
)

// compositionHandler handles GET /composition.
func (s *Server) compositionHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.core.Composition())
}

// contextHandler handles GET /context.
func (s *Server) contextHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.core.Context())
}

// writeSlotHandler handles POST /slot/:id.
func (s *Server) writeSlotHandler(c *echo.Context) error {
	slotID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidSlot, "slot id must be a number"))
	}

	var req WriteSlotRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "malformed JSON body"))
	}

	result, err := s.core.WriteSlot(bearerToken(c), slotID, req.Code)
	if err != nil {
		return s.respondCoreError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
