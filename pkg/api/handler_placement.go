package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/synthmob/synthmob/pkg/core"
	"github.com/synthmob/synthmob/pkg/models"
)

// listPlacementsHandler handles GET /music/placements.
func (s *Server) listPlacementsHandler(c *echo.Context) error {
	placements := s.core.ListPlacements()
	return c.JSON(http.StatusOK, PlacementsResponse{
		Placements: placements,
		Count:      len(placements),
	})
}

// placeMusicHandler handles POST /music/place.
func (s *Server) placeMusicHandler(c *echo.Context) error {
	var req PlaceMusicRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "malformed JSON body"))
	}

	result, err := s.core.PlaceMusic(bearerToken(c),
		models.InstrumentType(req.InstrumentType), req.Pattern, req.Position)
	if err != nil {
		return s.respondCoreError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// updatePlacementHandler handles PUT /music/placement/:id.
func (s *Server) updatePlacementHandler(c *echo.Context) error {
	var req UpdatePlacementRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "malformed JSON body"))
	}

	result, err := s.core.UpdatePlacement(bearerToken(c), c.Param("id"), req.Pattern)
	if err != nil {
		return s.respondCoreError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// removePlacementHandler handles DELETE /music/placement/:id.
func (s *Server) removePlacementHandler(c *echo.Context) error {
	if err := s.core.RemovePlacement(bearerToken(c), c.Param("id")); err != nil {
		return s.respondCoreError(c, err)
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "removed"})
}
