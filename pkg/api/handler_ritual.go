package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/synthmob/synthmob/pkg/core"
)

// ritualViewHandler handles GET /ritual. A bearer token is optional;
// with one the has-nominated and has-voted flags reflect the caller.
func (s *Server) ritualViewHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.core.RitualView(bearerToken(c)))
}

// nominateRitualHandler handles POST /ritual/nominate.
func (s *Server) nominateRitualHandler(c *echo.Context) error {
	var req NominateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "malformed JSON body"))
	}

	view, err := s.core.NominateRitual(bearerToken(c), req.BPM, req.Key, req.Scale, req.Reasoning)
	if err != nil {
		return s.respondCoreError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// voteRitualHandler handles POST /ritual/vote.
func (s *Server) voteRitualHandler(c *echo.Context) error {
	var req VoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "malformed JSON body"))
	}

	view, err := s.core.VoteRitual(bearerToken(c), req.BPMCandidate, req.KeyCandidate)
	if err != nil {
		return s.respondCoreError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}
