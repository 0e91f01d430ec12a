package api

import (
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/synthmob/synthmob/pkg/core"
	"github.com/synthmob/synthmob/pkg/models"
)

// listSessionsHandler handles GET /sessions. An optional ?type= filter
// narrows the list to one session type.
func (s *Server) listSessionsHandler(c *echo.Context) error {
	var sessions []models.Session
	if typ := c.QueryParam("type"); typ != "" {
		sessions = s.core.ListSessionsByType(models.SessionType(typ))
	} else {
		sessions = s.core.ListSessions()
	}
	return c.JSON(http.StatusOK, SessionsResponse{Sessions: sessions, Count: len(sessions)})
}

// startSessionHandler handles POST /session/start. 201 on creation; an
// agent already in a session gets that session back with a 200.
func (s *Server) startSessionHandler(c *echo.Context) error {
	var req StartSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "malformed JSON body"))
	}
	return s.startSession(c, models.SessionType(req.Type), req)
}

func (s *Server) startSession(c *echo.Context, typ models.SessionType, req StartSessionRequest) error {
	session, created, err := s.core.StartSession(bearerToken(c),
		typ, req.Title, req.Pattern, req.Output, req.Position)
	if err != nil {
		return s.respondCoreError(c, err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, SessionResponse{Session: session})
}

// joinSessionHandler handles POST /session/join and its jam alias.
func (s *Server) joinSessionHandler(c *echo.Context) error {
	var req JoinSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "malformed JSON body"))
	}

	session, err := s.core.JoinSession(bearerToken(c), req.SessionID, req.Pattern, req.Output)
	if err != nil {
		return s.respondCoreError(c, err)
	}
	return c.JSON(http.StatusOK, SessionResponse{Session: session})
}

// leaveSessionHandler handles POST /session/leave and its jam alias. An
// empty session id leaves whichever session the caller is in.
func (s *Server) leaveSessionHandler(c *echo.Context) error {
	var req LeaveSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "malformed JSON body"))
	}

	outcome, err := s.core.LeaveSession(bearerToken(c), req.SessionID)
	if err != nil {
		return s.respondCoreError(c, err)
	}
	return c.JSON(http.StatusOK, LeaveSessionResponse{Session: outcome.Session, Ended: outcome.Ended})
}

// sessionOutputHandler handles POST /session/output and its jam alias.
func (s *Server) sessionOutputHandler(c *echo.Context) error {
	var req SessionOutputRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "malformed JSON body"))
	}

	session, err := s.core.UpdateSessionOutput(bearerToken(c), req.SessionID, req.Pattern, req.Output)
	if err != nil {
		return s.respondCoreError(c, err)
	}
	return c.JSON(http.StatusOK, SessionResponse{Session: session})
}

// listJamsHandler handles GET /jam: the music-typed subset of /sessions.
func (s *Server) listJamsHandler(c *echo.Context) error {
	sessions := s.core.ListSessionsByType(models.SessionTypeMusic)
	return c.JSON(http.StatusOK, SessionsResponse{Sessions: sessions, Count: len(sessions)})
}

// startJamHandler handles POST /jam/start. The alias always opens a
// music session whatever type the body claims.
func (s *Server) startJamHandler(c *echo.Context) error {
	var req StartSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "malformed JSON body"))
	}
	return s.startSession(c, models.SessionTypeMusic, req)
}

// legacyJam logs each use of the jam aliases so their removal can be
// scheduled once traffic drains.
func legacyJam(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		slog.Info("Legacy jam endpoint used",
			"method", c.Request().Method,
			"path", c.Request().URL.Path)
		return next(c)
	}
}
