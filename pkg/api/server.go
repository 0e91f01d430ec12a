package api

import (
	"context"
	"net"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/synthmob/synthmob/pkg/config"
	"github.com/synthmob/synthmob/pkg/core"
	"github.com/synthmob/synthmob/pkg/events"
	"github.com/synthmob/synthmob/pkg/observe"
)

// Server is the HTTP adapter over the coordination core: the resource
// endpoints, the SSE event stream, and its WebSocket mirror. It owns no
// state of its own; every operation goes through the core facade.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server
	cfg        *config.Config
	core       *core.Core
	bus        *events.Bus
	metrics    *observe.Metrics
	ready      func() bool
}

// NewServer builds the server and registers all routes.
func NewServer(cfg *config.Config, coordination *core.Core, bus *events.Bus) *Server {
	s := &Server{
		echo: echo.New(),
		cfg:  cfg,
		core: coordination,
		bus:  bus,
	}
	s.registerRoutes()
	return s
}

// SetMetrics attaches the meter helpers. Without them the server still
// serves every route; it just records nothing.
func (s *Server) SetMetrics(m *observe.Metrics) {
	s.metrics = m
}

// SetReadyCheck attaches the readiness probe consulted by GET /readyz.
func (s *Server) SetReadyCheck(ready func() bool) {
	s.ready = ready
}

func (s *Server) registerRoutes() {
	e := s.echo
	e.Use(securityHeaders())
	e.Use(s.requestMetrics())

	// Agents.
	e.POST("/agents", s.registerAgentHandler)
	e.GET("/agents/status", s.requireAuth(s.agentStatusHandler))

	// Board.
	e.GET("/composition", s.compositionHandler)
	e.GET("/context", s.contextHandler)
	e.POST("/slot/:id", s.requireAuth(s.writeSlotHandler))

	// Music placements.
	e.GET("/music/placements", s.listPlacementsHandler)
	e.POST("/music/place", s.requireAuth(s.placeMusicHandler))
	e.PUT("/music/placement/:id", s.requireAuth(s.updatePlacementHandler))
	e.DELETE("/music/placement/:id", s.requireAuth(s.removePlacementHandler))

	// World.
	e.GET("/world", s.worldHandler)
	e.POST("/world", s.requireAuth(s.writeWorldHandler))
	e.DELETE("/world", s.requireAuth(s.clearWorldHandler))

	// Sessions.
	e.GET("/sessions", s.listSessionsHandler)
	e.POST("/session/start", s.requireAuth(s.startSessionHandler))
	e.POST("/session/join", s.requireAuth(s.joinSessionHandler))
	e.POST("/session/leave", s.requireAuth(s.leaveSessionHandler))
	e.POST("/session/output", s.requireAuth(s.sessionOutputHandler))

	// Legacy jam aliases over music-typed sessions. Kept one release.
	e.GET("/jam", legacyJam(s.listJamsHandler))
	e.POST("/jam/start", legacyJam(s.requireAuth(s.startJamHandler)))
	e.POST("/jam/join", legacyJam(s.requireAuth(s.joinSessionHandler)))
	e.POST("/jam/leave", legacyJam(s.requireAuth(s.leaveSessionHandler)))
	e.POST("/jam/output", legacyJam(s.requireAuth(s.sessionOutputHandler)))

	// Wayfinding.
	e.GET("/wayfinding/state", s.requireAuth(s.wayfindingStateHandler))
	e.POST("/wayfinding/action", s.requireAuth(s.wayfindingActionHandler))

	// Ritual. The view endpoint takes an optional token.
	e.GET("/ritual", s.ritualViewHandler)
	e.POST("/ritual/nominate", s.requireAuth(s.nominateRitualHandler))
	e.POST("/ritual/vote", s.requireAuth(s.voteRitualHandler))

	// Messaging.
	e.GET("/agents/messages", s.listMessagesHandler)
	e.POST("/agents/messages", s.requireAuth(s.postMessageHandler))
	e.POST("/human/message", s.humanMessageHandler)
	e.POST("/human/directive", s.humanDirectiveHandler)
	e.GET("/agents/directives", s.requireAuth(s.listDirectivesHandler))

	// Administration.
	e.POST("/admin/reset", s.requireAdmin(s.adminResetHandler))

	// Event transports.
	e.GET("/stream", s.streamHandler)
	e.GET("/ws", s.wsHandler)

	// Operational endpoints.
	e.GET("/healthz", s.healthzHandler)
	e.GET("/readyz", s.readyzHandler)
	e.GET("/metrics", s.metricsHandler)
}

// metricsHandler serves the Prometheus scrape endpoint.
func (s *Server) metricsHandler(c *echo.Context) error {
	promhttp.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}

// Start begins serving on addr. It blocks until the listener fails or
// Shutdown is called, mirroring http.Server.ListenAndServe.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// StartWithListener serves on an existing listener. Tests use this to bind
// a random port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.Serve(ln)
}

// Shutdown stops the server, waiting for in-flight requests up to the
// context deadline. Stream connections end when the bus closes their
// subscribers or the client disconnects.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
