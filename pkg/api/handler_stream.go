package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v5"

	"github.com/synthmob/synthmob/pkg/events"
)

// streamBuffer is the per-connection event buffer. A client that cannot
// drain this many events starts losing them instead of stalling the core.
const streamBuffer = 256

// streamHandler handles GET /stream: every bus event as SSE.
func (s *Server) streamHandler(c *echo.Context) error {
	w := c.Response()
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	ctx := c.Request().Context()

	sub := events.NewChannelSubscriber(streamBuffer)
	s.bus.Subscribe(sub)
	s.streamConnected(ctx, "sse")
	defer func() {
		s.bus.Unsubscribe(sub)
		sub.Close()
		s.streamDisconnected(ctx, "sse", sub.Dropped())
	}()

	// Handshake frame: clients learn their connection id before any event.
	if err := writeSSEFrame(w, rc, events.EventConnected, events.ConnectedPayload{
		ConnectionID: uuid.New().String(),
		At:           time.Now(),
	}); err != nil {
		return nil
	}

	heartbeat := time.NewTicker(s.cfg.Server.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case env, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", env.Event, env.Data); err != nil {
				return nil
			}
			if err := rc.Flush(); err != nil {
				return nil
			}
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": heartbeat\n\n"); err != nil {
				return nil
			}
			if err := rc.Flush(); err != nil {
				return nil
			}
		}
	}
}

// writeSSEFrame marshals the payload, writes one SSE frame, and flushes.
func writeSSEFrame(w io.Writer, rc *http.ResponseController, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return rc.Flush()
}

func (s *Server) streamConnected(ctx context.Context, transport string) {
	if s.metrics != nil {
		s.metrics.StreamConnected(ctx, transport)
	}
}

// streamDisconnected records the teardown with a fresh context; the
// request context is already canceled when the deferred call runs.
func (s *Server) streamDisconnected(_ context.Context, transport string, dropped int64) {
	if s.metrics == nil {
		return
	}
	ctx := context.Background()
	s.metrics.StreamDisconnected(ctx, transport)
	if dropped > 0 {
		s.metrics.RecordStreamDrops(ctx, transport, dropped)
	}
}
