package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/synthmob/synthmob/pkg/events"
)

// wsWriteTimeout bounds one frame write so a stalled client cannot pin
// the write pump.
const wsWriteTimeout = 10 * time.Second

// wsFrame is the wire shape of one mirrored event: the same payloads the
// SSE stream carries, wrapped in a named envelope.
type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// serveWS pumps bus events to one WebSocket client until either side
// closes. Inbound frames are drained and ignored; the socket is a mirror
// of /stream, not a command channel.
func (s *Server) serveWS(parent context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	connID := uuid.New().String()

	sub := events.NewChannelSubscriber(streamBuffer)
	s.bus.Subscribe(sub)
	s.streamConnected(ctx, "ws")
	defer func() {
		s.bus.Unsubscribe(sub)
		sub.Close()
		s.streamDisconnected(ctx, "ws", sub.Dropped())
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()

	handshake, err := json.Marshal(events.ConnectedPayload{
		ConnectionID: connID,
		At:           time.Now(),
	})
	if err != nil {
		return
	}
	if err := writeWSFrame(ctx, conn, events.EventConnected, handshake); err != nil {
		slog.Warn("WebSocket handshake write failed", "connection_id", connID, "error", err)
		return
	}

	g, ctx := errgroup.WithContext(ctx)

	// Read pump. A read error means the client is gone.
	g.Go(func() error {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return err
			}
		}
	})

	// Write pump: every bus event plus periodic heartbeat pings.
	g.Go(func() error {
		heartbeat := time.NewTicker(s.cfg.Server.HeartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case env, ok := <-sub.Events():
				if !ok {
					return events.ErrSubscriberClosed
				}
				if err := writeWSFrame(ctx, conn, env.Event, env.Data); err != nil {
					return err
				}
			case <-heartbeat.C:
				pingCtx, pingCancel := context.WithTimeout(ctx, wsWriteTimeout)
				err := conn.Ping(pingCtx)
				pingCancel()
				if err != nil {
					return err
				}
			}
		}
	})

	_ = g.Wait()
}

// writeWSFrame sends one enveloped event with a write timeout.
func writeWSFrame(ctx context.Context, conn *websocket.Conn, event string, data json.RawMessage) error {
	frame, err := json.Marshal(wsFrame{Event: event, Data: data})
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, frame)
}
