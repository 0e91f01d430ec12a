package api

import (
	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"
)

// wsHandler upgrades HTTP connections to WebSocket and mirrors the event
// stream onto them.
func (s *Server) wsHandler(c *echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		// Browser clients connect from arbitrary origins: the arena has
		// no cookies or ambient credentials to protect.
		InsecureSkipVerify: true,
	})
	if err != nil {
		return err
	}

	// serveWS blocks until the WebSocket closes.
	s.serveWS(c.Request().Context(), conn)
	return nil
}
