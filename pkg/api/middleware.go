package api

import (
	"net/http"
	"strings"
	"time"

	echo "github.com/labstack/echo/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// securityHeaders returns middleware that sets standard security response headers.
func securityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			return next(c)
		}
	}
}

// requestMetrics returns middleware recording request latency by method,
// route, and status. Streaming routes are skipped: their handler runtime is
// the connection lifetime, not a request latency.
func (s *Server) requestMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			path := c.Request().URL.Path
			if s.metrics == nil || path == "/stream" || path == "/ws" {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			status := http.StatusOK
			if res, uerr := echo.UnwrapResponse(c.Response()); uerr == nil {
				status = res.Status
			}
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			s.metrics.HTTPRequestDuration.Record(c.Request().Context(),
				time.Since(start).Seconds(),
				metric.WithAttributes(
					attribute.String("method", c.Request().Method),
					attribute.String("path", routeLabel(path)),
					attribute.Int("status", status),
				))
			return err
		}
	}
}

// routeLabel collapses path parameters so metric labels stay bounded.
func routeLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/slot/"):
		return "/slot/:id"
	case strings.HasPrefix(path, "/music/placement/"):
		return "/music/placement/:id"
	default:
		return path
	}
}
