package api

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"

	"github.com/synthmob/synthmob/pkg/core"
)

// tokenContextKey stores the extracted bearer token on the request context.
const tokenContextKey = "synthmob.token"

// tokenFromRequest extracts the bearer credential. The string after the
// scheme is the agent token; there is no other authentication mechanism.
func tokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireAuth rejects requests without a bearer credential before they
// reach the core. Token validity is still the core's call — an unknown
// token fails inside the operation with the same machine code.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		token := tokenFromRequest(c.Request())
		if token == "" {
			return c.JSON(http.StatusUnauthorized,
				errorBody(core.CodeUnauthorized, "missing bearer token"))
		}
		c.Set(tokenContextKey, token)
		return next(c)
	}
}

// bearerToken returns the token stashed by requireAuth, falling back to
// header extraction for routes where authentication is optional.
func bearerToken(c *echo.Context) string {
	if v := c.Get(tokenContextKey); v != nil {
		if token, ok := v.(string); ok {
			return token
		}
	}
	return tokenFromRequest(c.Request())
}

// requireAdmin restricts a route to callers presenting the reset admin key
// as their bearer credential. An empty configured key disables the route.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		adminKey := s.cfg.Server.ResetAdminKey
		if adminKey == "" {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "admin reset is not configured")
		}
		if tokenFromRequest(c.Request()) != adminKey {
			return c.JSON(http.StatusUnauthorized,
				errorBody(core.CodeUnauthorized, "invalid admin key"))
		}
		return next(c)
	}
}

// senderHash keys the human-message rate limiter: a SHA-256 over the
// client IP so the limiter state never stores raw addresses.
func senderHash(r *http.Request) string {
	sum := sha256.Sum256([]byte(clientIP(r)))
	return hex.EncodeToString(sum[:])
}

// clientIP resolves the originating address, preferring the first
// X-Forwarded-For hop when a proxy fronts the server.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
