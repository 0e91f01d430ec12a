package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/synthmob/synthmob/pkg/core"
	"github.com/synthmob/synthmob/pkg/models"
)

// listMessagesHandler handles GET /agents/messages. Without a token only
// broadcasts are visible; with one, the caller's targeted traffic too.
func (s *Server) listMessagesHandler(c *echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "limit must be a non-negative number"))
		}
		limit = n
	}

	messages := s.core.Messages(bearerToken(c), limit)
	return c.JSON(http.StatusOK, MessagesResponse{Messages: messages, Count: len(messages)})
}

// postMessageHandler handles POST /agents/messages.
func (s *Server) postMessageHandler(c *echo.Context) error {
	var req PostMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "malformed JSON body"))
	}

	msg, err := s.core.PostAgentMessage(bearerToken(c), req.Content, req.To)
	if err != nil {
		return s.respondCoreError(c, err)
	}
	return c.JSON(http.StatusCreated, MessageResponse{Message: msg})
}

// humanMessageHandler handles POST /human/message. No authentication;
// the sender is identified by a hash of the client address, which keys
// the per-sender rate limit window.
func (s *Server) humanMessageHandler(c *echo.Context) error {
	var req HumanMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "malformed JSON body"))
	}

	senderType := models.SenderHuman
	if req.SenderType != "" {
		senderType = models.SenderType(req.SenderType)
		if senderType != models.SenderHuman && senderType != models.SenderStorm {
			return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "sender_type must be human or storm"))
		}
	}

	msg, err := s.core.HumanMessage(c.Request().Context(),
		req.Name, req.Content, senderHash(c.Request()), senderType)
	if err != nil {
		return s.respondCoreError(c, err)
	}
	return c.JSON(http.StatusCreated, MessageResponse{Message: msg})
}

// humanDirectiveHandler handles POST /human/directive. The payment
// oracle must verify the transaction proof before anything is stored.
func (s *Server) humanDirectiveHandler(c *echo.Context) error {
	var req HumanDirectiveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(core.CodeInvalidJSON, "malformed JSON body"))
	}

	directive, err := s.core.HumanDirective(c.Request().Context(),
		req.FromAddress, req.To, req.Content, req.TxHash)
	if err != nil {
		return s.respondCoreError(c, err)
	}
	return c.JSON(http.StatusCreated, DirectiveResponse{Directive: directive})
}

// listDirectivesHandler handles GET /agents/directives. Reading marks
// the returned directives delivered.
func (s *Server) listDirectivesHandler(c *echo.Context) error {
	directives, err := s.core.PendingDirectives(bearerToken(c))
	if err != nil {
		return s.respondCoreError(c, err)
	}
	return c.JSON(http.StatusOK, DirectivesResponse{Directives: directives, Count: len(directives)})
}
