package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthmob/synthmob/pkg/core"
)

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code     core.Code
		expected int
	}{
		{core.CodeUnauthorized, http.StatusUnauthorized},
		{core.CodeNotOwner, http.StatusForbidden},
		{core.CodeNameTaken, http.StatusConflict},
		{core.CodeCooldown, http.StatusTooManyRequests},
		{core.CodeRateLimited, http.StatusTooManyRequests},
		{core.CodeSessionNotFound, http.StatusNotFound},
		{core.CodePlacementNotFound, http.StatusNotFound},
		{core.CodeAgentNotFound, http.StatusNotFound},
		{core.CodePaymentUnverified, http.StatusPaymentRequired},
		{core.CodeValidationFailed, http.StatusBadRequest},
		{core.CodeInvalidInstrument, http.StatusBadRequest},
		{core.CodeNotInVotePhase, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, statusForCode(tt.code))
		})
	}
}

func TestRespondCoreError(t *testing.T) {
	newContext := func(t *testing.T) (*echo.Context, *httptest.ResponseRecorder) {
		t.Helper()
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		return e.NewContext(req, rec), rec
	}
	s := &Server{}

	t.Run("coded error carries retry_after and details", func(t *testing.T) {
		c, rec := newContext(t)
		err := s.respondCoreError(c, core.NewCooldownError(42.5))
		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)

		var body ErrorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "cooldown", body.Error)
		require.NotNil(t, body.RetryAfter)
		assert.Equal(t, 42.5, *body.RetryAfter)
	})

	t.Run("validation details survive the mapping", func(t *testing.T) {
		c, rec := newContext(t)
		err := s.respondCoreError(c, core.NewValidationError([]string{"unbalanced parens"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body ErrorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, []string{"unbalanced parens"}, body.Details)
		assert.Nil(t, body.RetryAfter)
	})

	t.Run("wrapped coded errors still map", func(t *testing.T) {
		c, rec := newContext(t)
		wrapped := fmt.Errorf("while joining: %w", core.NewError(core.CodeSessionNotFound, "no such session"))
		err := s.respondCoreError(c, wrapped)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("uncoded errors become opaque 500s", func(t *testing.T) {
		c, _ := newContext(t)
		err := s.respondCoreError(c, fmt.Errorf("something unexpected happened"))
		require.Error(t, err)

		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusInternalServerError, he.Code)
		assert.NotContains(t, he.Error(), "unexpected happened")
	})
}
