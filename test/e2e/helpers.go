package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/synthmob/synthmob/pkg/api"
	"github.com/synthmob/synthmob/pkg/core"
	"github.com/synthmob/synthmob/pkg/models"
)

// ────────────────────────────────────────────────────────────
// HTTP plumbing
// ────────────────────────────────────────────────────────────

// request issues one HTTP call against the instance and returns the status
// code and raw response body. An empty token leaves the request anonymous.
func (app *TestApp) request(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, app.BaseURL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

// getAs decodes a GET response into out, requiring a 200.
func (app *TestApp) getAs(t *testing.T, path, token string, out any) {
	t.Helper()
	status, raw := app.request(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, status, "GET %s: %s", path, raw)
	require.NoError(t, json.Unmarshal(raw, out))
}

// decodeError parses the error body of a rejected request.
func decodeError(t *testing.T, raw []byte) api.ErrorBody {
	t.Helper()
	var body api.ErrorBody
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

// ────────────────────────────────────────────────────────────
// Domain helpers
// ────────────────────────────────────────────────────────────

// RegisterAgent registers a bot and returns its bearer token.
func (app *TestApp) RegisterAgent(t *testing.T, name string) string {
	t.Helper()
	status, raw := app.request(t, http.MethodPost, "/agents", "", api.RegisterAgentRequest{Name: name})
	require.Equal(t, http.StatusCreated, status, "register %s: %s", name, raw)
	var agent models.RegisteredAgent
	require.NoError(t, json.Unmarshal(raw, &agent))
	require.NotEmpty(t, agent.Token)
	return agent.Token
}

// WriteSlot writes a pattern into a board slot, requiring success.
func (app *TestApp) WriteSlot(t *testing.T, token string, slot int, code string) core.SlotWriteResult {
	t.Helper()
	status, raw := app.request(t, http.MethodPost, fmt.Sprintf("/slot/%d", slot), token, api.WriteSlotRequest{Code: code})
	require.Equal(t, http.StatusOK, status, "slot %d write: %s", slot, raw)
	var result core.SlotWriteResult
	require.NoError(t, json.Unmarshal(raw, &result))
	return result
}

// PlaceMusic creates a placement, requiring success.
func (app *TestApp) PlaceMusic(t *testing.T, token string, req api.PlaceMusicRequest) models.Placement {
	t.Helper()
	status, raw := app.request(t, http.MethodPost, "/music/place", token, req)
	require.Equal(t, http.StatusOK, status, "place music: %s", raw)
	var result core.PlacementResult
	require.NoError(t, json.Unmarshal(raw, &result))
	return result.Placement
}

// GetComposition fetches the board, placements and epoch.
func (app *TestApp) GetComposition(t *testing.T) models.Composition {
	t.Helper()
	var comp models.Composition
	app.getAs(t, "/composition", "", &comp)
	return comp
}

// GetContext fetches the unauthenticated arena overview.
func (app *TestApp) GetContext(t *testing.T) models.ContextView {
	t.Helper()
	var ctx models.ContextView
	app.getAs(t, "/context", "", &ctx)
	return ctx
}

// WriteWorld stores the agent's world output, requiring success.
func (app *TestApp) WriteWorld(t *testing.T, token string, output map[string]any) models.WorldSnapshot {
	t.Helper()
	raw, err := json.Marshal(output)
	require.NoError(t, err)
	status, body := app.request(t, http.MethodPost, "/world", token, api.WriteWorldRequest{Output: raw})
	require.Equal(t, http.StatusOK, status, "world write: %s", body)
	var snap models.WorldSnapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	return snap
}

// ClearWorld removes the agent's world contribution.
func (app *TestApp) ClearWorld(t *testing.T, token string) models.WorldSnapshot {
	t.Helper()
	status, body := app.request(t, http.MethodDelete, "/world", token, nil)
	require.Equal(t, http.StatusOK, status, "world clear: %s", body)
	var snap models.WorldSnapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	return snap
}

// GetWorld fetches the aggregate world snapshot.
func (app *TestApp) GetWorld(t *testing.T) models.WorldSnapshot {
	t.Helper()
	var snap models.WorldSnapshot
	app.getAs(t, "/world", "", &snap)
	return snap
}

// SubmitWayfindingAction posts one movement action. Both verdicts are
// returned as an ActionResult; the status line must agree with it.
func (app *TestApp) SubmitWayfindingAction(t *testing.T, token string, action core.WayfindingAction) models.ActionResult {
	t.Helper()
	status, raw := app.request(t, http.MethodPost, "/wayfinding/action", token, action)
	var result models.ActionResult
	require.NoError(t, json.Unmarshal(raw, &result))
	if result.Accepted {
		require.Equal(t, http.StatusOK, status)
	} else {
		require.Equal(t, http.StatusBadRequest, status)
	}
	return result
}

// GetWayfindingState fetches the caller's movement view.
func (app *TestApp) GetWayfindingState(t *testing.T, token string) models.WayfindingState {
	t.Helper()
	var state models.WayfindingState
	app.getAs(t, "/wayfinding/state", token, &state)
	return state
}

// RitualView fetches the voting-cycle view, anonymously when token is empty.
func (app *TestApp) RitualView(t *testing.T, token string) models.RitualView {
	t.Helper()
	var view models.RitualView
	app.getAs(t, "/ritual", token, &view)
	return view
}

// Nominate submits a ritual nomination, requiring success.
func (app *TestApp) Nominate(t *testing.T, token string, req api.NominateRequest) models.RitualView {
	t.Helper()
	status, raw := app.request(t, http.MethodPost, "/ritual/nominate", token, req)
	require.Equal(t, http.StatusOK, status, "nominate: %s", raw)
	var view models.RitualView
	require.NoError(t, json.Unmarshal(raw, &view))
	return view
}

// Vote submits a ritual vote, requiring success.
func (app *TestApp) Vote(t *testing.T, token string, req api.VoteRequest) models.RitualView {
	t.Helper()
	status, raw := app.request(t, http.MethodPost, "/ritual/vote", token, req)
	require.Equal(t, http.StatusOK, status, "vote: %s", raw)
	var view models.RitualView
	require.NoError(t, json.Unmarshal(raw, &view))
	return view
}

// PostAgentMessage broadcasts an agent message.
func (app *TestApp) PostAgentMessage(t *testing.T, token, content string) models.Message {
	t.Helper()
	status, raw := app.request(t, http.MethodPost, "/agents/messages", token, api.PostMessageRequest{Content: content})
	require.Equal(t, http.StatusCreated, status, "post message: %s", raw)
	var resp MessageResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp.Message
}

// MessageResponse mirrors the wire shape of the message creation endpoints.
type MessageResponse struct {
	Message models.Message `json:"message"`
}

// ────────────────────────────────────────────────────────────
// Waiting helpers
// ────────────────────────────────────────────────────────────

// WaitForEvent blocks until the named event is recorded, failing the test on
// timeout.
func (app *TestApp) WaitForEvent(t *testing.T, name string, timeout time.Duration) recordedEvent {
	t.Helper()
	evt, err := app.Recorder.WaitFor(name, timeout)
	require.NoError(t, err)
	return evt
}

// WaitForRitualPhase polls the ritual view until the cycle reaches the given
// phase, returning the first matching view.
func (app *TestApp) WaitForRitualPhase(t *testing.T, phase models.RitualPhase, timeout time.Duration) models.RitualView {
	t.Helper()
	deadline := time.After(timeout)
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	var last models.RitualPhase
	for {
		select {
		case <-deadline:
			t.Fatalf("ritual did not reach phase %s (last: %s)", phase, last)
			return models.RitualView{}
		case <-tick.C:
			view := app.RitualView(t, "")
			last = view.Phase
			if last == phase {
				return view
			}
		}
	}
}
