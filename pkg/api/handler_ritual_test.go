package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthmob/synthmob/pkg/models"
)

func TestRitualView(t *testing.T) {
	s := newTestServer(t)

	t.Run("readable without a token", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodGet, "/ritual", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var view models.RitualView
		decodeInto(t, rec, &view)
		assert.Equal(t, models.RitualIdle, view.Phase)
		assert.Equal(t, 0, view.RitualNumber)
		assert.False(t, view.HasNominatedBPM)
		assert.False(t, view.HasVotedBPM)
	})

	t.Run("token tailors the view without changing phase", func(t *testing.T) {
		agent := registerAgent(t, s, "ritual-watcher")
		rec := doJSON(t, s, http.MethodGet, "/ritual", agent.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var view models.RitualView
		decodeInto(t, rec, &view)
		assert.Equal(t, models.RitualIdle, view.Phase)
	})
}

func TestNominateOutsideNominatePhase(t *testing.T) {
	s := newTestServer(t)
	agent := registerAgent(t, s, "keen-nominator")

	bpm := 128
	rec := doJSON(t, s, http.MethodPost, "/ritual/nominate", agent.Token, NominateRequest{
		BPM:       &bpm,
		Reasoning: "faster is better",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "not_in_nominate_phase", decodeErrorBody(t, rec).Error)
}

func TestVoteOutsideVotePhase(t *testing.T) {
	s := newTestServer(t)
	agent := registerAgent(t, s, "keen-voter")

	idx := 1
	rec := doJSON(t, s, http.MethodPost, "/ritual/vote", agent.Token, VoteRequest{
		BPMCandidate: &idx,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "not_in_vote_phase", decodeErrorBody(t, rec).Error)
}
