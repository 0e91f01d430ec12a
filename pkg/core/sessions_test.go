package core

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthmob/synthmob/pkg/models"
)

func mustStart(t *testing.T, s *Sessions, agent *agentRecord, typ models.SessionType, now time.Time) models.Session {
	t.Helper()
	session, created, err := s.Start(agent, typ, "", "", "", nil, now)
	require.NoError(t, err)
	require.True(t, created)
	return session
}

func TestStartPlacesSessionOnAnnulus(t *testing.T) {
	now := time.Now()
	s := NewSessions(testRand())

	for i := 0; i < 25; i++ {
		agent := testAgent(fmt.Sprintf("a%d", i), fmt.Sprintf("bot%d", i))
		session := mustStart(t, s, agent, models.SessionTypeMusic, now)

		r := math.Hypot(session.Position.X, session.Position.Z)
		assert.GreaterOrEqual(t, r, sessionMinRadius)
		assert.LessOrEqual(t, r, sessionMaxRadius)
		assert.Equal(t, models.RoomCenter, session.Position.Room)
	}
}

func TestStartRecordsCreator(t *testing.T) {
	now := time.Now()
	s := NewSessions(testRand())
	agent := testAgent("a1", "maestro")

	session, created, err := s.Start(agent, models.SessionTypeMusic, "late night jam", `s("bd sd")`, "{}", nil, now)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "late night jam", session.Title)
	assert.Equal(t, "maestro", session.CreatorBotName)
	require.Len(t, session.Participants, 1)
	assert.Equal(t, models.RoleCreator, session.Participants[0].Role)
	assert.Equal(t, `s("bd sd")`, session.Participants[0].Pattern)
	assert.Equal(t, session.ID, s.SessionIDOf("a1"))
}

func TestStartIsIdempotentForMembers(t *testing.T) {
	now := time.Now()
	s := NewSessions(testRand())
	agent := testAgent("a1", "maestro")

	first := mustStart(t, s, agent, models.SessionTypeMusic, now)

	again, created, err := s.Start(agent, models.SessionTypeVisual, "different title", "", "", nil, now)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, models.SessionTypeMusic, again.Type, "the existing session comes back unchanged")
	assert.Equal(t, 1, s.Count())
}

func TestStartRejectsUnknownType(t *testing.T) {
	s := NewSessions(testRand())
	_, _, err := s.Start(testAgent("a1", "bot"), "karaoke", "", "", "", nil, time.Now())
	requireCode(t, err, CodeInvalidSessionType)
}

func TestStartTruncatesTitle(t *testing.T) {
	s := NewSessions(testRand())
	session, _, err := s.Start(testAgent("a1", "bot"), models.SessionTypeMusic, strings.Repeat("t", 100), "", "", nil, time.Now())
	require.NoError(t, err)
	assert.Len(t, session.Title, MaxSessionTitle)
}

func TestSessionCapAppliesBeforeMembership(t *testing.T) {
	now := time.Now()
	s := NewSessions(testRand())

	for i := 0; i < MaxSessions; i++ {
		mustStart(t, s, testAgent(fmt.Sprintf("a%d", i), fmt.Sprintf("bot%d", i)), models.SessionTypeMusic, now)
	}

	_, _, err := s.Start(testAgent("overflow", "late"), models.SessionTypeMusic, "", "", "", nil, now)
	requireCode(t, err, CodeMaxSessionsReached)

	// The cap gate runs before the membership shortcut, so even a member
	// asking for their own session back is refused at capacity.
	_, _, err = s.Start(testAgent("a0", "bot0"), models.SessionTypeMusic, "", "", "", nil, now)
	requireCode(t, err, CodeMaxSessionsReached)
}

func TestJoinMovesAgentBetweenSessions(t *testing.T) {
	now := time.Now()
	s := NewSessions(testRand())
	alice := testAgent("a1", "alice")
	bob := testAgent("b1", "bob")

	target := mustStart(t, s, alice, models.SessionTypeMusic, now)
	solo := mustStart(t, s, bob, models.SessionTypeVisual, now)

	joined, left, err := s.Join(bob, target.ID, `note("c4")`, "", now.Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, left, "switching sessions reports the departure")
	assert.Equal(t, solo.ID, left.Session.ID)
	assert.True(t, left.Ended, "an emptied session is destroyed")

	assert.Equal(t, target.ID, joined.ID)
	require.Len(t, joined.Participants, 2)
	assert.Equal(t, models.RoleContributor, joined.Participants[1].Role)
	assert.Equal(t, target.ID, s.SessionIDOf("b1"))
	assert.Equal(t, 1, s.Count())
}

func TestJoinUnknownSession(t *testing.T) {
	s := NewSessions(testRand())
	_, _, err := s.Join(testAgent("a1", "bot"), "no-such-session", "", "", time.Now())
	requireCode(t, err, CodeSessionNotFound)
}

func TestRejoinRefreshesContribution(t *testing.T) {
	now := time.Now()
	s := NewSessions(testRand())
	alice := testAgent("a1", "alice")
	bob := testAgent("b1", "bob")

	session := mustStart(t, s, alice, models.SessionTypeMusic, now)
	_, _, err := s.Join(bob, session.ID, "v1", "o1", now)
	require.NoError(t, err)

	rejoined, left, err := s.Join(bob, session.ID, "v2", "", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Nil(t, left, "rejoining the same session is not a switch")
	require.Len(t, rejoined.Participants, 2)
	assert.Equal(t, "v2", rejoined.Participants[1].Pattern)
	assert.Equal(t, "o1", rejoined.Participants[1].Output, "empty fields keep their previous value")
	assert.True(t, rejoined.UpdatedAt.Equal(now.Add(time.Minute)))
}

func TestUpdateOutput(t *testing.T) {
	now := time.Now()
	s := NewSessions(testRand())
	alice := testAgent("a1", "alice")
	session := mustStart(t, s, alice, models.SessionTypeVisual, now)

	t.Run("unknown session", func(t *testing.T) {
		_, err := s.UpdateOutput(alice, "missing", "p", "o", now)
		requireCode(t, err, CodeSessionNotFound)
	})

	t.Run("non-participant", func(t *testing.T) {
		_, err := s.UpdateOutput(testAgent("x", "stranger"), session.ID, "p", "o", now)
		requireCode(t, err, CodeNotInSession)
	})

	t.Run("participant refresh", func(t *testing.T) {
		updated, err := s.UpdateOutput(alice, session.ID, "", `{"elements":[]}`, now.Add(time.Second))
		require.NoError(t, err)
		assert.Equal(t, `{"elements":[]}`, updated.Participants[0].Output)
	})
}

func TestLeaveSuccessionPicksEarliestJoined(t *testing.T) {
	now := time.Now()
	s := NewSessions(testRand())
	alice := testAgent("a1", "alice")
	bob := testAgent("b1", "bob")
	cara := testAgent("c1", "cara")

	session := mustStart(t, s, alice, models.SessionTypeMusic, now)
	_, _, err := s.Join(bob, session.ID, "", "", now.Add(time.Second))
	require.NoError(t, err)
	_, _, err = s.Join(cara, session.ID, "", "", now.Add(2*time.Second))
	require.NoError(t, err)

	outcome, err := s.Leave(alice, session.ID, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, outcome.Ended)
	assert.Equal(t, "bob", outcome.Session.CreatorBotName)
	require.Len(t, outcome.Session.Participants, 2)
	assert.Equal(t, models.RoleCreator, outcome.Session.Participants[0].Role)
	assert.Equal(t, "b1", outcome.Session.CreatorAgentID)
	assert.Empty(t, s.SessionIDOf("a1"))
}

func TestLeaveDefaultsToCurrentSession(t *testing.T) {
	now := time.Now()
	s := NewSessions(testRand())
	alice := testAgent("a1", "alice")
	session := mustStart(t, s, alice, models.SessionTypeGame, now)

	outcome, err := s.Leave(alice, "", now)
	require.NoError(t, err)
	assert.True(t, outcome.Ended)
	assert.Equal(t, session.ID, outcome.Session.ID)
	assert.Equal(t, 0, s.Count())
}

func TestLeaveRejectsMismatchedSession(t *testing.T) {
	now := time.Now()
	s := NewSessions(testRand())
	alice := testAgent("a1", "alice")
	bob := testAgent("b1", "bob")

	mustStart(t, s, alice, models.SessionTypeMusic, now)
	other := mustStart(t, s, bob, models.SessionTypeMusic, now)

	_, err := s.Leave(alice, other.ID, now)
	requireCode(t, err, CodeNotInSession)

	_, err = s.Leave(testAgent("x", "stranger"), "", now)
	requireCode(t, err, CodeNotInSession)
}

func TestResolvePositionPushesOffStage(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name          string
		pos           models.Position
		wantX, wantZ  float64
		wantRoom      models.Room
		wantStagePush bool
	}{
		{name: "inside exclusion zone", pos: models.Position{X: 1, Z: 0}, wantX: stagePushRadius, wantZ: 0, wantRoom: models.RoomCenter, wantStagePush: true},
		{name: "dead center", pos: models.Position{X: 0, Z: 0}, wantX: stagePushRadius, wantZ: 0, wantRoom: models.RoomCenter, wantStagePush: true},
		{name: "open floor", pos: models.Position{X: 20, Z: 5}, wantX: 20, wantZ: 5, wantRoom: models.RoomCenter},
		{name: "east wing", pos: models.Position{X: 80, Z: 0}, wantX: 80, wantZ: 0, wantRoom: models.RoomEastWing},
		{name: "west wing", pos: models.Position{X: -80, Z: 0}, wantX: -80, wantZ: 0, wantRoom: models.RoomWestWing},
	}

	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSessions(testRand())
			pos := tc.pos
			session, _, err := s.Start(testAgent(fmt.Sprintf("a%d", i), "bot"), models.SessionTypeMusic, "", "", "", &pos, now)
			require.NoError(t, err)
			assert.InDelta(t, tc.wantX, session.Position.X, 1e-9)
			assert.InDelta(t, tc.wantZ, session.Position.Z, 1e-9)
			assert.Equal(t, tc.wantRoom, session.Position.Room)
			if tc.wantStagePush {
				assert.InDelta(t, stagePushRadius, math.Hypot(session.Position.X, session.Position.Z), 1e-9)
			}
		})
	}
}

func TestListKeepsCreationOrder(t *testing.T) {
	now := time.Now()
	s := NewSessions(testRand())

	first := mustStart(t, s, testAgent("a1", "alice"), models.SessionTypeMusic, now)
	second := mustStart(t, s, testAgent("b1", "bob"), models.SessionTypeVisual, now.Add(time.Second))
	third := mustStart(t, s, testAgent("c1", "cara"), models.SessionTypeMusic, now.Add(2*time.Second))

	all := s.List()
	require.Len(t, all, 3)
	assert.Equal(t, []string{first.ID, second.ID, third.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	music := s.ListByType(models.SessionTypeMusic)
	require.Len(t, music, 2)
	assert.Equal(t, first.ID, music[0].ID)
	assert.Equal(t, third.ID, music[1].ID)

	// Destroying the middle session closes the order gap.
	_, err := s.Leave(testAgent("b1", "bob"), "", now)
	require.NoError(t, err)
	all = s.List()
	require.Len(t, all, 2)
	assert.Equal(t, []string{first.ID, third.ID}, []string{all[0].ID, all[1].ID})
}

func TestSessionCopiesDoNotAliasStore(t *testing.T) {
	now := time.Now()
	s := NewSessions(testRand())
	alice := testAgent("a1", "alice")

	session := mustStart(t, s, alice, models.SessionTypeMusic, now)
	session.Participants[0].Pattern = "mutated"
	session.Title = "mutated"

	stored, ok := s.Get(session.ID)
	require.True(t, ok)
	assert.Empty(t, stored.Participants[0].Pattern)
	assert.Empty(t, stored.Title)
}
