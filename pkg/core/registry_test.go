package core

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidation(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		agent    string
		wantCode Code
	}{
		{name: "empty", agent: "", wantCode: CodeNameRequired},
		{name: "spaces", agent: "two words", wantCode: CodeInvalidName},
		{name: "unicode", agent: "böt", wantCode: CodeInvalidName},
		{name: "too long", agent: strings.Repeat("n", 21), wantCode: CodeInvalidName},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry()
			_, err := r.Register(tc.agent, now)
			requireCode(t, err, tc.wantCode)
		})
	}

	t.Run("full character set", func(t *testing.T) {
		r := NewRegistry()
		rec, err := r.Register("ok_name-1.x", now)
		require.NoError(t, err)
		assert.Equal(t, "ok_name-1.x", rec.Name)
		assert.Len(t, rec.Token, 64)
		assert.NotEmpty(t, rec.ID)
	})

	t.Run("duplicate name", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Register("solo", now)
		require.NoError(t, err)
		_, err = r.Register("solo", now)
		requireCode(t, err, CodeNameTaken)
	})
}

func TestTokenLookup(t *testing.T) {
	now := time.Now()
	r := NewRegistry()
	rec, err := r.Register("keyed", now)
	require.NoError(t, err)

	assert.Same(t, rec, r.ByToken(rec.Token))
	assert.Nil(t, r.ByToken(""))
	assert.Nil(t, r.ByToken("deadbeef"))

	assert.Same(t, rec, r.ByID(rec.ID))
	assert.Same(t, rec, r.ByName("keyed"))
	assert.Nil(t, r.ByName("KEYED"), "name lookup is case sensitive")
}

func TestOnlineWindowBoundary(t *testing.T) {
	now := time.Now()
	r := NewRegistry()
	_, err := r.Register("sleepy", now)
	require.NoError(t, err)

	assert.Equal(t, 1, r.OnlineCount(now))
	assert.Equal(t, 1, r.OnlineCount(now.Add(OnlineWindow-time.Second)))
	assert.Equal(t, 0, r.OnlineCount(now.Add(OnlineWindow)), "the window is exclusive at its edge")
}

func TestTouchPresence(t *testing.T) {
	now := time.Now()
	r := NewRegistry()
	rec, err := r.Register("busy", now)
	require.NoError(t, err)

	r.TouchPresence(rec.ID, "writing slot 3", now.Add(time.Minute))
	assert.True(t, rec.LastSeenAt.Equal(now.Add(time.Minute)))
	assert.Equal(t, "writing slot 3", rec.CurrentActivity)

	// An empty activity refreshes the clock without clobbering the label.
	r.TouchPresence(rec.ID, "", now.Add(2*time.Minute))
	assert.True(t, rec.LastSeenAt.Equal(now.Add(2*time.Minute)))
	assert.Equal(t, "writing slot 3", rec.CurrentActivity)

	r.TouchPresence("no-such-id", "ignored", now)
}

func TestOnlineKeepsRegistrationOrder(t *testing.T) {
	now := time.Now()
	r := NewRegistry()

	first, err := r.Register("first", now)
	require.NoError(t, err)
	_, err = r.Register("second", now.Add(time.Second))
	require.NoError(t, err)
	third, err := r.Register("third", now.Add(2*time.Second))
	require.NoError(t, err)

	// Stale in the middle: only the second agent drops out.
	later := now.Add(OnlineWindow + time.Minute)
	r.TouchPresence(first.ID, "", later)
	r.TouchPresence(third.ID, "", later)

	online := r.Online(later)
	require.Len(t, online, 2)
	assert.Equal(t, first.ID, online[0].ID)
	assert.Equal(t, third.ID, online[1].ID)

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{all[0].Name, all[1].Name, all[2].Name})
}

func TestRegistryReset(t *testing.T) {
	now := time.Now()
	r := NewRegistry()
	rec, err := r.Register("gone", now)
	require.NoError(t, err)

	r.Reset()

	assert.Equal(t, 0, r.Count())
	assert.Nil(t, r.ByToken(rec.Token))
	assert.Nil(t, r.ByName("gone"))

	// The name is free again after a reset.
	_, err = r.Register("gone", now)
	require.NoError(t, err)
}
