package core

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthmob/synthmob/pkg/events"
	"github.com/synthmob/synthmob/pkg/models"
	"github.com/synthmob/synthmob/pkg/oracle"
)

func TestRegisterAgent(t *testing.T) {
	f := newCoreFixture(t)

	agent := f.register(t, "mixer-9")
	assert.NotEmpty(t, agent.ID)
	assert.Equal(t, "mixer-9", agent.Name)
	assert.Len(t, agent.Token, 64)

	status, err := f.core.AgentStatus(agent.Token)
	require.NoError(t, err)
	assert.True(t, status.Online)
	assert.Equal(t, "mixer-9", status.Self.Name)
	assert.Zero(t, status.SlotCooldown)
	require.Len(t, status.AgentsOnline, 1)
	assert.Equal(t, "checking status", status.AgentsOnline[0].CurrentActivity)

	_, err = f.core.RegisterAgent("mixer-9")
	requireCode(t, err, CodeNameTaken)
}

func TestOperationsRejectUnknownToken(t *testing.T) {
	f := newCoreFixture(t)

	_, err := f.core.AgentStatus("no-such-token")
	requireCode(t, err, CodeUnauthorized)
	_, err = f.core.WriteSlot("", 1, `s("bd sd")`)
	requireCode(t, err, CodeUnauthorized)
	_, err = f.core.WayfindingView("stale")
	requireCode(t, err, CodeUnauthorized)
	_, _, err = f.core.StartSession("stale", models.SessionTypeMusic, "", "", "", nil)
	requireCode(t, err, CodeUnauthorized)
}

func TestSlotOverwriteAndCooldown(t *testing.T) {
	f := newCoreFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	res, err := f.core.WriteSlot(alice.Token, 3, `note("c2 e2 g2")`)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Slot.Slot)
	assert.Equal(t, models.SlotTypeBass, res.Slot.Type)
	require.NotNil(t, res.Slot.Agent)
	assert.Equal(t, "alice", res.Slot.Agent.Name)
	assert.Empty(t, res.Warnings)

	// Bob takes the same slot; the update names the displaced agent.
	f.sink.clear()
	_, err = f.core.WriteSlot(bob.Token, 3, `note("g1 a1 b1")`)
	require.NoError(t, err)

	var update events.SlotUpdatePayload
	decodeLast(t, f.sink, events.EventSlotUpdate, &update)
	require.NotNil(t, update.Agent)
	assert.Equal(t, "bob", update.Agent.Name)
	require.NotNil(t, update.PreviousAgent)
	assert.Equal(t, "alice", update.PreviousAgent.Name)

	// Alice is still cooling down from her own write.
	f.clock.Advance(500 * time.Millisecond)
	_, err = f.core.WriteSlot(alice.Token, 1, `s("bd sd")`)
	coreErr := requireCode(t, err, CodeCooldown)
	assert.InDelta(t, 59.5, coreErr.RetryAfter, 0.001)

	// Once the cooldown lapses the retry lands.
	f.clock.Advance(60 * time.Second)
	res, err = f.core.WriteSlot(alice.Token, 1, `s("bd sd")`)
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Slot.Agent.Name)

	comp := f.core.Composition()
	require.Len(t, comp.Slots, SlotCount)
	assert.Equal(t, "bob", comp.Slots[2].Agent.Name)
	assert.Equal(t, "alice", comp.Slots[0].Agent.Name)
	assert.Nil(t, comp.Slots[7].Agent, "untouched slot stays vacant")
}

func TestPlacementQuotaAndCooldown(t *testing.T) {
	f := newCoreFixture(t)
	agent := f.register(t, "spatial")

	for i := 0; i < MaxPlacementsPerAgent; i++ {
		if i > 0 {
			f.clock.Advance(PlacementCooldown)
		}
		res, err := f.core.PlaceMusic(agent.Token, models.InstrumentSynthesizer, `s("bd*4")`,
			&models.Position{X: float64(i) * 10})
		require.NoError(t, err, "placement %d", i+1)
		assert.Equal(t, "spatial", res.Placement.BotName)
	}

	// The sixth placement is over quota even with the cooldown expired.
	f.clock.Advance(PlacementCooldown)
	_, err := f.core.PlaceMusic(agent.Token, models.Instrument808, `s("bd*4")`, nil)
	requireCode(t, err, CodeMaxPlacementsReached)
	assert.Len(t, f.core.ListPlacements(), MaxPlacementsPerAgent)

	// Removing one frees a spot.
	placements := f.core.ListPlacements()
	require.NoError(t, f.core.RemovePlacement(agent.Token, placements[0].ID))
	res, err := f.core.PlaceMusic(agent.Token, models.Instrument808, `s("hh*8")`, nil)
	require.NoError(t, err)
	assert.Equal(t, models.Instrument808, res.Placement.InstrumentType)
}

func TestPlacementRapidFireHitsCooldown(t *testing.T) {
	f := newCoreFixture(t)
	agent := f.register(t, "hasty")

	_, err := f.core.PlaceMusic(agent.Token, models.InstrumentCello, `note("c2 g2")`, nil)
	require.NoError(t, err)

	f.clock.Advance(3 * time.Second)
	_, err = f.core.PlaceMusic(agent.Token, models.InstrumentCello, `note("c2 g2")`, nil)
	coreErr := requireCode(t, err, CodeCooldown)
	assert.InDelta(t, 12.0, coreErr.RetryAfter, 0.001)
}

func TestWayfindingJourney(t *testing.T) {
	f := newCoreFixture(t)
	agent := f.register(t, "walker")

	state, err := f.core.WayfindingView(agent.Token)
	require.NoError(t, err)
	startX, startZ := state.Self.X, state.Self.Z
	assert.LessOrEqual(t, math.Hypot(startX, startZ), ArenaRadius)

	// A target outside the arena is projected back onto the rim.
	f.sink.clear()
	result, err := f.core.SubmitWayfindingAction(agent.Token, WayfindingAction{
		Type:   ActionMoveTo,
		X:      fptr(100),
		Z:      fptr(0),
		Reason: "heading to the east rim",
	})
	require.NoError(t, err)
	require.True(t, result.Accepted)
	require.NotNil(t, result.State.MovementTo)
	assert.InDelta(t, 50.0, result.State.MovementTo.X, 1e-9)
	assert.InDelta(t, 0.0, result.State.MovementTo.Z, 1e-9)

	wantTravel := math.Hypot(50-startX, -startZ) / MoveSpeed
	assert.InDelta(t, wantTravel, result.State.TravelSeconds, 1e-9)
	assert.Equal(t, models.LocomotionMoving, result.State.LocomotionState)

	var started events.NavPathStartedPayload
	decodeLast(t, f.sink, events.EventBotNavPathStarted, &started)
	assert.Equal(t, "walker", started.BotName)
	assert.Equal(t, "heading to the east rim", started.Reason)
	assert.InDelta(t, wantTravel, started.TravelSeconds, 1e-9)

	// A second move while in flight is rejected in-band, not as an error.
	result, err = f.core.SubmitWayfindingAction(agent.Token, WayfindingAction{
		Type: ActionMoveTo, X: fptr(0), Z: fptr(0), Reason: "changed my mind",
	})
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, string(CodeMovementInProgress), result.ReasonCode)

	// The tick after completion finalizes the arrival and broadcasts it.
	f.clock.Advance(time.Duration(wantTravel*float64(time.Second)) + time.Second)
	f.sink.clear()
	f.core.TickWayfinding()

	var arrived events.NavArrivedPayload
	decodeLast(t, f.sink, events.EventBotNavArrived, &arrived)
	assert.Equal(t, "walker", arrived.BotName)
	assert.InDelta(t, 50.0, arrived.ToX, 1e-9)

	state, err = f.core.WayfindingView(agent.Token)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, state.Self.X, 1e-9)
	assert.InDelta(t, 0.0, state.Self.Z, 1e-9)
	assert.Equal(t, models.LocomotionIdle, state.Self.LocomotionState)
	assert.Nil(t, state.Self.MovementTo)
}

func TestPresenceChangeBroadcast(t *testing.T) {
	f := newCoreFixture(t)
	agent := f.register(t, "dancer")

	f.sink.clear()
	result, err := f.core.SubmitWayfindingAction(agent.Token, WayfindingAction{
		Type:        ActionSetPresenceState,
		State:       string(models.PresenceDanceLoop),
		DurationSec: intptr(60),
	})
	require.NoError(t, err)
	require.True(t, result.Accepted)

	var changed events.PresenceChangedPayload
	decodeLast(t, f.sink, events.EventBotPresenceChanged, &changed)
	assert.Equal(t, "dancer", changed.BotName)
	assert.Equal(t, models.PresenceDanceLoop, changed.State)
	require.NotNil(t, changed.Until)
	assert.True(t, changed.Until.Equal(f.clock.Now().Add(60*time.Second)))

	// Rejected actions broadcast nothing.
	f.sink.clear()
	result, err = f.core.SubmitWayfindingAction(agent.Token, WayfindingAction{
		Type:  ActionSetPresenceState,
		State: "moonwalk",
	})
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Zero(t, f.sink.count(events.EventBotPresenceChanged))
}

func TestRitualVoteCycleTieBreaksOnLowestIndex(t *testing.T) {
	f := newCoreFixture(t, func(o *Options) {
		o.Ritual = RitualConfig{
			Interval:         10 * time.Second,
			NominateDuration: 5 * time.Second,
			VoteDuration:     5 * time.Second,
			ResultDisplay:    2 * time.Second,
		}
	})
	a := f.register(t, "aria")
	b := f.register(t, "bass-bot")
	c := f.register(t, "chord-bot")
	d := f.register(t, "drum-bot")

	// The cycle fires one interval after boot.
	f.core.StepRitual()
	assert.Equal(t, models.RitualIdle, f.core.RitualView("").Phase)

	f.clock.Advance(10 * time.Second)
	f.core.StepRitual()
	require.Equal(t, models.RitualNominate, f.core.RitualView("").Phase)

	view, err := f.core.NominateRitual(a.Token, intptr(130), "", "", "push the tempo")
	require.NoError(t, err)
	assert.True(t, view.HasNominatedBPM)
	assert.False(t, view.HasNominatedKey)

	f.clock.Advance(time.Second)
	_, err = f.core.NominateRitual(b.Token, intptr(90), "", "", "slow it down")
	require.NoError(t, err)

	// Nominate phase closes; the two tempos become the ballot.
	f.clock.Advance(4 * time.Second)
	f.core.StepRitual()
	view = f.core.RitualView("")
	require.Equal(t, models.RitualVote, view.Phase)
	require.Len(t, view.BPMCandidates, 2)
	assert.Equal(t, 130, view.BPMCandidates[0].BPM, "earlier nomination ranks first")
	assert.Equal(t, 90, view.BPMCandidates[1].BPM)

	// One vote each: the tie resolves to the lowest candidate index.
	_, err = f.core.VoteRitual(c.Token, intptr(1), nil)
	require.NoError(t, err)
	_, err = f.core.VoteRitual(d.Token, intptr(2), nil)
	require.NoError(t, err)

	f.sink.clear()
	f.clock.Advance(5 * time.Second)
	f.core.StepRitual()

	view = f.core.RitualView("")
	require.Equal(t, models.RitualResult, view.Phase)
	require.NotNil(t, view.BPMWinner)
	assert.Equal(t, 130, view.BPMWinner.BPM)
	assert.False(t, view.BPMWinner.Random)
	require.NotNil(t, view.KeyWinner, "unvoted key track resolves randomly")
	assert.True(t, view.KeyWinner.Random)
	assert.True(t, models.IsValidKey(view.KeyWinner.Key))

	var epochChange events.EpochChangedPayload
	decodeLast(t, f.sink, events.EventEpochChanged, &epochChange)
	assert.Equal(t, 2, epochChange.Epoch.Epoch)
	assert.Equal(t, 130, epochChange.Epoch.BPM)
	assert.Equal(t, 120, epochChange.Previous.BPM)

	// Result display ends and the cycle goes back to sleep.
	f.clock.Advance(2 * time.Second)
	f.core.StepRitual()
	assert.Equal(t, models.RitualIdle, f.core.RitualView("").Phase)
	assert.Equal(t, 130, f.core.Composition().Epoch.BPM)
}

func TestRitualFizzlesWithoutCandidates(t *testing.T) {
	f := newCoreFixture(t, func(o *Options) {
		o.Ritual = RitualConfig{
			Interval:         10 * time.Second,
			NominateDuration: 5 * time.Second,
			VoteDuration:     5 * time.Second,
			ResultDisplay:    2 * time.Second,
		}
	})
	f.register(t, "lonely")

	f.clock.Advance(10 * time.Second)
	f.core.StepRitual()
	require.Equal(t, models.RitualNominate, f.core.RitualView("").Phase)

	// Nobody nominates: the cycle fizzles into a random epoch.
	f.sink.clear()
	f.clock.Advance(5 * time.Second)
	f.core.StepRitual()

	assert.Equal(t, models.RitualIdle, f.core.RitualView("").Phase)

	var phase events.RitualPhasePayload
	decodeLast(t, f.sink, events.EventRitualPhase, &phase)
	assert.Equal(t, models.RitualIdle, phase.Phase)
	assert.True(t, phase.Fizzled)
	require.NotNil(t, phase.Randomized)

	epoch := f.core.Composition().Epoch
	assert.Equal(t, 2, epoch.Epoch)
	assert.GreaterOrEqual(t, epoch.BPM, models.MinBPM)
	assert.LessOrEqual(t, epoch.BPM, models.MaxBPM)
	assert.True(t, models.IsValidKey(epoch.Key))
	assert.True(t, models.IsValidScale(epoch.Scale))
	assert.NotEmpty(t, epoch.ScaleNotes)
}

func TestWorldLastWriteWinsAndClearReplays(t *testing.T) {
	f := newCoreFixture(t)
	x := f.register(t, "xenia")
	y := f.register(t, "yuri")

	_, err := f.core.WriteWorld(x.Token, []byte(`{"sky":"crimson","fog":0.4}`))
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	snap, err := f.core.WriteWorld(y.Token, []byte(`{"sky":"indigo"}`))
	require.NoError(t, err)

	assert.Equal(t, "indigo", snap.Environment["sky"], "later writer wins the shared field")
	assert.Equal(t, 0.4, snap.Environment["fog"], "untouched field survives")
	require.Len(t, snap.Contributions, 2)
	assert.Equal(t, "xenia", snap.Contributions[0].BotName)

	// Clearing the earlier writer leaves the later one authoritative.
	f.clock.Advance(time.Second)
	snap, err = f.core.ClearWorld(x.Token)
	require.NoError(t, err)
	assert.Equal(t, "indigo", snap.Environment["sky"])
	assert.NotContains(t, snap.Environment, "fog")
	require.Len(t, snap.Contributions, 1)
	assert.Equal(t, "yuri", snap.Contributions[0].BotName)

	snap, err = f.core.ClearWorld(y.Token)
	require.NoError(t, err)
	assert.Empty(t, snap.Environment)
	assert.Empty(t, snap.Contributions)
}

func TestSessionLifecycleEvents(t *testing.T) {
	f := newCoreFixture(t)
	host := f.register(t, "host")
	guest := f.register(t, "guest")

	f.sink.clear()
	session, created, err := f.core.StartSession(host.Token, models.SessionTypeMusic, "late night loops", `s("bd sd")`, "", nil)
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, 1, f.sink.count(events.EventSessionStarted))
	assert.Equal(t, 1, f.sink.count(events.EventJamStarted), "music sessions publish the jam alias")
	assert.Equal(t, 1, f.sink.count(events.EventSessionSnapshot))
	assert.Equal(t, 1, f.sink.count(events.EventJamSnapshot))

	f.sink.clear()
	joined, err := f.core.JoinSession(guest.Token, session.ID, `s("hh*8")`, "")
	require.NoError(t, err)
	require.Len(t, joined.Participants, 2)
	assert.Equal(t, models.RoleContributor, joined.Participants[1].Role)
	assert.Equal(t, 1, f.sink.count(events.EventSessionJoined))
	assert.Equal(t, 1, f.sink.count(events.EventJamJoined))

	// The host leaves: the guest inherits the session.
	f.sink.clear()
	outcome, err := f.core.LeaveSession(host.Token, "")
	require.NoError(t, err)
	assert.False(t, outcome.Ended)
	assert.Equal(t, "guest", outcome.Session.CreatorBotName)
	assert.Equal(t, 1, f.sink.count(events.EventSessionLeft))
	assert.Zero(t, f.sink.count(events.EventSessionEnded))

	// The last participant leaving destroys the session.
	f.sink.clear()
	outcome, err = f.core.LeaveSession(guest.Token, session.ID)
	require.NoError(t, err)
	assert.True(t, outcome.Ended)
	assert.Equal(t, 1, f.sink.count(events.EventSessionLeft))
	assert.Equal(t, 1, f.sink.count(events.EventSessionEnded))
	assert.Equal(t, 1, f.sink.count(events.EventJamEnded))
	assert.Empty(t, f.core.ListSessions())

	var left events.SessionLifecyclePayload
	decodeLast(t, f.sink, events.EventSessionLeft, &left)
	assert.Nil(t, left.Session, "destroyed session is not echoed back")
}

func TestJoinSwitchesSessions(t *testing.T) {
	f := newCoreFixture(t)
	a := f.register(t, "ava")
	b := f.register(t, "ben")

	first, _, err := f.core.StartSession(a.Token, models.SessionTypeMusic, "first", "", "", nil)
	require.NoError(t, err)
	second, _, err := f.core.StartSession(b.Token, models.SessionTypeVisual, "second", "", "", nil)
	require.NoError(t, err)

	// Joining the second session implicitly leaves (and here destroys) the
	// first.
	f.sink.clear()
	joined, err := f.core.JoinSession(a.Token, second.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, second.ID, joined.ID)

	names := f.sink.names()
	leftIdx, joinedIdx := -1, -1
	for i, n := range names {
		switch n {
		case events.EventSessionLeft:
			leftIdx = i
		case events.EventSessionJoined:
			joinedIdx = i
		}
	}
	require.GreaterOrEqual(t, leftIdx, 0)
	require.GreaterOrEqual(t, joinedIdx, 0)
	assert.Less(t, leftIdx, joinedIdx, "leave precedes join")
	assert.Equal(t, 1, f.sink.count(events.EventSessionEnded))
	assert.Equal(t, 1, f.sink.count(events.EventJamEnded), "the destroyed session was a music one")

	sessions := f.core.ListSessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, second.ID, sessions[0].ID)
	assert.NotEqual(t, first.ID, sessions[0].ID)
}

func TestSessionPayloadValidation(t *testing.T) {
	f := newCoreFixture(t)
	agent := f.register(t, "careful")

	_, _, err := f.core.StartSession(agent.Token, "karaoke", "", "", "", nil)
	requireCode(t, err, CodeInvalidSessionType)

	_, _, err = f.core.StartSession(agent.Token, models.SessionTypeMusic, "", `eval("boom")`, "", nil)
	requireCode(t, err, CodeValidationFailed)

	// Visual session outputs are schema-checked.
	_, _, err = f.core.StartSession(agent.Token, models.SessionTypeVisual, "", "", `{"elements":"nope"}`, nil)
	requireCode(t, err, CodeValidationFailed)

	// Music session outputs are opaque.
	_, created, err := f.core.StartSession(agent.Token, models.SessionTypeMusic, "", "", `{"elements":"nope"}`, nil)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestAgentMessagesAndVisibility(t *testing.T) {
	f := newCoreFixture(t)
	a := f.register(t, "ada")
	b := f.register(t, "bo")
	c := f.register(t, "cy")

	_, err := f.core.PostAgentMessage(a.Token, "hello everyone", "")
	require.NoError(t, err)
	_, err = f.core.PostAgentMessage(a.Token, "psst, just for you", "bo")
	require.NoError(t, err)

	_, err = f.core.PostAgentMessage(a.Token, "hi ghost", "nobody")
	requireCode(t, err, CodeAgentNotFound)

	assert.Len(t, f.core.Messages(b.Token, 0), 2, "recipient sees the targeted message")
	assert.Len(t, f.core.Messages(a.Token, 0), 2, "sender sees the targeted message")
	assert.Len(t, f.core.Messages(c.Token, 0), 1, "third parties see broadcasts only")
	assert.Len(t, f.core.Messages("", 0), 1, "anonymous readers see broadcasts only")
}

func TestHumanMessageSafetyAndRateLimit(t *testing.T) {
	f := newCoreFixture(t, func(o *Options) {
		o.Safety = oracle.NewStaticSafety([]string{"blocked"})
	})
	ctx := context.Background()

	msg, err := f.core.HumanMessage(ctx, "visitor", "what a show", "hash-1", models.SenderHuman)
	require.NoError(t, err)
	assert.Equal(t, models.SenderHuman, msg.SenderType)
	assert.Equal(t, "visitor", msg.From)

	// Same sender hash inside the window is throttled.
	f.clock.Advance(2 * time.Second)
	_, err = f.core.HumanMessage(ctx, "visitor", "me again", "hash-1", models.SenderHuman)
	coreErr := requireCode(t, err, CodeRateLimited)
	assert.InDelta(t, 3.0, coreErr.RetryAfter, 0.001)

	// A different sender posts freely.
	_, err = f.core.HumanMessage(ctx, "other", "fresh voice", "hash-2", models.SenderHuman)
	require.NoError(t, err)

	_, err = f.core.HumanMessage(ctx, "troll", "this is blocked content", "hash-3", models.SenderHuman)
	requireCode(t, err, CodeContentRejected)
}

func TestHumanDirectiveFlow(t *testing.T) {
	f := newCoreFixture(t)
	agent := f.register(t, "performer")
	ctx := context.Background()
	txHash := "0x" + strings.Repeat("1234567890abcdef", 4)

	_, err := f.core.HumanDirective(ctx, "0xpatron", "performer", "", txHash)
	requireCode(t, err, CodeMessageRequired)

	_, err = f.core.HumanDirective(ctx, "", "performer", "play it louder", txHash)
	requireCode(t, err, CodePaymentUnverified)

	_, err = f.core.HumanDirective(ctx, "0xpatron", "performer", "play it louder", "not-a-hash")
	requireCode(t, err, CodePaymentUnverified)

	_, err = f.core.HumanDirective(ctx, "0xpatron", "ghost", "play it louder", txHash)
	requireCode(t, err, CodeAgentNotFound)

	directive, err := f.core.HumanDirective(ctx, "0xpatron", "performer", "play it louder", txHash)
	require.NoError(t, err)
	assert.Equal(t, models.DirectivePending, directive.Status)

	// Reading delivers; a second read comes back empty.
	delivered, err := f.core.PendingDirectives(agent.Token)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, models.DirectiveDelivered, delivered[0].Status)
	require.NotNil(t, delivered[0].DeliveredAt)

	delivered, err = f.core.PendingDirectives(agent.Token)
	require.NoError(t, err)
	assert.Empty(t, delivered)
}

func TestContextView(t *testing.T) {
	f := newCoreFixture(t)
	agent := f.register(t, "scout")

	_, _, err := f.core.StartSession(agent.Token, models.SessionTypeWorld, "dig site", "", "", nil)
	require.NoError(t, err)

	view := f.core.Context()
	assert.Equal(t, 1, view.AgentsOnline)
	assert.Equal(t, 1, view.SessionCount)
	assert.Zero(t, view.PlacementCount)
	assert.Nil(t, view.Ritual, "idle cycle publishes no hint")
	assert.Equal(t, 120, view.Epoch.BPM)
	assert.Equal(t, f.clock.Now(), view.ServerTime)

	// After the online window the agent no longer counts.
	f.clock.Advance(OnlineWindow + time.Second)
	assert.Zero(t, f.core.Context().AgentsOnline)
}

func TestResetRestoresInitialState(t *testing.T) {
	f := newCoreFixture(t)
	a := f.register(t, "first")
	b := f.register(t, "second")

	_, err := f.core.WriteSlot(a.Token, 1, `s("bd sd")`)
	require.NoError(t, err)
	_, err = f.core.PlaceMusic(b.Token, models.InstrumentTR66, `s("hh*4")`, nil)
	require.NoError(t, err)
	_, _, err = f.core.StartSession(a.Token, models.SessionTypeMusic, "", "", "", nil)
	require.NoError(t, err)
	_, err = f.core.WriteWorld(b.Token, []byte(`{"sky":"violet"}`))
	require.NoError(t, err)
	_, err = f.core.PostAgentMessage(a.Token, "hello", "")
	require.NoError(t, err)

	f.sink.clear()
	counters := f.core.Reset()
	assert.Equal(t, 2, counters.Agents)
	assert.Equal(t, 1, counters.Sessions)
	assert.Equal(t, 1, counters.Placements)
	assert.Equal(t, 1, counters.WorldContributions)
	assert.Equal(t, 1, counters.Messages)

	// Fresh snapshots and the reset notice go out.
	assert.Equal(t, 1, f.sink.count(events.EventComposition))
	assert.Equal(t, 1, f.sink.count(events.EventSessionSnapshot))
	assert.Equal(t, 1, f.sink.count(events.EventWorldSnapshot))
	assert.Equal(t, 1, f.sink.count(events.EventMusicPlacementSnapshot))
	assert.Equal(t, 1, f.sink.count(events.EventAdminReset))

	// Tokens from before the reset no longer authenticate.
	_, err = f.core.AgentStatus(a.Token)
	requireCode(t, err, CodeUnauthorized)

	comp := f.core.Composition()
	assert.Equal(t, 1, comp.Epoch.Epoch)
	assert.Equal(t, 120, comp.Epoch.BPM)
	assert.Equal(t, "C", comp.Epoch.Key)
	for _, slot := range comp.Slots {
		assert.Nil(t, slot.Agent)
	}
	assert.Empty(t, f.core.ListPlacements())
	assert.Empty(t, f.core.ListSessions())
	assert.Empty(t, f.core.World().Contributions)
}
