package core

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/synthmob/synthmob/pkg/events"
	"github.com/synthmob/synthmob/pkg/models"
	"github.com/synthmob/synthmob/pkg/oracle"
	"github.com/synthmob/synthmob/pkg/validator"
)

// Initial epoch parameters, restored on reset.
const (
	initialBPM   = 120
	initialKey   = "C"
	initialScale = "pentatonic"
)

// Options configures a Core. Zero values select production defaults; tests
// inject a fixed clock and a seeded random source.
type Options struct {
	Ritual   RitualConfig
	Safety   oracle.SafetyVerifier
	Payments oracle.PaymentVerifier
	Clock    func() time.Time
	Rand     *rand.Rand
}

// Core is the single serialization point for all mutable world state. One
// mutex guards every component; operations authenticate, touch presence,
// validate, mutate, then publish, in that order. Every value handed out is
// a deep copy.
type Core struct {
	mu  sync.Mutex
	now func() time.Time
	rng *rand.Rand

	bus        *events.Bus
	registry   *Registry
	slots      *SlotBoard
	placements *Placements
	sessions   *Sessions
	world      *WorldStore
	wayfinding *Wayfinding
	ritual     *Ritual
	messaging  *Messaging

	safety   oracle.SafetyVerifier
	payments oracle.PaymentVerifier

	epoch models.Epoch
}

// New wires a Core onto the given bus.
func New(bus *events.Bus, opts Options) *Core {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Rand == nil {
		seed := uint64(opts.Clock().UnixNano())
		opts.Rand = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if opts.Safety == nil {
		opts.Safety = oracle.NewStaticSafety(nil)
	}
	if opts.Payments == nil {
		opts.Payments = oracle.NewStaticPayments()
	}

	now := opts.Clock()
	c := &Core{
		now:        opts.Clock,
		rng:        opts.Rand,
		bus:        bus,
		registry:   NewRegistry(),
		slots:      NewSlotBoard(),
		placements: NewPlacements(),
		sessions:   NewSessions(opts.Rand),
		world:      NewWorldStore(),
		wayfinding: NewWayfinding(opts.Rand),
		ritual:     NewRitual(opts.Ritual, opts.Rand, now),
		messaging:  NewMessaging(),
		safety:     opts.Safety,
		payments:   opts.Payments,
		epoch:      initialEpoch(now),
	}
	return c
}

func initialEpoch(now time.Time) models.Epoch {
	return models.Epoch{
		Epoch:      1,
		BPM:        initialBPM,
		Key:        initialKey,
		Scale:      initialScale,
		ScaleNotes: models.ScaleNotes(initialKey, initialScale),
		StartedAt:  now,
	}
}

// ── Agents ──

// RegisterAgent creates an agent and spawns it on the arena.
func (c *Core) RegisterAgent(name string) (models.RegisteredAgent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	agent, err := c.registry.Register(name, now)
	if err != nil {
		return models.RegisteredAgent{}, err
	}
	c.wayfinding.EnsureState(agent, now)
	return models.RegisteredAgent{ID: agent.ID, Name: agent.Name, Token: agent.Token}, nil
}

// AgentStatus returns the authenticated self view plus the online roster.
func (c *Core) AgentStatus(token string) (models.AgentStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, err := c.authenticate(token)
	if err != nil {
		return models.AgentStatus{}, err
	}
	now := c.now()
	c.registry.TouchPresence(agent.ID, "checking status", now)

	return models.AgentStatus{
		Self:         publicView(agent),
		Online:       true,
		LastSeenAt:   agent.LastSeenAt,
		SessionID:    c.sessions.SessionIDOf(agent.ID),
		SlotCooldown: c.slots.CooldownRemaining(agent.ID, now),
		AgentsOnline: c.onlineViewsLocked(now),
	}, nil
}

// ── Composition board ──

// Composition returns the 8-slot board, all placements, and the epoch.
func (c *Core) Composition() models.Composition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compositionLocked()
}

func (c *Core) compositionLocked() models.Composition {
	return models.Composition{
		Slots:      c.slots.Views(c.resolvePublic),
		Placements: c.placements.List(),
		Epoch:      c.epoch,
	}
}

// Context returns the unauthenticated arena overview.
func (c *Core) Context() models.ContextView {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	return models.ContextView{
		Epoch:          c.epoch,
		AgentsOnline:   c.registry.OnlineCount(now),
		SessionCount:   c.sessions.Count(),
		PlacementCount: c.placements.Count(),
		Ritual:         c.ritual.Hint(now),
		ServerTime:     now,
	}
}

// SlotWriteResult is a successful slot write: the refreshed slot plus any
// validator warnings.
type SlotWriteResult struct {
	Slot     models.SlotView `json:"slot"`
	Warnings []string        `json:"warnings"`
}

// WriteSlot validates and writes a pattern into a board slot.
func (c *Core) WriteSlot(token string, slotID int, code string) (SlotWriteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, err := c.authenticate(token)
	if err != nil {
		return SlotWriteResult{}, err
	}
	now := c.now()
	c.registry.TouchPresence(agent.ID, "writing the board", now)

	write, err := c.slots.Write(agent, slotID, code, now)
	if err != nil {
		return SlotWriteResult{}, err
	}

	updatedAt := write.UpdatedAt
	view := models.SlotView{
		Slot:      write.Slot,
		Type:      write.Type,
		Label:     write.Label,
		Code:      write.Code,
		Agent:     c.resolvePublic(agent.ID),
		UpdatedAt: &updatedAt,
	}
	c.bus.Publish(events.EventSlotUpdate, events.SlotUpdatePayload{
		Slot:          write.Slot,
		Type:          write.Type,
		Label:         write.Label,
		Code:          write.Code,
		Agent:         c.resolvePublic(agent.ID),
		PreviousAgent: c.resolvePublic(write.PreviousAgentID),
		UpdatedAt:     write.UpdatedAt,
	})

	return SlotWriteResult{Slot: view, Warnings: emptyIfNil(write.Warnings)}, nil
}

// ── Music placements ──

// ListPlacements returns every active placement.
func (c *Core) ListPlacements() []models.Placement {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.placements.List()
}

// PlacementResult is a successful placement write plus validator warnings.
type PlacementResult struct {
	Placement models.Placement `json:"placement"`
	Warnings  []string         `json:"warnings"`
}

// PlaceMusic creates a spatial instrument placement.
func (c *Core) PlaceMusic(token string, instrument models.InstrumentType, pattern string, pos *models.Position) (PlacementResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, err := c.authenticate(token)
	if err != nil {
		return PlacementResult{}, err
	}
	now := c.now()
	c.registry.TouchPresence(agent.ID, "placing music", now)

	placement, warnings, err := c.placements.Place(agent, instrument, pattern, pos, now)
	if err != nil {
		return PlacementResult{}, err
	}
	c.publishPlacementsLocked()
	return PlacementResult{Placement: placement, Warnings: emptyIfNil(warnings)}, nil
}

// UpdatePlacement replaces the pattern of an owned placement.
func (c *Core) UpdatePlacement(token, placementID, pattern string) (PlacementResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, err := c.authenticate(token)
	if err != nil {
		return PlacementResult{}, err
	}
	now := c.now()
	c.registry.TouchPresence(agent.ID, "placing music", now)

	placement, warnings, err := c.placements.Update(agent, placementID, pattern, now)
	if err != nil {
		return PlacementResult{}, err
	}
	c.publishPlacementsLocked()
	return PlacementResult{Placement: placement, Warnings: emptyIfNil(warnings)}, nil
}

// RemovePlacement deletes an owned placement.
func (c *Core) RemovePlacement(token, placementID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, err := c.authenticate(token)
	if err != nil {
		return err
	}
	c.registry.TouchPresence(agent.ID, "placing music", c.now())

	if err := c.placements.Remove(agent, placementID); err != nil {
		return err
	}
	c.publishPlacementsLocked()
	return nil
}

func (c *Core) publishPlacementsLocked() {
	c.bus.Publish(events.EventMusicPlacementSnapshot, events.PlacementSnapshotPayload{
		Placements: c.placements.List(),
	})
}

// ── World ──

// World returns the aggregate world snapshot.
func (c *Core) World() models.WorldSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.world.Snapshot()
}

// WriteWorld validates and stores the agent's world output.
func (c *Core) WriteWorld(token string, output []byte) (models.WorldSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, err := c.authenticate(token)
	if err != nil {
		return models.WorldSnapshot{}, err
	}
	now := c.now()
	c.registry.TouchPresence(agent.ID, "building the world", now)

	if err := c.world.Write(agent, output, now); err != nil {
		return models.WorldSnapshot{}, err
	}
	snap := c.world.Snapshot()
	c.bus.Publish(events.EventWorldSnapshot, snap)
	return snap, nil
}

// ClearWorld removes the agent's world contribution.
func (c *Core) ClearWorld(token string) (models.WorldSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, err := c.authenticate(token)
	if err != nil {
		return models.WorldSnapshot{}, err
	}
	now := c.now()
	c.registry.TouchPresence(agent.ID, "building the world", now)

	c.world.Clear(agent.ID, now)
	snap := c.world.Snapshot()
	c.bus.Publish(events.EventWorldSnapshot, snap)
	return snap, nil
}

// ── Sessions ──

// ListSessions returns every active session in creation order.
func (c *Core) ListSessions() []models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions.List()
}

// ListSessionsByType returns the active sessions of one type.
func (c *Core) ListSessionsByType(typ models.SessionType) []models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions.ListByType(typ)
}

// StartSession opens a session with the caller as creator. The boolean is
// false when the caller was already in a session and got it back instead.
func (c *Core) StartSession(token string, typ models.SessionType, title, pattern, output string, pos *models.Position) (models.Session, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, err := c.authenticate(token)
	if err != nil {
		return models.Session{}, false, err
	}
	now := c.now()
	c.registry.TouchPresence(agent.ID, "in a session", now)

	if !typ.IsValid() {
		return models.Session{}, false, NewErrorf(CodeInvalidSessionType, "unknown session type %q", typ)
	}
	if err := validateSessionPayload(typ, pattern, output); err != nil {
		return models.Session{}, false, err
	}

	session, created, err := c.sessions.Start(agent, typ, title, pattern, output, pos, now)
	if err != nil {
		return models.Session{}, false, err
	}
	if created {
		c.publishSessionLifecycleLocked(events.EventSessionStarted, session.Type, events.SessionLifecyclePayload{
			SessionID: session.ID,
			Type:      session.Type,
			BotName:   agent.Name,
			Session:   &session,
		})
		c.publishSessionSnapshotsLocked(session.Type == models.SessionTypeMusic)
	}
	return session, created, nil
}

// JoinSession adds the caller to a session, auto-leaving any other.
func (c *Core) JoinSession(token, sessionID, pattern, output string) (models.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, err := c.authenticate(token)
	if err != nil {
		return models.Session{}, err
	}
	now := c.now()
	c.registry.TouchPresence(agent.ID, "in a session", now)

	target, ok := c.sessions.Get(sessionID)
	if !ok {
		return models.Session{}, NewError(CodeSessionNotFound, "session not found")
	}
	if err := validateSessionPayload(target.Type, pattern, output); err != nil {
		return models.Session{}, err
	}

	session, left, err := c.sessions.Join(agent, sessionID, pattern, output, now)
	if err != nil {
		return models.Session{}, err
	}

	musicInvolved := session.Type == models.SessionTypeMusic
	if left != nil {
		c.publishLeaveLocked(agent.Name, *left)
		musicInvolved = musicInvolved || left.Session.Type == models.SessionTypeMusic
	}
	c.publishSessionLifecycleLocked(events.EventSessionJoined, session.Type, events.SessionLifecyclePayload{
		SessionID: session.ID,
		Type:      session.Type,
		BotName:   agent.Name,
		Session:   &session,
	})
	c.publishSessionSnapshotsLocked(musicInvolved)
	return session, nil
}

// UpdateSessionOutput refreshes the caller's contribution in a session.
func (c *Core) UpdateSessionOutput(token, sessionID, pattern, output string) (models.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, err := c.authenticate(token)
	if err != nil {
		return models.Session{}, err
	}
	now := c.now()
	c.registry.TouchPresence(agent.ID, "in a session", now)

	target, ok := c.sessions.Get(sessionID)
	if !ok {
		return models.Session{}, NewError(CodeSessionNotFound, "session not found")
	}
	if err := validateSessionPayload(target.Type, pattern, output); err != nil {
		return models.Session{}, err
	}

	session, err := c.sessions.UpdateOutput(agent, sessionID, pattern, output, now)
	if err != nil {
		return models.Session{}, err
	}
	c.publishSessionLifecycleLocked(events.EventSessionOutputUpdated, session.Type, events.SessionLifecyclePayload{
		SessionID: session.ID,
		Type:      session.Type,
		BotName:   agent.Name,
		Session:   &session,
	})
	c.publishSessionSnapshotsLocked(session.Type == models.SessionTypeMusic)
	return session, nil
}

// LeaveSession removes the caller from a session; with an empty id, from
// whichever session they are in.
func (c *Core) LeaveSession(token, sessionID string) (LeaveOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, err := c.authenticate(token)
	if err != nil {
		return LeaveOutcome{}, err
	}
	now := c.now()
	c.registry.TouchPresence(agent.ID, "in a session", now)

	outcome, err := c.sessions.Leave(agent, sessionID, now)
	if err != nil {
		return LeaveOutcome{}, err
	}
	c.publishLeaveLocked(agent.Name, outcome)
	c.publishSessionSnapshotsLocked(outcome.Session.Type == models.SessionTypeMusic)
	return outcome, nil
}

func (c *Core) publishLeaveLocked(botName string, outcome LeaveOutcome) {
	payload := events.SessionLifecyclePayload{
		SessionID: outcome.Session.ID,
		Type:      outcome.Session.Type,
		BotName:   botName,
	}
	if !outcome.Ended {
		session := outcome.Session
		payload.Session = &session
	}
	c.publishSessionLifecycleLocked(events.EventSessionLeft, outcome.Session.Type, payload)

	if outcome.Ended {
		c.publishSessionLifecycleLocked(events.EventSessionEnded, outcome.Session.Type, events.SessionLifecyclePayload{
			SessionID: outcome.Session.ID,
			Type:      outcome.Session.Type,
		})
	}
}

// jamAlias maps session events to their legacy names for music sessions.
var jamAlias = map[string]string{
	events.EventSessionStarted:       events.EventJamStarted,
	events.EventSessionJoined:        events.EventJamJoined,
	events.EventSessionLeft:          events.EventJamLeft,
	events.EventSessionEnded:         events.EventJamEnded,
	events.EventSessionOutputUpdated: events.EventJamOutputUpdated,
}

func (c *Core) publishSessionLifecycleLocked(event string, typ models.SessionType, payload events.SessionLifecyclePayload) {
	c.bus.Publish(event, payload)
	if typ == models.SessionTypeMusic {
		c.bus.Publish(jamAlias[event], payload)
	}
}

func (c *Core) publishSessionSnapshotsLocked(musicInvolved bool) {
	c.bus.Publish(events.EventSessionSnapshot, events.SessionSnapshotPayload{Sessions: c.sessions.List()})
	if musicInvolved {
		c.bus.Publish(events.EventJamSnapshot, events.SessionSnapshotPayload{
			Sessions: c.sessions.ListByType(models.SessionTypeMusic),
		})
	}
}

// validateSessionPayload checks an optional pattern and, for output-typed
// sessions, the optional output document. Music session outputs are opaque.
func validateSessionPayload(typ models.SessionType, pattern, output string) error {
	if pattern != "" {
		if res := validator.ValidatePatternCode(pattern, ""); !res.Accepted {
			return NewValidationError(res.Errors)
		}
	}
	if output == "" {
		return nil
	}
	switch typ {
	case models.SessionTypeVisual, models.SessionTypeWorld, models.SessionTypeGame:
		if res := validator.ValidateOutput(string(typ), []byte(output)); !res.Accepted {
			return NewValidationError(res.Errors)
		}
	}
	return nil
}

// ── Wayfinding ──

// WayfindingView returns the caller's position view, everyone else, the
// policy, and the recent activity tail.
func (c *Core) WayfindingView(token string) (models.WayfindingState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, err := c.authenticate(token)
	if err != nil {
		return models.WayfindingState{}, err
	}
	now := c.now()
	c.registry.TouchPresence(agent.ID, "moving about", now)

	online := func(agentID string) bool {
		a := c.registry.ByID(agentID)
		return a != nil && now.Sub(a.LastSeenAt) <= OnlineWindow
	}
	return c.wayfinding.GetState(agent, now, online), nil
}

// SubmitWayfindingAction runs one movement action. Rejections come back in
// the result, not as an error.
func (c *Core) SubmitWayfindingAction(token string, action WayfindingAction) (models.ActionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, err := c.authenticate(token)
	if err != nil {
		return models.ActionResult{}, err
	}
	now := c.now()
	c.registry.TouchPresence(agent.ID, "moving about", now)

	result, navEvents := c.wayfinding.SubmitAction(agent, action, now)
	c.publishNavEventsLocked(navEvents)
	if result.Accepted && action.Type == ActionSetPresenceState {
		c.bus.Publish(events.EventBotPresenceChanged, events.PresenceChangedPayload{
			BotName: agent.Name,
			State:   result.State.PresenceState,
			Until:   result.State.PresenceUntil,
		})
	}
	return result, nil
}

// TickWayfinding finalizes due movements and broadcasts their arrivals.
// The scheduler calls this every 500 ms.
func (c *Core) TickWayfinding() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishNavEventsLocked(c.wayfinding.Tick(c.now()))
}

func (c *Core) publishNavEventsLocked(navEvents []models.WayfindingEvent) {
	for _, e := range navEvents {
		switch e.Type {
		case events.EventBotNavArrived:
			c.bus.Publish(events.EventBotNavArrived, events.NavArrivedPayload{
				BotName: e.BotName,
				FromX:   *e.FromX,
				FromZ:   *e.FromZ,
				ToX:     *e.ToX,
				ToZ:     *e.ToZ,
			})
		case events.EventBotNavPathStarted:
			c.bus.Publish(events.EventBotNavPathStarted, events.NavPathStartedPayload{
				BotName:       e.BotName,
				FromX:         *e.FromX,
				FromZ:         *e.FromZ,
				ToX:           *e.ToX,
				ToZ:           *e.ToZ,
				TravelSeconds: *e.TravelSeconds,
				CompletesAt:   *e.CompletesAt,
				Reason:        e.ReasonCode,
			})
		}
	}
}

// ── Ritual ──

// RitualView renders the voting cycle. A valid token tailors the has-flags
// to the caller; without one the generic view is returned.
func (c *Core) RitualView(token string) models.RitualView {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	agentID := ""
	if agent := c.registry.ByToken(token); agent != nil {
		agentID = agent.ID
		c.registry.TouchPresence(agent.ID, "watching the ritual", now)
	}
	return c.ritual.View(agentID, c.epoch, now)
}

// NominateRitual submits epoch parameter nominations.
func (c *Core) NominateRitual(token string, bpm *int, key, scale, reasoning string) (models.RitualView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, err := c.authenticate(token)
	if err != nil {
		return models.RitualView{}, err
	}
	now := c.now()
	c.registry.TouchPresence(agent.ID, "nominating", now)

	sub, err := c.ritual.Nominate(agent, bpm, key, scale, reasoning, now)
	if err != nil {
		return models.RitualView{}, err
	}
	if sub.BPM != nil {
		c.bus.Publish(events.EventRitualNomination, events.RitualNominationPayload{
			Track:     "bpm",
			BotName:   agent.Name,
			BPM:       *sub.BPM,
			Reasoning: sub.Reasoning,
		})
	}
	if sub.Key != "" {
		c.bus.Publish(events.EventRitualNomination, events.RitualNominationPayload{
			Track:     "key",
			BotName:   agent.Name,
			Key:       sub.Key,
			Scale:     sub.Scale,
			Reasoning: sub.Reasoning,
		})
	}
	return c.ritual.View(agent.ID, c.epoch, now), nil
}

// VoteRitual submits votes on the candidate ballots.
func (c *Core) VoteRitual(token string, bpmIdx, keyIdx *int) (models.RitualView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, err := c.authenticate(token)
	if err != nil {
		return models.RitualView{}, err
	}
	now := c.now()
	c.registry.TouchPresence(agent.ID, "voting", now)

	if err := c.ritual.Vote(agent, bpmIdx, keyIdx); err != nil {
		return models.RitualView{}, err
	}
	if bpmIdx != nil {
		c.bus.Publish(events.EventRitualVote, events.RitualVotePayload{
			Track:          "bpm",
			BotName:        agent.Name,
			CandidateIndex: *bpmIdx,
		})
	}
	if keyIdx != nil {
		c.bus.Publish(events.EventRitualVote, events.RitualVotePayload{
			Track:          "key",
			BotName:        agent.Name,
			CandidateIndex: *keyIdx,
		})
	}
	return c.ritual.View(agent.ID, c.epoch, now), nil
}

// StepRitual advances the ritual phase machine. The scheduler calls this
// about once a second.
func (c *Core) StepRitual() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ritual.Step(c.now(), coreHooks{c})
}

// coreHooks adapts the locked core for the ritual. All methods run while
// the facade lock is already held.
type coreHooks struct {
	c *Core
}

func (h coreHooks) GetOnlineAgentCount() int {
	return h.c.registry.OnlineCount(h.c.now())
}

func (h coreHooks) GetCurrentEpoch() models.Epoch {
	return h.c.epoch
}

func (h coreHooks) ApplyNewEpoch(bpm int, key, scale string, scaleNotes []string) {
	previous := h.c.epoch
	h.c.epoch = models.Epoch{
		Epoch:      previous.Epoch + 1,
		BPM:        bpm,
		Key:        key,
		Scale:      scale,
		ScaleNotes: scaleNotes,
		StartedAt:  h.c.now(),
	}
	h.c.bus.Publish(events.EventEpochChanged, events.EpochChangedPayload{
		Epoch:    h.c.epoch,
		Previous: previous,
	})
	h.c.bus.Publish(events.EventComposition, h.c.compositionLocked())
}

func (h coreHooks) Broadcast(event string, payload any) {
	h.c.bus.Publish(event, payload)
}

// ── Messaging ──

// Messages lists what the caller may read: all broadcasts, plus targeted
// messages they sent or received when the token resolves.
func (c *Core) Messages(token string, limit int) []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	agentID := ""
	if agent := c.registry.ByToken(token); agent != nil {
		agentID = agent.ID
	}
	return c.messaging.Visible(agentID, limit)
}

// PostAgentMessage sends a broadcast or targeted message from an agent.
func (c *Core) PostAgentMessage(token, content, toName string) (models.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, err := c.authenticate(token)
	if err != nil {
		return models.Message{}, err
	}
	now := c.now()
	c.registry.TouchPresence(agent.ID, "chatting", now)

	var to *agentRecord
	if toName != "" {
		if to = c.registry.ByName(toName); to == nil {
			return models.Message{}, NewErrorf(CodeAgentNotFound, "no agent named %q", toName)
		}
	}
	msg, err := c.messaging.AddAgentMessage(agent, content, to, now)
	if err != nil {
		return models.Message{}, err
	}
	c.bus.Publish(events.EventAgentMessage, msg)
	return msg, nil
}

// HumanMessage posts a message from outside the agent population after a
// safety check. The sender hash keys the rate limiter.
func (c *Core) HumanMessage(ctx context.Context, senderName, content, senderHash string, senderType models.SenderType) (models.Message, error) {
	verdict, err := c.safety.VerifyMessage(ctx, content)
	if err != nil {
		return models.Message{}, NewError(CodeContentRejected, "safety check unavailable")
	}
	if !verdict.Allowed {
		return models.Message{}, NewError(CodeContentRejected, verdict.Reason)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	msg, err := c.messaging.AddHumanMessage(senderName, content, senderHash, senderType, c.now())
	if err != nil {
		return models.Message{}, err
	}
	c.bus.Publish(events.EventAgentMessage, msg)
	return msg, nil
}

// HumanDirective records a paid directive for one agent after the payment
// proof verifies.
func (c *Core) HumanDirective(ctx context.Context, fromAddress, toName, content, txHash string) (models.Directive, error) {
	if content == "" {
		return models.Directive{}, NewError(CodeMessageRequired, "directive content is required")
	}
	verdict, err := c.payments.VerifyPayment(ctx, oracle.PaymentProof{FromAddress: fromAddress, TxHash: txHash})
	if err != nil {
		return models.Directive{}, NewError(CodePaymentUnverified, "payment check unavailable")
	}
	if !verdict.Allowed {
		return models.Directive{}, NewError(CodePaymentUnverified, verdict.Reason)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	to := c.registry.ByName(toName)
	if to == nil {
		return models.Directive{}, NewErrorf(CodeAgentNotFound, "no agent named %q", toName)
	}
	directive := c.messaging.AddDirective(fromAddress, to, content, txHash, c.now())
	c.bus.Publish(events.EventDirectiveCreated, directive)
	return directive, nil
}

// PendingDirectives returns and delivers the caller's queued directives.
func (c *Core) PendingDirectives(token string) ([]models.Directive, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, err := c.authenticate(token)
	if err != nil {
		return nil, err
	}
	now := c.now()
	c.registry.TouchPresence(agent.ID, "reading directives", now)

	directives := c.messaging.PendingDirectives(agent.ID, now)
	if directives == nil {
		directives = []models.Directive{}
	}
	return directives, nil
}

// ── Administration ──

// Reset purges every component, reseeds the board and epoch, and publishes
// fresh snapshots. It returns what was purged.
func (c *Core) Reset() events.ResetCounters {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	counters := events.ResetCounters{
		Agents:             c.registry.Count(),
		Sessions:           c.sessions.Count(),
		Placements:         c.placements.Count(),
		WorldContributions: c.world.ContributorCount(),
		Messages:           c.messaging.MessageCount(),
		Directives:         c.messaging.DirectiveCount(),
	}

	c.registry.Reset()
	c.slots.Reset()
	c.placements.Reset()
	c.sessions.Reset()
	c.world.Reset()
	c.wayfinding.Reset()
	c.ritual.Reset(now)
	c.messaging.Reset()
	c.epoch = initialEpoch(now)

	c.bus.Publish(events.EventComposition, c.compositionLocked())
	c.publishSessionSnapshotsLocked(true)
	c.bus.Publish(events.EventWorldSnapshot, c.world.Snapshot())
	c.publishPlacementsLocked()
	c.bus.Publish(events.EventAdminReset, events.AdminResetPayload{At: now, Counters: counters})
	return counters
}

// ── Internals ──

func (c *Core) authenticate(token string) (*agentRecord, error) {
	agent := c.registry.ByToken(token)
	if agent == nil {
		return nil, NewError(CodeUnauthorized, "invalid or missing token")
	}
	return agent, nil
}

func (c *Core) onlineViewsLocked(now time.Time) []models.OnlineAgent {
	agents := c.registry.Online(now)
	out := make([]models.OnlineAgent, 0, len(agents))
	for _, a := range agents {
		out = append(out, models.OnlineAgent{
			ID:              a.ID,
			Name:            a.Name,
			LastSeenAt:      a.LastSeenAt,
			CurrentActivity: a.CurrentActivity,
			SlotCount:       c.slots.HeldSlots(a.ID),
			SessionID:       c.sessions.SessionIDOf(a.ID),
			Reputation:      a.Reputation,
			TotalPlacements: a.TotalPlacements,
			CreatedAt:       a.CreatedAt,
			OwnerAddress:    a.OwnerAddress,
		})
	}
	return out
}

// resolvePublic builds the public view of an agent by id, nil when absent.
func (c *Core) resolvePublic(agentID string) *models.AgentPublic {
	agent := c.registry.ByID(agentID)
	if agent == nil {
		return nil
	}
	v := publicView(agent)
	return &v
}

func publicView(agent *agentRecord) models.AgentPublic {
	return models.AgentPublic{
		ID:              agent.ID,
		Name:            agent.Name,
		TotalPlacements: agent.TotalPlacements,
		Reputation:      agent.Reputation,
	}
}

func emptyIfNil(warnings []string) []string {
	if warnings == nil {
		return []string{}
	}
	return warnings
}
