package core

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/synthmob/synthmob/pkg/events"
	"github.com/synthmob/synthmob/pkg/models"
)

const (
	// ArenaRadius bounds the walkable disk.
	ArenaRadius = 50.0
	// MoveSpeed is the fixed travel speed in meters per second.
	MoveSpeed = 4.0
	// MinMoveDistance is the shortest accepted travel distance.
	MinMoveDistance = 0.1

	MinHoldSeconds     = 1
	MaxHoldSeconds     = 30
	MinPresenceSeconds = 1
	MaxPresenceSeconds = 300
	MaxReasonLength    = 280

	// NavEventRingCap bounds the movement activity log.
	NavEventRingCap = 500
	// NavEventTail is how many recent entries a state read returns.
	NavEventTail = 12
)

// Wayfinding action types.
const (
	ActionMoveTo             = "MOVE_TO"
	ActionHoldPosition       = "HOLD_POSITION"
	ActionSetPresenceState   = "SET_PRESENCE_STATE"
	ActionClearPresenceState = "CLEAR_PRESENCE_STATE"
	ActionSetSystemState     = "SET_SYSTEM_STATE"
	ActionClearSystemState   = "CLEAR_SYSTEM_STATE"
)

// legacyActionTypes are remnants of the old graph-based navigation API.
// They are recognized and rejected with a distinguishing code.
var legacyActionTypes = map[string]bool{
	"MOVE_TO_NODE":           true,
	"JOIN_SLOT_QUEUE":        true,
	"LEAVE_SLOT_QUEUE":       true,
	"CLAIM_STAGE_POSITION":   true,
	"RELEASE_STAGE_POSITION": true,
	"FOCUS_SLOT":             true,
	"DANCE":                  true,
}

// WayfindingAction is one submitted action. Optional fields are pointers
// so absent and zero stay distinguishable.
type WayfindingAction struct {
	Type        string   `json:"type"`
	X           *float64 `json:"x,omitempty"`
	Z           *float64 `json:"z,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	HoldSeconds *int     `json:"hold_seconds,omitempty"`
	State       string   `json:"state,omitempty"`
	DurationSec *int     `json:"duration_sec,omitempty"`
}

type agentPosition struct {
	agentID             string
	botName             string
	x, z                float64
	locomotion          models.LocomotionState
	presence            models.PresenceState
	system              models.SystemState
	presenceUntil       *time.Time
	holdUntil           *time.Time
	movementFrom        *models.Position
	movementTo          *models.Position
	movementStartedAt   *time.Time
	movementCompletesAt *time.Time
	travelSeconds       float64
	updatedAt           time.Time
}

// Wayfinding tracks every agent's position on the arena disk and runs the
// six-action movement state machine. Arrival is time-based: a move stores
// its completion timestamp, and either the periodic tick or the next
// touching operation finalizes it.
type Wayfinding struct {
	agents map[string]*agentPosition
	order  []string
	events []models.WayfindingEvent
	rng    *rand.Rand
}

// NewWayfinding creates an empty tracker drawing spawn points from rng.
func NewWayfinding(rng *rand.Rand) *Wayfinding {
	w := &Wayfinding{rng: rng}
	w.Reset()
	return w
}

// EnsureState spawns the agent uniformly on the arena disk if untracked.
func (w *Wayfinding) EnsureState(agent *agentRecord, now time.Time) {
	if _, ok := w.agents[agent.ID]; ok {
		return
	}
	r := ArenaRadius * math.Sqrt(w.rng.Float64())
	theta := w.rng.Float64() * 2 * math.Pi
	w.agents[agent.ID] = &agentPosition{
		agentID:    agent.ID,
		botName:    agent.Name,
		x:          r * math.Cos(theta),
		z:          r * math.Sin(theta),
		locomotion: models.LocomotionIdle,
		presence:   models.PresenceIdlePose,
		system:     models.SystemNormal,
		updatedAt:  now,
	}
	w.order = append(w.order, agent.ID)
}

// Tick finalizes every movement due by now and returns the arrival events,
// oldest spawn first.
func (w *Wayfinding) Tick(now time.Time) []models.WayfindingEvent {
	var arrivals []models.WayfindingEvent
	for _, id := range w.order {
		a := w.agents[id]
		if movementDue(a, now) {
			arrivals = append(arrivals, w.finalizeArrival(a))
		}
	}
	return arrivals
}

// GetState returns the caller's full view, light views of everyone else,
// the movement policy, and the recent activity tail. Presence guardrails
// are applied on read: expired presence reverts to idle_pose, and a
// non-normal system posture forces presence into {idle_pose, rest}.
func (w *Wayfinding) GetState(agent *agentRecord, now time.Time, online func(agentID string) bool) models.WayfindingState {
	w.EnsureState(agent, now)
	a := w.agents[agent.ID]
	w.applyPresenceGuardrails(a, now)

	others := make([]models.AgentGlimpse, 0, len(w.order)-1)
	for _, id := range w.order {
		if id == agent.ID {
			continue
		}
		o := w.agents[id]
		w.applyPresenceGuardrails(o, now)
		x, z := effectivePosition(o, now)
		loco := o.locomotion
		if movementDue(o, now) {
			loco = models.LocomotionIdle
		}
		others = append(others, models.AgentGlimpse{
			BotName:         o.botName,
			X:               x,
			Z:               z,
			LocomotionState: loco,
			PresenceState:   o.presence,
			Online:          online(id),
		})
	}

	return models.WayfindingState{
		Self:   viewOf(a, now),
		Others: others,
		Policy: movementPolicy(),
		Events: w.eventTail(),
	}
}

// SubmitAction runs one action. A movement already due is finalized first,
// so its arrival event precedes whatever the action produces; all returned
// events are also retained in the activity ring.
func (w *Wayfinding) SubmitAction(agent *agentRecord, action WayfindingAction, now time.Time) (models.ActionResult, []models.WayfindingEvent) {
	w.EnsureState(agent, now)
	a := w.agents[agent.ID]

	var logged []models.WayfindingEvent
	if movementDue(a, now) {
		logged = append(logged, w.finalizeArrival(a))
	}
	w.applyPresenceGuardrails(a, now)

	reject := func(code Code) (models.ActionResult, []models.WayfindingEvent) {
		return models.ActionResult{
			Accepted:   false,
			ReasonCode: string(code),
			State:      viewOf(a, now),
		}, logged
	}

	if legacyActionTypes[action.Type] {
		return reject(CodeLegacyActionType)
	}
	switch action.Type {
	case ActionMoveTo, ActionHoldPosition, ActionSetPresenceState,
		ActionClearPresenceState, ActionSetSystemState, ActionClearSystemState:
	default:
		return reject(CodeUnknownAction)
	}

	if len(action.Reason) > MaxReasonLength {
		return reject(CodeInvalidReason)
	}
	if action.Type == ActionMoveTo && action.Reason == "" {
		return reject(CodeInvalidReason)
	}

	switch action.Type {
	case ActionMoveTo:
		if a.movementCompletesAt != nil {
			return reject(CodeMovementInProgress)
		}
		if action.X == nil || action.Z == nil {
			return reject(CodeInvalidPosition)
		}
		x, z := *action.X, *action.Z
		if d := math.Hypot(x, z); d > ArenaRadius {
			scale := ArenaRadius / d
			x *= scale
			z *= scale
		}
		dist := math.Hypot(x-a.x, z-a.z)
		if dist < MinMoveDistance {
			return reject(CodeAlreadyAtDestination)
		}
		travel := dist / MoveSpeed
		from := models.Position{X: a.x, Z: a.z}
		to := models.Position{X: x, Z: z}
		started := now
		completes := now.Add(time.Duration(travel * float64(time.Second)))
		a.movementFrom = &from
		a.movementTo = &to
		a.movementStartedAt = &started
		a.movementCompletesAt = &completes
		a.travelSeconds = travel
		a.locomotion = models.LocomotionMoving
		logged = append(logged, w.appendEvent(models.WayfindingEvent{
			EventID:       uuid.New().String(),
			At:            now,
			BotName:       a.botName,
			Type:          events.EventBotNavPathStarted,
			FromX:         fptr(from.X),
			FromZ:         fptr(from.Z),
			ToX:           fptr(to.X),
			ToZ:           fptr(to.Z),
			ReasonCode:    action.Reason,
			TravelSeconds: fptr(travel),
			CompletesAt:   &completes,
		}))

	case ActionHoldPosition:
		if a.movementCompletesAt != nil {
			return reject(CodeMovementInProgress)
		}
		if action.HoldSeconds == nil || *action.HoldSeconds < MinHoldSeconds || *action.HoldSeconds > MaxHoldSeconds {
			return reject(CodeInvalidHoldSeconds)
		}
		until := now.Add(time.Duration(*action.HoldSeconds) * time.Second)
		a.holdUntil = &until

	case ActionSetPresenceState:
		state := models.PresenceState(action.State)
		if !state.IsValid() {
			return reject(CodePresenceStateDisallowed)
		}
		if a.system != models.SystemNormal && state != models.PresenceIdlePose && state != models.PresenceRest {
			return reject(CodePresenceStateDisallowed)
		}
		if action.DurationSec != nil && (*action.DurationSec < MinPresenceSeconds || *action.DurationSec > MaxPresenceSeconds) {
			return reject(CodePresenceDurationTooLong)
		}
		a.presence = state
		a.presenceUntil = nil
		if action.DurationSec != nil {
			until := now.Add(time.Duration(*action.DurationSec) * time.Second)
			a.presenceUntil = &until
		}

	case ActionClearPresenceState:
		a.presence = models.PresenceIdlePose
		a.presenceUntil = nil

	case ActionSetSystemState:
		state := models.SystemState(action.State)
		if !state.IsSettable() {
			return reject(CodeSystemStateDisallowed)
		}
		a.system = state
		if state != models.SystemNormal {
			a.presence = models.PresenceRest
			a.presenceUntil = nil
		}

	case ActionClearSystemState:
		a.system = models.SystemNormal
	}

	a.updatedAt = now
	return models.ActionResult{
		Accepted: true,
		State:    viewOf(a, now),
	}, logged
}

// Glimpse returns the light position view of one agent, false if untracked.
func (w *Wayfinding) Glimpse(agentID string, now time.Time) (models.AgentGlimpse, bool) {
	a, ok := w.agents[agentID]
	if !ok {
		return models.AgentGlimpse{}, false
	}
	x, z := effectivePosition(a, now)
	loco := a.locomotion
	if movementDue(a, now) {
		loco = models.LocomotionIdle
	}
	return models.AgentGlimpse{
		BotName:         a.botName,
		X:               x,
		Z:               z,
		LocomotionState: loco,
		PresenceState:   a.presence,
		Online:          true,
	}, true
}

// Reset drops all tracked agents and the activity log.
func (w *Wayfinding) Reset() {
	w.agents = make(map[string]*agentPosition)
	w.order = nil
	w.events = nil
}

// finalizeArrival lands a due movement and logs the arrival.
func (w *Wayfinding) finalizeArrival(a *agentPosition) models.WayfindingEvent {
	from := *a.movementFrom
	to := *a.movementTo
	arrivedAt := *a.movementCompletesAt

	a.x, a.z = to.X, to.Z
	a.movementFrom = nil
	a.movementTo = nil
	a.movementStartedAt = nil
	a.movementCompletesAt = nil
	a.travelSeconds = 0
	a.locomotion = models.LocomotionIdle
	a.updatedAt = arrivedAt

	return w.appendEvent(models.WayfindingEvent{
		EventID: uuid.New().String(),
		At:      arrivedAt,
		BotName: a.botName,
		Type:    events.EventBotNavArrived,
		FromX:   fptr(from.X),
		FromZ:   fptr(from.Z),
		ToX:     fptr(to.X),
		ToZ:     fptr(to.Z),
	})
}

// applyPresenceGuardrails expires timed presence and reconciles presence
// with a non-normal system posture.
func (w *Wayfinding) applyPresenceGuardrails(a *agentPosition, now time.Time) {
	if a.presenceUntil != nil && !a.presenceUntil.After(now) {
		a.presence = models.PresenceIdlePose
		a.presenceUntil = nil
	}
	if a.system != models.SystemNormal && a.presence != models.PresenceIdlePose && a.presence != models.PresenceRest {
		a.presence = models.PresenceRest
		a.presenceUntil = nil
	}
}

func (w *Wayfinding) appendEvent(e models.WayfindingEvent) models.WayfindingEvent {
	w.events = append(w.events, e)
	if len(w.events) > NavEventRingCap {
		w.events = w.events[len(w.events)-NavEventRingCap:]
	}
	return e
}

// eventTail returns the newest entries in chronological order.
func (w *Wayfinding) eventTail() []models.WayfindingEvent {
	start := len(w.events) - NavEventTail
	if start < 0 {
		start = 0
	}
	out := make([]models.WayfindingEvent, len(w.events)-start)
	copy(out, w.events[start:])
	return out
}

// movementDue reports whether an in-flight movement has completed.
func movementDue(a *agentPosition, now time.Time) bool {
	return a.movementCompletesAt != nil && !a.movementCompletesAt.After(now)
}

// effectivePosition is the agent's position with due arrival applied,
// without mutating state.
func effectivePosition(a *agentPosition, now time.Time) (float64, float64) {
	if movementDue(a, now) {
		return a.movementTo.X, a.movementTo.Z
	}
	return a.x, a.z
}

// viewOf builds the full position view, landing a due movement at the view
// level so reads between ticks already report the destination.
func viewOf(a *agentPosition, now time.Time) models.PositionView {
	v := models.PositionView{
		AgentID:         a.agentID,
		BotName:         a.botName,
		X:               a.x,
		Z:               a.z,
		LocomotionState: a.locomotion,
		PresenceState:   a.presence,
		SystemState:     a.system,
		PresenceUntil:   a.presenceUntil,
		HoldUntil:       a.holdUntil,
		TravelSeconds:   a.travelSeconds,
		UpdatedAt:       a.updatedAt,
	}
	if a.movementCompletesAt == nil {
		return v
	}
	if movementDue(a, now) {
		v.X, v.Z = a.movementTo.X, a.movementTo.Z
		v.LocomotionState = models.LocomotionIdle
		v.TravelSeconds = 0
		return v
	}
	v.MovementFrom = a.movementFrom
	v.MovementTo = a.movementTo
	v.MovementStartedAt = a.movementStartedAt
	v.MovementCompletesAt = a.movementCompletesAt
	elapsed := now.Sub(*a.movementStartedAt).Seconds()
	total := a.movementCompletesAt.Sub(*a.movementStartedAt).Seconds()
	if total > 0 {
		v.MovementProgressPct = math.Min(100, math.Max(0, 100*elapsed/total))
	}
	return v
}

// movementPolicy is the static arena rule sheet returned with every state
// read.
func movementPolicy() models.MovementPolicy {
	return models.MovementPolicy{
		ArenaRadius:        ArenaRadius,
		SpeedMps:           MoveSpeed,
		MinMoveDistance:    MinMoveDistance,
		MaxHoldSeconds:     MaxHoldSeconds,
		MaxPresenceSeconds: MaxPresenceSeconds,
		PresenceStates:     models.PresenceStates,
		SystemStates:       models.SettableSystemStates,
	}
}

func fptr(v float64) *float64 { return &v }
