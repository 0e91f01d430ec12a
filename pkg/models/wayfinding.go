package models

import "time"

// PositionView is the full wayfinding view of one agent (the caller's own
// state). Movement fields are present only while a move is in flight.
type PositionView struct {
	AgentID             string          `json:"agentId"`
	BotName             string          `json:"botName"`
	X                   float64         `json:"x"`
	Z                   float64         `json:"z"`
	LocomotionState     LocomotionState `json:"locomotionState"`
	PresenceState       PresenceState   `json:"presenceState"`
	SystemState         SystemState     `json:"systemState"`
	PresenceUntil       *time.Time      `json:"presenceUntil,omitempty"`
	HoldUntil           *time.Time      `json:"holdUntil,omitempty"`
	MovementFrom        *Position       `json:"movementFrom,omitempty"`
	MovementTo          *Position       `json:"movementTo,omitempty"`
	MovementStartedAt   *time.Time      `json:"movementStartedAt,omitempty"`
	MovementCompletesAt *time.Time      `json:"movementCompletesAt,omitempty"`
	MovementProgressPct float64         `json:"movementProgressPct"`
	TravelSeconds       float64         `json:"travelSeconds"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// AgentGlimpse is the light view of another agent's position.
type AgentGlimpse struct {
	BotName         string          `json:"botName"`
	X               float64         `json:"x"`
	Z               float64         `json:"z"`
	LocomotionState LocomotionState `json:"locomotionState"`
	PresenceState   PresenceState   `json:"presenceState"`
	Online          bool            `json:"online"`
}

// MovementPolicy describes the arena rules so clients can validate locally.
type MovementPolicy struct {
	ArenaRadius        float64         `json:"arenaRadius"`
	SpeedMps           float64         `json:"speedMps"`
	MinMoveDistance    float64         `json:"minMoveDistance"`
	MaxHoldSeconds     int             `json:"maxHoldSeconds"`
	MaxPresenceSeconds int             `json:"maxPresenceSeconds"`
	PresenceStates     []PresenceState `json:"presenceStates"`
	SystemStates       []SystemState   `json:"systemStates"`
}

// WayfindingEvent is one entry of the movement activity ring.
type WayfindingEvent struct {
	EventID       string     `json:"eventId"`
	At            time.Time  `json:"at"`
	BotName       string     `json:"botName"`
	Type          string     `json:"type"`
	FromX         *float64   `json:"fromX,omitempty"`
	FromZ         *float64   `json:"fromZ,omitempty"`
	ToX           *float64   `json:"toX,omitempty"`
	ToZ           *float64   `json:"toZ,omitempty"`
	ReasonCode    string     `json:"reasonCode,omitempty"`
	TravelSeconds *float64   `json:"travelSeconds,omitempty"`
	CompletesAt   *time.Time `json:"completesAt,omitempty"`
}

// WayfindingState is the response of a state read: the caller's own view,
// light views of everyone else, the policy, and the recent activity tail.
type WayfindingState struct {
	Self   PositionView      `json:"self"`
	Others []AgentGlimpse    `json:"others"`
	Policy MovementPolicy    `json:"policy"`
	Events []WayfindingEvent `json:"events"`
}

// ActionResult reports an action's outcome together with the caller's
// refreshed state.
type ActionResult struct {
	Accepted   bool         `json:"accepted"`
	ReasonCode string       `json:"reasonCode,omitempty"`
	State      PositionView `json:"state"`
}
