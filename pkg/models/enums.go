// Package models contains the domain types and read-only view types shared
// by the core, the event payloads, and the HTTP adapters. Views are plain
// data — every one handed to a subscriber or HTTP caller is a deep copy of
// core state, never an alias.
package models

// SlotType defines the musical role of a composition board slot.
type SlotType string

const (
	SlotTypeDrums  SlotType = "drums"
	SlotTypeBass   SlotType = "bass"
	SlotTypeChords SlotType = "chords"
	SlotTypeMelody SlotType = "melody"
	SlotTypeWild   SlotType = "wild"
)

// InstrumentType defines the playable instruments for music placements.
type InstrumentType string

const (
	Instrument808         InstrumentType = "808"
	InstrumentCello       InstrumentType = "cello"
	InstrumentDustyPiano  InstrumentType = "dusty_piano"
	InstrumentSynth       InstrumentType = "synth"
	InstrumentProphet5    InstrumentType = "prophet_5"
	InstrumentSynthesizer InstrumentType = "synthesizer"
	InstrumentTR66        InstrumentType = "tr66"
)

// IsValid checks if the instrument type is one of the playable set.
func (t InstrumentType) IsValid() bool {
	switch t {
	case Instrument808, InstrumentCello, InstrumentDustyPiano, InstrumentSynth,
		InstrumentProphet5, InstrumentSynthesizer, InstrumentTR66:
		return true
	default:
		return false
	}
}

// SessionType defines the collaborative session kinds.
type SessionType string

const (
	SessionTypeMusic  SessionType = "music"
	SessionTypeVisual SessionType = "visual"
	SessionTypeWorld  SessionType = "world"
	SessionTypeGame   SessionType = "game"
)

// IsValid checks if the session type is valid.
func (t SessionType) IsValid() bool {
	switch t {
	case SessionTypeMusic, SessionTypeVisual, SessionTypeWorld, SessionTypeGame:
		return true
	default:
		return false
	}
}

// ParticipantRole defines a participant's role within a session.
type ParticipantRole string

const (
	RoleCreator     ParticipantRole = "creator"
	RoleContributor ParticipantRole = "contributor"
)

// Room names the arena region a session position falls in.
type Room string

const (
	RoomCenter   Room = "center"
	RoomEastWing Room = "east_wing"
	RoomWestWing Room = "west_wing"
)

// LocomotionState describes whether an agent is moving.
type LocomotionState string

const (
	LocomotionIdle   LocomotionState = "idle"
	LocomotionMoving LocomotionState = "moving"
)

// PresenceState is an expressive animation label independent of movement.
type PresenceState string

const (
	PresenceIdlePose   PresenceState = "idle_pose"
	PresenceRest       PresenceState = "rest"
	PresenceDanceLoop  PresenceState = "dance_loop"
	PresenceHeadbang   PresenceState = "headbang"
	PresenceSway       PresenceState = "sway"
	PresenceSpin       PresenceState = "spin"
	PresenceJumpCycle  PresenceState = "jump_cycle"
	PresenceWave       PresenceState = "wave"
	PresenceClap       PresenceState = "clap"
	PresencePoint      PresenceState = "point"
	PresenceSitFloor   PresenceState = "sit_floor"
	PresenceMeditate   PresenceState = "meditate"
	PresenceAirDrums   PresenceState = "air_drums"
	PresenceCrowdWatch PresenceState = "crowd_watch"
)

// PresenceStates lists every presence state in catalog order.
var PresenceStates = []PresenceState{
	PresenceIdlePose, PresenceRest, PresenceDanceLoop, PresenceHeadbang,
	PresenceSway, PresenceSpin, PresenceJumpCycle, PresenceWave,
	PresenceClap, PresencePoint, PresenceSitFloor, PresenceMeditate,
	PresenceAirDrums, PresenceCrowdWatch,
}

// IsValid checks if the presence state is in the catalog.
func (s PresenceState) IsValid() bool {
	for _, p := range PresenceStates {
		if s == p {
			return true
		}
	}
	return false
}

// SystemState is a runtime-posture label. Non-normal states restrict the
// presence states an agent may display.
type SystemState string

const (
	SystemNormal          SystemState = "normal"
	SystemRateLimited     SystemState = "rate_limited"
	SystemValidationRetry SystemState = "validation_retry"
	SystemCooldownLocked  SystemState = "cooldown_locked"
	SystemModelError      SystemState = "model_error"
	SystemStreamDegraded  SystemState = "stream_degraded"
	SystemDesynced        SystemState = "desynced"
	SystemAssetLoading    SystemState = "asset_loading"
	SystemAssetFallback   SystemState = "asset_fallback"
	// SystemSuspended is only reachable by the core itself, never via the
	// action API.
	SystemSuspended SystemState = "suspended"
)

// SettableSystemStates lists the system states agents may set themselves.
var SettableSystemStates = []SystemState{
	SystemNormal, SystemRateLimited, SystemValidationRetry, SystemCooldownLocked,
	SystemModelError, SystemStreamDegraded, SystemDesynced, SystemAssetLoading,
	SystemAssetFallback,
}

// IsSettable checks if an agent may request this system state.
func (s SystemState) IsSettable() bool {
	for _, st := range SettableSystemStates {
		if s == st {
			return true
		}
	}
	return false
}

// RitualPhase is the world-parameter voting cycle phase.
type RitualPhase string

const (
	RitualIdle     RitualPhase = "idle"
	RitualNominate RitualPhase = "nominate"
	RitualVote     RitualPhase = "vote"
	RitualResult   RitualPhase = "result"
)

// SenderType discriminates the origin of a message.
type SenderType string

const (
	SenderAgent     SenderType = "agent"
	SenderHuman     SenderType = "human"
	SenderStorm     SenderType = "storm"
	SenderPaidHuman SenderType = "paid_human"
)

// DirectiveStatus is the delivery state of a paid directive.
type DirectiveStatus string

const (
	DirectivePending   DirectiveStatus = "pending"
	DirectiveDelivered DirectiveStatus = "delivered"
)
