package events

import (
	"time"

	"github.com/synthmob/synthmob/pkg/models"
)

// Typed payload structs for events whose payload is not simply a models
// view. Snapshot events (composition, world_snapshot, music placements,
// agent_message, directive_created) publish the view types directly.

// SlotUpdatePayload accompanies slot_update. PreviousAgent is the displaced
// agent's view, present exactly once per overwrite.
type SlotUpdatePayload struct {
	Slot          int                 `json:"slot"`
	Type          models.SlotType     `json:"type"`
	Label         string              `json:"label"`
	Code          string              `json:"code"`
	Agent         *models.AgentPublic `json:"agent"`
	PreviousAgent *models.AgentPublic `json:"previousAgent,omitempty"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// PlacementSnapshotPayload accompanies music_placement_snapshot.
type PlacementSnapshotPayload struct {
	Placements []models.Placement `json:"placements"`
}

// SessionLifecyclePayload accompanies session_started/joined/left/ended and
// session_output_updated, plus the jam_* aliases for music sessions.
// Session is nil once the session has been destroyed.
type SessionLifecyclePayload struct {
	SessionID string             `json:"sessionId"`
	Type      models.SessionType `json:"type"`
	BotName   string             `json:"botName,omitempty"`
	Session   *models.Session    `json:"session,omitempty"`
}

// SessionSnapshotPayload accompanies session_snapshot (all active sessions)
// and jam_snapshot (music sessions only).
type SessionSnapshotPayload struct {
	Sessions []models.Session `json:"sessions"`
}

// NavPathStartedPayload accompanies bot_nav_path_started.
type NavPathStartedPayload struct {
	BotName       string    `json:"botName"`
	FromX         float64   `json:"fromX"`
	FromZ         float64   `json:"fromZ"`
	ToX           float64   `json:"toX"`
	ToZ           float64   `json:"toZ"`
	TravelSeconds float64   `json:"travelSeconds"`
	CompletesAt   time.Time `json:"completesAt"`
	Reason        string    `json:"reason,omitempty"`
}

// NavArrivedPayload accompanies bot_nav_arrived.
type NavArrivedPayload struct {
	BotName string  `json:"botName"`
	FromX   float64 `json:"fromX"`
	FromZ   float64 `json:"fromZ"`
	ToX     float64 `json:"toX"`
	ToZ     float64 `json:"toZ"`
}

// PresenceChangedPayload accompanies bot_presence_changed.
type PresenceChangedPayload struct {
	BotName string               `json:"botName"`
	State   models.PresenceState `json:"state"`
	Until   *time.Time           `json:"until,omitempty"`
}

// RandomizedEpoch reports the parameters a fizzled ritual rolled.
type RandomizedEpoch struct {
	BPM   int    `json:"bpm"`
	Key   string `json:"key"`
	Scale string `json:"scale"`
}

// RitualPhasePayload accompanies ritual_phase.
type RitualPhasePayload struct {
	Phase        models.RitualPhase `json:"phase"`
	RitualNumber int                `json:"ritualNumber"`
	PhaseEndsAt  *time.Time         `json:"phaseEndsAt,omitempty"`
	Fizzled      bool               `json:"fizzled,omitempty"`
	Randomized   *RandomizedEpoch   `json:"randomized,omitempty"`
}

// RitualNominationPayload accompanies ritual_nomination. Track is "bpm" or
// "key".
type RitualNominationPayload struct {
	Track     string `json:"track"`
	BotName   string `json:"botName"`
	BPM       int    `json:"bpm,omitempty"`
	Key       string `json:"key,omitempty"`
	Scale     string `json:"scale,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

// RitualVotePayload accompanies ritual_vote. CandidateIndex is 1-based.
type RitualVotePayload struct {
	Track          string `json:"track"`
	BotName        string `json:"botName"`
	CandidateIndex int    `json:"candidateIndex"`
}

// EpochChangedPayload accompanies epoch_changed.
type EpochChangedPayload struct {
	Epoch    models.Epoch `json:"epoch"`
	Previous models.Epoch `json:"previous"`
}

// ResetCounters reports what an admin reset purged.
type ResetCounters struct {
	Agents             int `json:"agents"`
	Sessions           int `json:"sessions"`
	Placements         int `json:"placements"`
	WorldContributions int `json:"worldContributions"`
	Messages           int `json:"messages"`
	Directives         int `json:"directives"`
}

// AdminResetPayload accompanies admin_reset.
type AdminResetPayload struct {
	At       time.Time     `json:"at"`
	Counters ResetCounters `json:"counters"`
}

// ConnectedPayload is the transport handshake sent as EventConnected.
type ConnectedPayload struct {
	ConnectionID string    `json:"connectionId"`
	At           time.Time `json:"at"`
}
