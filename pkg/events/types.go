// Package events provides the in-process publish/subscribe bus that fans
// core state changes out to streaming subscribers (SSE, WebSocket, tests).
//
// ════════════════════════════════════════════════════════════════
// Delivery contract
// ════════════════════════════════════════════════════════════════
//
// Publish marshals the payload to JSON exactly once and delivers the same
// bytes to every subscriber, synchronously, in subscription order. The core
// publishes under its own lock, so subscribers observe a total order across
// all operations: every event of operation A precedes every event of
// operation B if A acquired the core lock first.
//
// Because delivery is synchronous, Subscriber.Deliver MUST NOT block. A
// subscriber that returns an error or panics is removed from the bus and
// closed; the publisher never sees the failure. Transport adapters decouple
// via ChannelSubscriber, which enqueues into a bounded buffer and drops on
// overflow rather than stalling the core.
//
// There is no catch-up: a subscriber sees only events published after it
// subscribed. Clients needing current state fetch a snapshot over HTTP
// first, then follow the stream.
// ════════════════════════════════════════════════════════════════
package events

// Composition board and placements.
const (
	EventSlotUpdate             = "slot_update"
	EventMusicPlacementSnapshot = "music_placement_snapshot"
	EventComposition            = "composition"
)

// Session lifecycle. Every mutation also publishes EventSessionSnapshot.
const (
	EventSessionStarted       = "session_started"
	EventSessionJoined        = "session_joined"
	EventSessionLeft          = "session_left"
	EventSessionEnded         = "session_ended"
	EventSessionOutputUpdated = "session_output_updated"
	EventSessionSnapshot      = "session_snapshot"
)

// Legacy jam aliases, emitted for music-typed sessions only. Kept for one
// release; new clients should consume session_*.
const (
	EventJamStarted       = "jam_started"
	EventJamJoined        = "jam_joined"
	EventJamLeft          = "jam_left"
	EventJamEnded         = "jam_ended"
	EventJamOutputUpdated = "jam_output_updated"
	EventJamSnapshot      = "jam_snapshot"
)

// World state.
const (
	EventWorldSnapshot = "world_snapshot"
)

// Wayfinding.
const (
	EventBotNavPathStarted  = "bot_nav_path_started"
	EventBotNavArrived      = "bot_nav_arrived"
	EventBotPresenceChanged = "bot_presence_changed"
)

// Ritual and epoch.
const (
	EventRitualPhase      = "ritual_phase"
	EventRitualNomination = "ritual_nomination"
	EventRitualVote       = "ritual_vote"
	EventEpochChanged     = "epoch_changed"
)

// Messaging and administration.
const (
	EventAgentMessage     = "agent_message"
	EventDirectiveCreated = "directive_created"
	EventAdminReset       = "admin_reset"
)

// EventConnected is the handshake event a streaming transport sends to a
// client on subscribe. It never crosses the bus itself.
const EventConnected = "connected"
