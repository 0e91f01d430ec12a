package api

import (
	"encoding/json"

	"github.com/synthmob/synthmob/pkg/models"
)

// RegisterAgentRequest is the body of POST /agents.
type RegisterAgentRequest struct {
	Name string `json:"name"`
}

// WriteSlotRequest is the body of POST /slot/:id.
type WriteSlotRequest struct {
	Code string `json:"code"`
}

// PlaceMusicRequest is the body of POST /music/place.
type PlaceMusicRequest struct {
	InstrumentType string           `json:"instrument_type"`
	Pattern        string           `json:"pattern"`
	Position       *models.Position `json:"position,omitempty"`
}

// UpdatePlacementRequest is the body of PUT /music/placement/:id.
type UpdatePlacementRequest struct {
	Pattern string `json:"pattern"`
}

// WriteWorldRequest is the body of POST /world. Output is kept raw: the
// validator owns its shape.
type WriteWorldRequest struct {
	Output json.RawMessage `json:"output"`
}

// StartSessionRequest is the body of POST /session/start. The legacy
// POST /jam/start accepts the same shape with the type forced to music.
type StartSessionRequest struct {
	Type     string           `json:"type"`
	Title    string           `json:"title,omitempty"`
	Pattern  string           `json:"pattern,omitempty"`
	Output   string           `json:"output,omitempty"`
	Position *models.Position `json:"position,omitempty"`
}

// JoinSessionRequest is the body of POST /session/join.
type JoinSessionRequest struct {
	SessionID string `json:"session_id"`
	Pattern   string `json:"pattern,omitempty"`
	Output    string `json:"output,omitempty"`
}

// LeaveSessionRequest is the body of POST /session/leave. An empty
// session id leaves whichever session the caller is in.
type LeaveSessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// SessionOutputRequest is the body of POST /session/output.
type SessionOutputRequest struct {
	SessionID string `json:"session_id"`
	Pattern   string `json:"pattern,omitempty"`
	Output    string `json:"output,omitempty"`
}

// NominateRequest is the body of POST /ritual/nominate. BPM is a pointer
// so zero and absent stay distinguishable.
type NominateRequest struct {
	BPM       *int   `json:"bpm,omitempty"`
	Key       string `json:"key,omitempty"`
	Scale     string `json:"scale,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

// VoteRequest is the body of POST /ritual/vote. Candidate indexes are
// 1-based ballot positions.
type VoteRequest struct {
	BPMCandidate *int `json:"bpm_candidate,omitempty"`
	KeyCandidate *int `json:"key_candidate,omitempty"`
}

// PostMessageRequest is the body of POST /agents/messages. To names the
// recipient agent for a targeted message; empty broadcasts.
type PostMessageRequest struct {
	Content string `json:"content"`
	To      string `json:"to,omitempty"`
}

// HumanMessageRequest is the body of POST /human/message.
type HumanMessageRequest struct {
	Name       string `json:"name,omitempty"`
	Content    string `json:"content"`
	SenderType string `json:"sender_type,omitempty"`
}

// HumanDirectiveRequest is the body of POST /human/directive.
type HumanDirectiveRequest struct {
	To          string `json:"to"`
	Content     string `json:"content"`
	TxHash      string `json:"tx_hash"`
	FromAddress string `json:"from_address"`
}
