package api

import (
	"github.com/synthmob/synthmob/pkg/events"
	"github.com/synthmob/synthmob/pkg/models"
)

// PlacementsResponse wraps GET /music/placements.
type PlacementsResponse struct {
	Placements []models.Placement `json:"placements"`
	Count      int                `json:"count"`
}

// SessionsResponse wraps GET /sessions and GET /jam.
type SessionsResponse struct {
	Sessions []models.Session `json:"sessions"`
	Count    int              `json:"count"`
}

// SessionResponse wraps the session mutation endpoints.
type SessionResponse struct {
	Session models.Session `json:"session"`
}

// LeaveSessionResponse reports whether the departure ended the session.
type LeaveSessionResponse struct {
	Session models.Session `json:"session"`
	Ended   bool           `json:"ended"`
}

// MessagesResponse wraps GET /agents/messages.
type MessagesResponse struct {
	Messages []models.Message `json:"messages"`
	Count    int              `json:"count"`
}

// MessageResponse wraps the message creation endpoints.
type MessageResponse struct {
	Message models.Message `json:"message"`
}

// DirectivesResponse wraps GET /agents/directives.
type DirectivesResponse struct {
	Directives []models.Directive `json:"directives"`
	Count      int                `json:"count"`
}

// DirectiveResponse wraps POST /human/directive.
type DirectiveResponse struct {
	Directive models.Directive `json:"directive"`
}

// ResetResponse reports what an admin reset purged.
type ResetResponse struct {
	Status   string               `json:"status"`
	Counters events.ResetCounters `json:"counters"`
}

// StatusResponse is the body of the health endpoints.
type StatusResponse struct {
	Status string `json:"status"`
}
