package models

import "time"

// SessionPosition is where a session lives in the arena, with its derived room.
type SessionPosition struct {
	X    float64 `json:"x"`
	Z    float64 `json:"z"`
	Room Room    `json:"room"`
}

// Participant is one member of a session.
type Participant struct {
	AgentID  string          `json:"agentId"`
	BotName  string          `json:"botName"`
	JoinedAt time.Time       `json:"joinedAt"`
	Role     ParticipantRole `json:"role"`
	Pattern  string          `json:"pattern,omitempty"`
	Output   string          `json:"output,omitempty"`
}

// Session is a typed collaborative session.
type Session struct {
	ID             string          `json:"id"`
	Type           SessionType     `json:"type"`
	Title          string          `json:"title,omitempty"`
	CreatorAgentID string          `json:"creatorAgentId"`
	CreatorBotName string          `json:"creatorBotName"`
	Position       SessionPosition `json:"position"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	Participants   []Participant   `json:"participants"`
	Meta           map[string]any  `json:"meta,omitempty"`
}
