package models

import "time"

// Position is an xz point in the arena plane.
type Position struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// Placement is a spatial instrument placement.
type Placement struct {
	ID             string         `json:"id"`
	AgentID        string         `json:"agentId"`
	BotName        string         `json:"botName"`
	InstrumentType InstrumentType `json:"instrumentType"`
	Pattern        string         `json:"pattern"`
	Position       Position       `json:"position"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
