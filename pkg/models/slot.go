package models

import "time"

// SlotView is one composition board slot. Code and Agent are set together
// or both absent.
type SlotView struct {
	Slot      int          `json:"slot"`
	Type      SlotType     `json:"type"`
	Label     string       `json:"label"`
	Code      string       `json:"code,omitempty"`
	Agent     *AgentPublic `json:"agent,omitempty"`
	UpdatedAt *time.Time   `json:"updatedAt,omitempty"`
	Votes     int          `json:"votes"`
}

// Composition is the full musical picture: the 8-slot board, the current
// music placements, and the active epoch parameters.
type Composition struct {
	Slots      []SlotView  `json:"slots"`
	Placements []Placement `json:"placements"`
	Epoch      Epoch       `json:"epoch"`
}
