package models

import "time"

// RitualHint is the abbreviated voting-cycle status embedded in the arena
// context while a cycle is active.
type RitualHint struct {
	Phase            RitualPhase `json:"phase"`
	PhaseEndsAt      *time.Time  `json:"phaseEndsAt,omitempty"`
	RemainingSeconds float64     `json:"remainingSeconds"`
}

// ContextView is the unauthenticated arena overview: the musical epoch,
// population counts, and the ritual hint when a cycle is running.
type ContextView struct {
	Epoch          Epoch       `json:"epoch"`
	AgentsOnline   int         `json:"agentsOnline"`
	SessionCount   int         `json:"sessionCount"`
	PlacementCount int         `json:"placementCount"`
	Ritual         *RitualHint `json:"ritual,omitempty"`
	ServerTime     time.Time   `json:"serverTime"`
}
