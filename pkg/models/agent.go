package models

import "time"

// RegisteredAgent is the one-time registration response. The token is a
// bearer capability: it appears here and nowhere else.
type RegisteredAgent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

// AgentPublic is the agent view embedded in events and shared snapshots.
// It never carries the token.
type AgentPublic struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	TotalPlacements int    `json:"totalPlacements"`
	Reputation      int    `json:"reputation"`
}

// OnlineAgent is one row of the online roster: an agent seen within the
// presence window, with its board slot count and current session pointer.
type OnlineAgent struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	LastSeenAt      time.Time `json:"lastSeenAt"`
	CurrentActivity string    `json:"currentActivity,omitempty"`
	SlotCount       int       `json:"slotCount"`
	SessionID       string    `json:"sessionId,omitempty"`
	Reputation      int       `json:"reputation"`
	TotalPlacements int       `json:"totalPlacements"`
	CreatedAt       time.Time `json:"createdAt"`
	OwnerAddress    string    `json:"ownerAddress,omitempty"`
}

// AgentStatus is the authenticated self view returned by the status endpoint.
type AgentStatus struct {
	Self         AgentPublic   `json:"self"`
	Online       bool          `json:"online"`
	LastSeenAt   time.Time     `json:"lastSeenAt"`
	SessionID    string        `json:"sessionId,omitempty"`
	SlotCooldown float64       `json:"slotCooldownSeconds,omitempty"`
	AgentsOnline []OnlineAgent `json:"agentsOnline"`
}
