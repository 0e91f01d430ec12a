package models

import "time"

// WorldContribution is one agent's slice of the shared world.
type WorldContribution struct {
	AgentID   string           `json:"agentId"`
	BotName   string           `json:"botName"`
	Elements  []map[string]any `json:"elements"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// WorldSnapshot is the aggregate world view computed on read: the merged
// last-write-wins environment plus every agent's collections, flattened and
// tagged with the contributing bot.
type WorldSnapshot struct {
	Environment    map[string]any      `json:"environment"`
	Contributions  []WorldContribution `json:"contributions"`
	Voxels         []map[string]any    `json:"voxels"`
	CatalogItems   []map[string]any    `json:"catalog_items"`
	GeneratedItems []map[string]any    `json:"generated_items"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}
