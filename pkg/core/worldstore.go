package core

import (
	"encoding/json"
	"time"

	"github.com/synthmob/synthmob/pkg/models"
	"github.com/synthmob/synthmob/pkg/validator"
)

// envFields are the output keys merged into the shared environment.
var envFields = []string{"sky", "fog", "ground", "lighting"}

type worldContribution struct {
	agentID   string
	botName   string
	output    map[string]any
	updatedAt time.Time
}

// WorldStore holds the shared build space: one contribution per agent plus
// a merged environment map. The environment applies last-write-wins across
// agents; clearing a contribution replays the rest in last-write order.
type WorldStore struct {
	contributions map[string]*worldContribution
	order         []string
	environment   map[string]any
	updatedAt     time.Time
}

// NewWorldStore creates an empty world.
func NewWorldStore() *WorldStore {
	w := &WorldStore{}
	w.Reset()
	return w
}

// Write validates and stores the agent's world output, merging any
// top-level environment fields.
func (w *WorldStore) Write(agent *agentRecord, raw []byte, now time.Time) error {
	res := validator.ValidateOutput("world", raw)
	if !res.Accepted {
		return NewValidationError(res.Errors)
	}

	var output map[string]any
	if err := json.Unmarshal(raw, &output); err != nil {
		return NewErrorf(CodeInvalidJSON, "output is not valid JSON: %v", err)
	}

	if _, exists := w.contributions[agent.ID]; exists {
		w.dropFromOrder(agent.ID)
	}
	w.contributions[agent.ID] = &worldContribution{
		agentID:   agent.ID,
		botName:   agent.Name,
		output:    output,
		updatedAt: now,
	}
	w.order = append(w.order, agent.ID)

	for _, field := range envFields {
		if v, ok := output[field]; ok {
			w.environment[field] = v
		}
	}
	w.updatedAt = now
	return nil
}

// Clear removes the agent's contribution and rebuilds the environment from
// the remaining contributions, replayed in the order of their last writes.
func (w *WorldStore) Clear(agentID string, now time.Time) {
	if _, exists := w.contributions[agentID]; !exists {
		return
	}
	delete(w.contributions, agentID)
	w.dropFromOrder(agentID)

	w.environment = make(map[string]any)
	for _, id := range w.order {
		output := w.contributions[id].output
		for _, field := range envFields {
			if v, ok := output[field]; ok {
				w.environment[field] = v
			}
		}
	}
	w.updatedAt = now
}

// Snapshot aggregates the world: merged environment, per-agent
// contributions, and the flattened collections tagged per contributor.
func (w *WorldStore) Snapshot() models.WorldSnapshot {
	snap := models.WorldSnapshot{
		Environment:    make(map[string]any, len(w.environment)),
		Contributions:  make([]models.WorldContribution, 0, len(w.order)),
		Voxels:         []map[string]any{},
		CatalogItems:   []map[string]any{},
		GeneratedItems: []map[string]any{},
		UpdatedAt:      w.updatedAt,
	}
	for k, v := range w.environment {
		snap.Environment[k] = v
	}

	for _, id := range w.order {
		c := w.contributions[id]
		snap.Contributions = append(snap.Contributions, models.WorldContribution{
			AgentID:   c.agentID,
			BotName:   c.botName,
			Elements:  copyObjectList(c.output["elements"]),
			UpdatedAt: c.updatedAt,
		})
		snap.Voxels = appendTagged(snap.Voxels, c.output["voxels"], c.agentID, c.botName)
		snap.CatalogItems = appendTagged(snap.CatalogItems, c.output["catalog_items"], c.agentID, c.botName)
		snap.GeneratedItems = appendTagged(snap.GeneratedItems, c.output["generated_items"], c.agentID, c.botName)
	}
	return snap
}

// ContributorCount reports how many agents hold a contribution.
func (w *WorldStore) ContributorCount() int {
	return len(w.contributions)
}

// Reset drops every contribution and the environment.
func (w *WorldStore) Reset() {
	w.contributions = make(map[string]*worldContribution)
	w.order = nil
	w.environment = make(map[string]any)
	w.updatedAt = time.Time{}
}

func (w *WorldStore) dropFromOrder(agentID string) {
	for i, id := range w.order {
		if id == agentID {
			w.order = append(w.order[:i], w.order[i+1:]...)
			return
		}
	}
}

// copyObjectList deep-copies a []any of JSON objects out of a stored
// contribution, returning an empty slice for anything else.
func copyObjectList(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return []map[string]any{}
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, copyObject(obj))
	}
	return out
}

// appendTagged flattens one contributor's collection into dst, stamping
// each entry with the contributing agent.
func appendTagged(dst []map[string]any, v any, agentID, botName string) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return dst
	}
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		tagged := copyObject(obj)
		tagged["agentId"] = agentID
		tagged["botName"] = botName
		dst = append(dst, tagged)
	}
	return dst
}

// copyObject deep-copies a decoded JSON object.
func copyObject(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case map[string]any:
			out[k] = copyObject(val)
		case []any:
			list := make([]any, len(val))
			for i, item := range val {
				if nested, ok := item.(map[string]any); ok {
					list[i] = copyObject(nested)
				} else {
					list[i] = item
				}
			}
			out[k] = list
		default:
			out[k] = v
		}
	}
	return out
}
