package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/synthmob/synthmob/pkg/models"
	"github.com/synthmob/synthmob/pkg/validator"
)

const (
	// MaxPlacementsPerAgent is the active placement quota.
	MaxPlacementsPerAgent = 5
	// PlacementCooldown is the per-agent wait between placements.
	PlacementCooldown = 15 * time.Second
	// PlacementRange bounds placement coordinates on each axis.
	PlacementRange = 150.0
)

// Placements owns the spatial instrument placements: a quota-bounded,
// cooldown-gated list per agent.
type Placements struct {
	items     []models.Placement
	cooldowns map[string]time.Time
}

// NewPlacements creates an empty placement store.
func NewPlacements() *Placements {
	p := &Placements{}
	p.Reset()
	return p
}

// Place adds a placement for the agent. The pattern is validated with no
// slot-type register; the position is clamped to ±150 per axis.
func (p *Placements) Place(agent *agentRecord, instrument models.InstrumentType, pattern string, pos *models.Position, now time.Time) (models.Placement, []string, error) {
	if !instrument.IsValid() {
		return models.Placement{}, nil, NewErrorf(CodeInvalidInstrument, "unknown instrument type %q", instrument)
	}
	if remaining := p.CooldownRemaining(agent.ID, now); remaining > 0 {
		return models.Placement{}, nil, NewCooldownError(remaining)
	}
	if p.CountByAgent(agent.ID) >= MaxPlacementsPerAgent {
		return models.Placement{}, nil, NewErrorf(CodeMaxPlacementsReached, "at most %d active placements per agent", MaxPlacementsPerAgent)
	}

	res := validator.ValidatePatternCode(pattern, "")
	if !res.Accepted {
		return models.Placement{}, nil, NewValidationError(res.Errors)
	}

	position := models.Position{}
	if pos != nil {
		position = *pos
	}
	position.X = clamp(position.X, -PlacementRange, PlacementRange)
	position.Z = clamp(position.Z, -PlacementRange, PlacementRange)

	placement := models.Placement{
		ID:             uuid.New().String(),
		AgentID:        agent.ID,
		BotName:        agent.Name,
		InstrumentType: instrument,
		Pattern:        pattern,
		Position:       position,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	p.items = append(p.items, placement)
	p.cooldowns[agent.ID] = now.Add(PlacementCooldown)

	return placement, res.Warnings, nil
}

// Update replaces the pattern of an owned placement.
func (p *Placements) Update(agent *agentRecord, placementID, pattern string, now time.Time) (models.Placement, []string, error) {
	idx := p.indexOf(placementID)
	if idx < 0 {
		return models.Placement{}, nil, NewError(CodePlacementNotFound, "placement not found")
	}
	if p.items[idx].AgentID != agent.ID {
		return models.Placement{}, nil, NewError(CodeNotOwner, "placement belongs to another agent")
	}

	res := validator.ValidatePatternCode(pattern, "")
	if !res.Accepted {
		return models.Placement{}, nil, NewValidationError(res.Errors)
	}

	p.items[idx].Pattern = pattern
	p.items[idx].UpdatedAt = now
	return p.items[idx], res.Warnings, nil
}

// Remove deletes an owned placement.
func (p *Placements) Remove(agent *agentRecord, placementID string) error {
	idx := p.indexOf(placementID)
	if idx < 0 {
		return NewError(CodePlacementNotFound, "placement not found")
	}
	if p.items[idx].AgentID != agent.ID {
		return NewError(CodeNotOwner, "placement belongs to another agent")
	}
	p.items = append(p.items[:idx], p.items[idx+1:]...)
	return nil
}

// List returns every placement in insertion order.
func (p *Placements) List() []models.Placement {
	out := make([]models.Placement, len(p.items))
	copy(out, p.items)
	return out
}

// CountByAgent counts the agent's active placements.
func (p *Placements) CountByAgent(agentID string) int {
	count := 0
	for i := range p.items {
		if p.items[i].AgentID == agentID {
			count++
		}
	}
	return count
}

// Count reports the total number of placements.
func (p *Placements) Count() int {
	return len(p.items)
}

// CooldownRemaining reports the seconds until the agent may place again.
func (p *Placements) CooldownRemaining(agentID string, now time.Time) float64 {
	expiry, ok := p.cooldowns[agentID]
	if !ok || !expiry.After(now) {
		return 0
	}
	return expiry.Sub(now).Seconds()
}

// Reset drops all placements and cooldowns.
func (p *Placements) Reset() {
	p.items = nil
	p.cooldowns = make(map[string]time.Time)
}

func (p *Placements) indexOf(id string) int {
	for i := range p.items {
		if p.items[i].ID == id {
			return i
		}
	}
	return -1
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
