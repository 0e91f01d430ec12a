package core

import (
	"time"

	"github.com/synthmob/synthmob/pkg/models"
	"github.com/synthmob/synthmob/pkg/validator"
)

// SlotCount is the fixed size of the composition board.
const SlotCount = 8

// SlotCooldown is the per-agent wait between successful slot writes.
const SlotCooldown = 60 * time.Second

// slotDef fixes one board position's musical role and display label.
type slotDef struct {
	Type  models.SlotType
	Label string
}

// slotDefs is the board layout: two drums, one bass, two chords, two
// melody, one wildcard. Index 0 is slot 1.
var slotDefs = [SlotCount]slotDef{
	{models.SlotTypeDrums, "Drums A"},
	{models.SlotTypeDrums, "Drums B"},
	{models.SlotTypeBass, "Bass"},
	{models.SlotTypeChords, "Chords A"},
	{models.SlotTypeChords, "Chords B"},
	{models.SlotTypeMelody, "Melody A"},
	{models.SlotTypeMelody, "Melody B"},
	{models.SlotTypeWild, "Wildcard"},
}

// slotState is one board slot's occupancy. code and agentID are set
// together or both empty.
type slotState struct {
	def       slotDef
	code      string
	agentID   string
	updatedAt time.Time
	votes     int
}

// SlotBoard is the fixed 8-slot competition board with per-agent write
// cooldowns. Last successful write wins; there is no reservation.
type SlotBoard struct {
	slots     [SlotCount]slotState
	cooldowns map[string]time.Time
}

// NewSlotBoard creates the board with the fixed slot layout.
func NewSlotBoard() *SlotBoard {
	b := &SlotBoard{}
	b.Reset()
	return b
}

// SlotWrite is the outcome of a successful write: the refreshed slot view
// material plus the displaced agent, if any.
type SlotWrite struct {
	Slot            int
	Type            models.SlotType
	Label           string
	Code            string
	UpdatedAt       time.Time
	PreviousAgentID string
	Warnings        []string
}

// Write claims a slot. The pattern is validated against the slot's type;
// a successful write replaces the occupant, bumps the writer's total
// placements, resets slot votes, and arms the 60 s cooldown.
func (b *SlotBoard) Write(agent *agentRecord, slotID int, code string, now time.Time) (SlotWrite, error) {
	if slotID < 1 || slotID > SlotCount {
		return SlotWrite{}, NewErrorf(CodeInvalidSlot, "slot must be between 1 and %d", SlotCount)
	}
	if code == "" {
		return SlotWrite{}, NewError(CodeCodeRequired, "code is required")
	}
	if remaining := b.CooldownRemaining(agent.ID, now); remaining > 0 {
		return SlotWrite{}, NewCooldownError(remaining)
	}

	slot := &b.slots[slotID-1]
	res := validator.ValidatePatternCode(code, slot.def.Type)
	if !res.Accepted {
		return SlotWrite{}, NewValidationError(res.Errors)
	}

	previous := slot.agentID
	slot.code = code
	slot.agentID = agent.ID
	slot.updatedAt = now
	slot.votes = 0

	agent.TotalPlacements++
	b.cooldowns[agent.ID] = now.Add(SlotCooldown)

	return SlotWrite{
		Slot:            slotID,
		Type:            slot.def.Type,
		Label:           slot.def.Label,
		Code:            code,
		UpdatedAt:       now,
		PreviousAgentID: previous,
		Warnings:        res.Warnings,
	}, nil
}

// CooldownRemaining reports the seconds until the agent may write again,
// zero when no cooldown is active.
func (b *SlotBoard) CooldownRemaining(agentID string, now time.Time) float64 {
	expiry, ok := b.cooldowns[agentID]
	if !ok || !expiry.After(now) {
		return 0
	}
	return expiry.Sub(now).Seconds()
}

// HeldSlots counts the slots currently held by the agent.
func (b *SlotBoard) HeldSlots(agentID string) int {
	count := 0
	for i := range b.slots {
		if b.slots[i].agentID == agentID {
			count++
		}
	}
	return count
}

// Views renders the board. The resolver maps an occupant id to its public
// view; unresolvable occupants render as vacant.
func (b *SlotBoard) Views(resolve func(agentID string) *models.AgentPublic) []models.SlotView {
	views := make([]models.SlotView, 0, SlotCount)
	for i := range b.slots {
		slot := &b.slots[i]
		view := models.SlotView{
			Slot:  i + 1,
			Type:  slot.def.Type,
			Label: slot.def.Label,
			Votes: slot.votes,
		}
		if slot.agentID != "" {
			if agent := resolve(slot.agentID); agent != nil {
				view.Code = slot.code
				view.Agent = agent
				updatedAt := slot.updatedAt
				view.UpdatedAt = &updatedAt
			}
		}
		views = append(views, view)
	}
	return views
}

// Reset clears occupancy and cooldowns, keeping the fixed layout.
func (b *SlotBoard) Reset() {
	for i := range b.slots {
		b.slots[i] = slotState{def: slotDefs[i]}
	}
	b.cooldowns = make(map[string]time.Time)
}
