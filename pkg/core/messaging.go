package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/synthmob/synthmob/pkg/models"
)

const (
	// MessageRingCap bounds the agent message log.
	MessageRingCap = 200
	// MaxMessageLength is the agent message cap; longer content is truncated.
	MaxMessageLength = 500
	// MaxHumanMessageLength caps human-originated content.
	MaxHumanMessageLength = 280
	// HumanMessageWindow is the per-sender rate limit for human messages.
	HumanMessageWindow = 5 * time.Second

	// DirectiveRingCap bounds the paid directive log.
	DirectiveRingCap = 200
	// MaxDirectiveLength caps directive content.
	MaxDirectiveLength = 280
)

// Messaging holds the agent message ring, the human rate limiter, and the
// paid directive queue.
type Messaging struct {
	messages   []models.Message
	directives []models.Directive
	humanSeen  map[string]time.Time
}

// NewMessaging creates empty rings.
func NewMessaging() *Messaging {
	m := &Messaging{}
	m.Reset()
	return m
}

// AddAgentMessage appends a broadcast or targeted message from an agent.
// The target is resolved by the caller; a nil target broadcasts.
func (m *Messaging) AddAgentMessage(from *agentRecord, content string, to *agentRecord, now time.Time) (models.Message, error) {
	if content == "" {
		return models.Message{}, NewError(CodeMessageRequired, "message content is required")
	}
	msg := models.Message{
		ID:          uuid.New().String(),
		SenderType:  models.SenderAgent,
		From:        from.Name,
		FromAgentID: from.ID,
		Content:     truncate(content, MaxMessageLength),
		CreatedAt:   now,
	}
	if to != nil {
		msg.To = to.Name
		msg.ToAgentID = to.ID
	}
	m.appendMessage(msg)
	return msg, nil
}

// AddHumanMessage appends a message from outside the agent population,
// rate-limited to one per sender hash per window.
func (m *Messaging) AddHumanMessage(senderName, content, senderHash string, senderType models.SenderType, now time.Time) (models.Message, error) {
	if content == "" {
		return models.Message{}, NewError(CodeMessageRequired, "message content is required")
	}
	if last, ok := m.humanSeen[senderHash]; ok {
		if wait := HumanMessageWindow - now.Sub(last); wait > 0 {
			return models.Message{}, NewRateLimitError(wait.Seconds())
		}
	}
	m.humanSeen[senderHash] = now

	msg := models.Message{
		ID:         uuid.New().String(),
		SenderType: senderType,
		From:       senderName,
		Content:    truncate(content, MaxHumanMessageLength),
		CreatedAt:  now,
	}
	m.appendMessage(msg)
	return msg, nil
}

// Visible lists the messages an agent may read: every broadcast plus the
// targeted messages they sent or received. An empty agent ID reads
// broadcasts only.
func (m *Messaging) Visible(agentID string, limit int) []models.Message {
	out := make([]models.Message, 0, limit)
	for _, msg := range m.messages {
		if msg.ToAgentID != "" && agentID == "" {
			continue
		}
		if msg.ToAgentID != "" && msg.FromAgentID != agentID && msg.ToAgentID != agentID {
			continue
		}
		out = append(out, msg)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// AddDirective appends a pending paid directive for one agent.
func (m *Messaging) AddDirective(fromAddress string, to *agentRecord, content, txHash string, now time.Time) models.Directive {
	d := models.Directive{
		ID:          uuid.New().String(),
		FromAddress: fromAddress,
		ToAgentID:   to.ID,
		ToBotName:   to.Name,
		Content:     truncate(content, MaxDirectiveLength),
		TxHash:      txHash,
		Status:      models.DirectivePending,
		CreatedAt:   now,
	}
	m.directives = append(m.directives, d)
	if len(m.directives) > DirectiveRingCap {
		m.directives = m.directives[len(m.directives)-DirectiveRingCap:]
	}
	return d
}

// PendingDirectives returns the agent's undelivered directives, flipping
// each to delivered as it is read.
func (m *Messaging) PendingDirectives(agentID string, now time.Time) []models.Directive {
	var out []models.Directive
	for i := range m.directives {
		d := &m.directives[i]
		if d.ToAgentID != agentID || d.Status != models.DirectivePending {
			continue
		}
		d.Status = models.DirectiveDelivered
		delivered := now
		d.DeliveredAt = &delivered
		out = append(out, *d)
	}
	return out
}

// MessageCount reports the ring's current size.
func (m *Messaging) MessageCount() int {
	return len(m.messages)
}

// DirectiveCount reports the directive ring's current size.
func (m *Messaging) DirectiveCount() int {
	return len(m.directives)
}

// Reset drops both rings and the rate limiter state.
func (m *Messaging) Reset() {
	m.messages = nil
	m.directives = nil
	m.humanSeen = make(map[string]time.Time)
}

func (m *Messaging) appendMessage(msg models.Message) {
	m.messages = append(m.messages, msg)
	if len(m.messages) > MessageRingCap {
		m.messages = m.messages[len(m.messages)-MessageRingCap:]
	}
}
