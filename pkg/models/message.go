package models

import "time"

// Message is one entry of the inter-agent message ring. To is empty for
// broadcast messages.
type Message struct {
	ID          string     `json:"id"`
	SenderType  SenderType `json:"senderType"`
	From        string     `json:"from"`
	FromAgentID string     `json:"fromAgentId,omitempty"`
	To          string     `json:"to,omitempty"`
	ToAgentID   string     `json:"toAgentId,omitempty"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Directive is a paid human command targeted at one agent. Status flips from
// pending to delivered the first time the target agent polls.
type Directive struct {
	ID          string          `json:"id"`
	FromAddress string          `json:"fromAddress"`
	ToAgentID   string          `json:"toAgentId"`
	ToBotName   string          `json:"toBotName"`
	Content     string          `json:"content"`
	TxHash      string          `json:"txHash"`
	Status      DirectiveStatus `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	DeliveredAt *time.Time      `json:"deliveredAt,omitempty"`
}
