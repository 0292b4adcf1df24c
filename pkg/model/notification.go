package model

import "time"

type NotificationType string

const (
	TypeMessage NotificationType = "MESSAGE"
	TypeAlert   NotificationType = "ALERT"
	TypeInfo    NotificationType = "INFO"
	TypeTask    NotificationType = "TASK"
	TypeSystem  NotificationType = "SYSTEM"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Notification is the durable record. The stored row is the source of truth;
// real-time push is an optimization layered on top of it.
type Notification struct {
	ID          int64            `json:"id"`
	RecipientID string           `json:"recipient_id"`
	Message     string           `json:"message"`
	Link        string           `json:"link,omitempty"`
	SenderID    string           `json:"sender_id,omitempty"`
	Read        bool             `json:"read"`
	Type        NotificationType `json:"type"`
	Priority    Priority         `json:"priority"`
	CreatedAt   time.Time        `json:"created_at"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty"`
}
