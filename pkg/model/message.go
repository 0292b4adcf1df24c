package model

import "time"

// ChatMessage is owned by the messaging collaborator; the relay only touches
// its read_at column for receipts and forwards it verbatim as new-message.
type ChatMessage struct {
	ID             int64      `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	RecipientID    string     `json:"recipient_id"`
	Content        string     `json:"content"`
	SentAt         time.Time  `json:"sent_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}
