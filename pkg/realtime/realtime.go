// Package realtime implements the presence and notification delivery core:
// connection tracking, debounced online/offline transitions, channel pub/sub,
// durable notification dispatch and the typing/read-receipt relay.
package realtime

import (
	"context"
	"time"

	"github.com/crewdesk/realtime/pkg/model"
)

// ChannelPresence is the well-known channel every connection joins; user
// status changes are broadcast here so all peers observe them.
const ChannelPresence = "presence"

// PrivateChannel returns the delivery channel for a user. Every connection
// automatically joins its owner's private channel, which is simply named
// after the user identity.
func PrivateChannel(userID string) string {
	return userID
}

// Conn is a live transport connection as seen by the router. Send must not
// block; it reports whether the frame was accepted.
type Conn interface {
	ID() string
	UserID() string
	Send(frame []byte) bool
}

// Broadcaster delivers an event to every member of a channel and reports how
// many receivers accepted it. An empty channel is a no-op, not an error.
type Broadcaster interface {
	Broadcast(ctx context.Context, channel, event string, payload any) (int, error)
}

// ConnectionRegistry is the source of truth for "does this user have any
// live connection right now". Injectable so a distributed backing store can
// replace the in-memory one if presence is ever fanned out across processes.
type ConnectionRegistry interface {
	Register(userID, connID string)
	Remove(userID, connID string) (becameEmpty bool)
	IsOnline(userID string) bool
	ListOnline() []string
}

// OnlineChecker is the read-side presence view used where the full registry
// is out of reach (e.g. the API process consulting the Redis mirror).
type OnlineChecker interface {
	IsOnline(ctx context.Context, userID string) (bool, error)
}

// PresenceStore persists committed online/offline transitions.
type PresenceStore interface {
	SetOnline(ctx context.Context, userID string, at time.Time) error
	SetOffline(ctx context.Context, userID string, at time.Time) error
}

// NotificationStore persists notification records. Durability precedes any
// delivery attempt.
type NotificationStore interface {
	SaveNotification(ctx context.Context, n *model.Notification) error
	MarkNotificationRead(ctx context.Context, recipientID string, id int64) error
}

// MessageStore updates read receipts on the messaging collaborator's rows.
type MessageStore interface {
	MarkMessagesRead(ctx context.Context, conversationID, senderID string, at time.Time) error
}
