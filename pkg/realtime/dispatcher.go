package realtime

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/crewdesk/realtime/pkg/model"
	"github.com/crewdesk/realtime/pkg/snowflake"
)

// CreateInput carries the fields a business workflow supplies when it
// notifies a user. RecipientID and Message are required; Type and Priority
// default to INFO and MEDIUM.
type CreateInput struct {
	RecipientID string
	Message     string
	Link        string
	SenderID    string
	Type        model.NotificationType
	Priority    model.Priority
	ExpiresAt   *time.Time
}

// Dispatcher persists notifications and best-effort pushes them to the
// recipient's private channel. The persisted row is the source of truth:
// a push failure degrades to delivered=false, never to a lost notification.
type Dispatcher struct {
	store        NotificationStore
	presence     OnlineChecker
	bcast        Broadcaster
	ids          *snowflake.Node
	markHighRead bool
}

// DispatcherOption configures optional dispatcher behavior.
type DispatcherOption func(*Dispatcher)

// WithHighPriorityAutoRead restores the legacy behavior of marking a HIGH
// priority notification read as soon as the push lands. Delivered and read
// are distinct states, so this is off unless explicitly asked for.
func WithHighPriorityAutoRead() DispatcherOption {
	return func(d *Dispatcher) { d.markHighRead = true }
}

// NewDispatcher wires the dispatcher. All collaborators are required; a nil
// one means the process is not fully initialized and calls would silently
// drop events, so construction fails instead.
func NewDispatcher(store NotificationStore, presence OnlineChecker, bcast Broadcaster, ids *snowflake.Node, opts ...DispatcherOption) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("realtime: dispatcher needs a notification store")
	}
	if presence == nil {
		return nil, errors.New("realtime: dispatcher needs an online checker")
	}
	if bcast == nil {
		return nil, errors.New("realtime: dispatcher needs a broadcaster")
	}
	if ids == nil {
		return nil, errors.New("realtime: dispatcher needs an id generator")
	}
	d := &Dispatcher{store: store, presence: presence, bcast: bcast, ids: ids}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Create persists the notification, then pushes it if the recipient is
// online. The returned bool reports whether the push reached at least one
// connection. Only a persistence failure is an error.
func (d *Dispatcher) Create(ctx context.Context, in CreateInput) (*model.Notification, bool, error) {
	if in.RecipientID == "" {
		return nil, false, errors.New("realtime: notification needs a recipient")
	}
	if in.Message == "" {
		return nil, false, errors.New("realtime: notification needs a message")
	}
	if in.Type == "" {
		in.Type = model.TypeInfo
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}

	n := &model.Notification{
		ID:          d.ids.Generate(),
		RecipientID: in.RecipientID,
		Message:     in.Message,
		Link:        in.Link,
		SenderID:    in.SenderID,
		Type:        in.Type,
		Priority:    in.Priority,
		CreatedAt:   time.Now(),
		ExpiresAt:   in.ExpiresAt,
	}

	if err := d.store.SaveNotification(ctx, n); err != nil {
		return nil, false, fmt.Errorf("save notification for %s: %w", in.RecipientID, err)
	}

	delivered := false
	online, err := d.presence.IsOnline(ctx, in.RecipientID)
	if err != nil {
		log.Printf("presence check for %s: %v", in.RecipientID, err)
	} else if online {
		receivers, err := d.bcast.Broadcast(ctx, PrivateChannel(in.RecipientID), model.EventNewNotification, n)
		if err != nil {
			log.Printf("push notification %d to %s: %v", n.ID, in.RecipientID, err)
		} else if receivers > 0 {
			delivered = true
		}
	}

	if delivered && d.markHighRead && n.Priority == model.PriorityHigh {
		if err := d.store.MarkNotificationRead(ctx, n.RecipientID, n.ID); err != nil {
			log.Printf("auto-read notification %d: %v", n.ID, err)
		} else {
			n.Read = true
		}
	}

	return n, delivered, nil
}
