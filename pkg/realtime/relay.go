package realtime

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/crewdesk/realtime/pkg/model"
)

// Relay forwards ephemeral typing events and read-receipt updates between
// two users' private channels. It is built entirely on the channel router
// and owns no message content.
type Relay struct {
	store MessageStore
	bcast Broadcaster
}

func NewRelay(store MessageStore, bcast Broadcaster) *Relay {
	return &Relay{store: store, bcast: bcast}
}

// Typing forwards an ephemeral typing indicator to the recipient. Nothing is
// persisted; a recipient with zero connections simply receives nothing. An
// error means the fabric itself failed, not that nobody was listening.
func (r *Relay) Typing(ctx context.Context, conversationID, recipientID, userID string, isTyping bool) error {
	_, err := r.bcast.Broadcast(ctx, PrivateChannel(recipientID), model.EventUserTyping, model.UserTyping{
		ConversationID: conversationID,
		UserID:         userID,
		IsTyping:       isTyping,
	})
	if err != nil {
		return fmt.Errorf("forward typing to %s: %w", recipientID, err)
	}
	return nil
}

// MarkRead stamps read_at on the counterpart's unread messages in the
// conversation, then tells their client so the sender's UI can update. The
// store update is the operation; the broadcast is best-effort on top.
func (r *Relay) MarkRead(ctx context.Context, conversationID, recipientID string) error {
	if err := r.store.MarkMessagesRead(ctx, conversationID, recipientID, time.Now()); err != nil {
		return fmt.Errorf("mark messages read in %s: %w", conversationID, err)
	}
	if _, err := r.bcast.Broadcast(ctx, PrivateChannel(recipientID), model.EventMessagesRead, model.MessagesRead{
		ConversationID: conversationID,
	}); err != nil {
		log.Printf("broadcast messages-read for %s: %v", conversationID, err)
	}
	return nil
}
