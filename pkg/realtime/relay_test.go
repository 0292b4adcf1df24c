package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/crewdesk/realtime/pkg/model"
)

type readMark struct {
	conversationID string
	senderID       string
	at             time.Time
}

type fakeMessageStore struct {
	mu    sync.Mutex
	marks []readMark
	fail  error
}

func (s *fakeMessageStore) MarkMessagesRead(_ context.Context, conversationID, senderID string, at time.Time) error {
	if s.fail != nil {
		return s.fail
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks = append(s.marks, readMark{conversationID: conversationID, senderID: senderID, at: at})
	return nil
}

func TestRelayTypingForwardsToRecipient(t *testing.T) {
	bcast := &recordingBroadcaster{receivers: 1}
	relay := NewRelay(&fakeMessageStore{}, bcast)

	if err := relay.Typing(context.Background(), "conv-1", "bob", "alice", true); err != nil {
		t.Fatalf("typing: %v", err)
	}

	casts := bcast.all()
	if len(casts) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(casts))
	}
	if casts[0].channel != PrivateChannel("bob") || casts[0].event != model.EventUserTyping {
		t.Fatalf("typing went to %s/%s", casts[0].channel, casts[0].event)
	}
	payload := casts[0].payload.(model.UserTyping)
	if payload.UserID != "alice" || payload.ConversationID != "conv-1" || !payload.IsTyping {
		t.Fatalf("bad typing payload: %+v", payload)
	}
}

func TestRelayTypingNoRecipientConnections(t *testing.T) {
	// A real router with no members: zero receivers, no error, no side effect.
	router := NewRouter()
	relay := NewRelay(&fakeMessageStore{}, router)

	if err := relay.Typing(context.Background(), "conv-1", "bob", "alice", true); err != nil {
		t.Fatalf("typing to an empty channel must not error: %v", err)
	}
}

func TestRelayMarkReadUpdatesThenBroadcasts(t *testing.T) {
	store := &fakeMessageStore{}
	bcast := &recordingBroadcaster{receivers: 1}
	relay := NewRelay(store, bcast)

	before := time.Now()
	if err := relay.MarkRead(context.Background(), "conv-1", "bob"); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	if len(store.marks) != 1 {
		t.Fatalf("expected one store update, got %d", len(store.marks))
	}
	mark := store.marks[0]
	if mark.conversationID != "conv-1" || mark.senderID != "bob" {
		t.Fatalf("bad mark: %+v", mark)
	}
	if mark.at.Before(before) {
		t.Fatalf("read_at %v precedes the call", mark.at)
	}

	casts := bcast.all()
	if len(casts) != 1 || casts[0].channel != PrivateChannel("bob") || casts[0].event != model.EventMessagesRead {
		t.Fatalf("expected messages-read on bob's channel, got %+v", casts)
	}
}

func TestRelayMarkReadStoreFailureSurfaces(t *testing.T) {
	store := &fakeMessageStore{fail: errors.New("keyspace down")}
	bcast := &recordingBroadcaster{receivers: 1}
	relay := NewRelay(store, bcast)

	if err := relay.MarkRead(context.Background(), "conv-1", "bob"); err == nil {
		t.Fatal("store failure must surface")
	}
	if len(bcast.all()) != 0 {
		t.Fatal("no broadcast may fire when the update failed")
	}
}

func TestRelayMarkReadBroadcastFailureDegrades(t *testing.T) {
	store := &fakeMessageStore{}
	bcast := &recordingBroadcaster{err: errors.New("fabric unavailable")}
	relay := NewRelay(store, bcast)

	if err := relay.MarkRead(context.Background(), "conv-1", "bob"); err != nil {
		t.Fatalf("broadcast failure must degrade, not fail: %v", err)
	}
	if len(store.marks) != 1 {
		t.Fatal("store update must still have happened")
	}
}
