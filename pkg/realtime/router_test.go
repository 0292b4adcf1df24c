package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/crewdesk/realtime/pkg/model"
)

func TestRouterBroadcastReachesMembers(t *testing.T) {
	r := NewRouter()
	ctx := context.Background()

	c1 := &fakeConn{id: "c1", userID: "alice"}
	c2 := &fakeConn{id: "c2", userID: "bob"}
	if err := r.Join(c1, "mission-42"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := r.Join(c2, "mission-42"); err != nil {
		t.Fatalf("join: %v", err)
	}

	n, err := r.Broadcast(ctx, "mission-42", model.EventNewMessage, map[string]string{"content": "hi"})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 receivers, got %d", n)
	}

	var env model.Envelope
	if err := json.Unmarshal(c1.frames[0], &env); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if env.Event != model.EventNewMessage {
		t.Fatalf("frame event = %q", env.Event)
	}
}

func TestRouterBroadcastEmptyChannelIsNoop(t *testing.T) {
	r := NewRouter()

	n, err := r.Broadcast(context.Background(), "nobody-here", model.EventUserTyping, nil)
	if err != nil {
		t.Fatalf("empty channel must not error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 receivers, got %d", n)
	}
}

func TestRouterLeave(t *testing.T) {
	r := NewRouter()
	ctx := context.Background()

	c := &fakeConn{id: "c1", userID: "alice"}
	r.Join(c, "mission-42")
	if err := r.Leave("c1", "mission-42"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	n, _ := r.Broadcast(ctx, "mission-42", model.EventNewMessage, nil)
	if n != 0 {
		t.Fatalf("left connection still received, %d receivers", n)
	}
}

func TestRouterRemoveConnLeavesAllChannels(t *testing.T) {
	r := NewRouter()
	ctx := context.Background()

	c := &fakeConn{id: "c1", userID: "alice"}
	r.Join(c, PrivateChannel("alice"))
	r.Join(c, ChannelPresence)
	r.Join(c, "mission-42")

	r.RemoveConn("c1")

	for _, channel := range []string{PrivateChannel("alice"), ChannelPresence, "mission-42"} {
		if n, _ := r.Broadcast(ctx, channel, model.EventNewMessage, nil); n != 0 {
			t.Fatalf("destroyed connection still member of %s", channel)
		}
	}

	// Unknown connection is a no-op.
	r.RemoveConn("ghost")
}

func TestRouterFullSendBufferNotCounted(t *testing.T) {
	r := NewRouter()

	ok := &fakeConn{id: "c1", userID: "alice"}
	full := &fakeConn{id: "c2", userID: "bob", reject: true}
	r.Join(ok, "mission-42")
	r.Join(full, "mission-42")

	n, err := r.Broadcast(context.Background(), "mission-42", model.EventNewMessage, nil)
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 accepted delivery, got %d", n)
	}
}

func TestRouterClosedFailsFast(t *testing.T) {
	r := NewRouter()
	c := &fakeConn{id: "c1", userID: "alice"}
	r.Join(c, "mission-42")
	r.Close()

	if err := r.Join(c, "other"); !errors.Is(err, ErrRouterClosed) {
		t.Fatalf("join after close = %v, want ErrRouterClosed", err)
	}
	if err := r.Leave("c1", "mission-42"); !errors.Is(err, ErrRouterClosed) {
		t.Fatalf("leave after close = %v, want ErrRouterClosed", err)
	}
	if _, err := r.Broadcast(context.Background(), "mission-42", model.EventNewMessage, nil); !errors.Is(err, ErrRouterClosed) {
		t.Fatalf("broadcast after close = %v, want ErrRouterClosed", err)
	}
}
