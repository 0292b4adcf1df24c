package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crewdesk/realtime/pkg/model"
)

const testGrace = 40 * time.Millisecond

func newTestTracker(t *testing.T) (*Tracker, *MemoryRegistry, *recordingPresenceStore, *recordingBroadcaster) {
	t.Helper()
	registry := NewMemoryRegistry()
	store := &recordingPresenceStore{}
	bcast := &recordingBroadcaster{receivers: 1}
	tracker := NewTracker(registry, store, bcast, testGrace)
	t.Cleanup(tracker.Stop)
	return tracker, registry, store, bcast
}

func connect(t *testing.T, tracker *Tracker, registry *MemoryRegistry, userID, connID string) {
	t.Helper()
	registry.Register(userID, connID)
	if err := tracker.HandleConnect(context.Background(), userID); err != nil {
		t.Fatalf("HandleConnect(%s): %v", userID, err)
	}
}

func disconnect(tracker *Tracker, registry *MemoryRegistry, userID, connID string) {
	tracker.HandleDisconnect(userID, registry.Remove(userID, connID))
}

func statusCasts(bcast *recordingBroadcaster) []model.StatusChange {
	var out []model.StatusChange
	for _, c := range bcast.all() {
		if c.event == model.EventStatusChanged {
			out = append(out, c.payload.(model.StatusChange))
		}
	}
	return out
}

func TestTrackerFirstConnectGoesOnline(t *testing.T) {
	tracker, registry, store, bcast := newTestTracker(t)

	connect(t, tracker, registry, "alice", "c1")

	if got := tracker.State("alice"); got != StateOnline {
		t.Fatalf("state = %v, want online", got)
	}
	writes := store.all()
	if len(writes) != 1 || !writes[0].online {
		t.Fatalf("expected one online persist, got %+v", writes)
	}
	casts := statusCasts(bcast)
	if len(casts) != 1 || !casts[0].IsOnline || casts[0].UserID != "alice" {
		t.Fatalf("expected one online broadcast for alice, got %+v", casts)
	}
}

func TestTrackerSecondConnectionIsSilent(t *testing.T) {
	tracker, registry, store, bcast := newTestTracker(t)

	connect(t, tracker, registry, "alice", "c1")
	connect(t, tracker, registry, "alice", "c2")

	if got := len(statusCasts(bcast)); got != 1 {
		t.Fatalf("expected a single status broadcast, got %d", got)
	}
	if got := len(store.all()); got != 1 {
		t.Fatalf("expected a single persist, got %d", got)
	}
}

func TestTrackerOneOfTwoDisconnectsStaysOnline(t *testing.T) {
	tracker, registry, _, bcast := newTestTracker(t)

	connect(t, tracker, registry, "alice", "c1")
	connect(t, tracker, registry, "alice", "c2")
	disconnect(tracker, registry, "alice", "c1")

	if got := tracker.State("alice"); got != StateOnline {
		t.Fatalf("state = %v, want online with one connection left", got)
	}

	time.Sleep(3 * testGrace)
	if got := len(statusCasts(bcast)); got != 1 {
		t.Fatalf("no offline broadcast may fire while a connection remains, got %d broadcasts", got)
	}
}

func TestTrackerReconnectWithinGraceIsSilent(t *testing.T) {
	tracker, registry, store, bcast := newTestTracker(t)

	connect(t, tracker, registry, "alice", "c1")
	disconnect(tracker, registry, "alice", "c1")

	if got := tracker.State("alice"); got != StatePendingOffline {
		t.Fatalf("state = %v, want pending offline inside the grace window", got)
	}

	// Tab refresh: new connection before the window elapses.
	connect(t, tracker, registry, "alice", "c2")
	time.Sleep(3 * testGrace)

	casts := statusCasts(bcast)
	if len(casts) != 1 {
		t.Fatalf("reconnect within grace must be invisible, got broadcasts %+v", casts)
	}
	writes := store.all()
	if len(writes) != 1 || !writes[0].online {
		t.Fatalf("no offline persist may happen after a reconnect, got %+v", writes)
	}
	if got := tracker.State("alice"); got != StateOnline {
		t.Fatalf("state = %v, want online", got)
	}
}

func TestTrackerGraceElapsesCommitsOffline(t *testing.T) {
	tracker, registry, store, bcast := newTestTracker(t)

	connect(t, tracker, registry, "alice", "c1")
	dropped := time.Now()
	disconnect(tracker, registry, "alice", "c1")

	time.Sleep(3 * testGrace)

	if got := tracker.State("alice"); got != StateOffline {
		t.Fatalf("state = %v, want offline after grace elapsed", got)
	}
	casts := statusCasts(bcast)
	if len(casts) != 2 {
		t.Fatalf("expected online then offline broadcasts, got %+v", casts)
	}
	off := casts[1]
	if off.IsOnline || off.UserID != "alice" || off.LastSeen == nil {
		t.Fatalf("bad offline broadcast: %+v", off)
	}
	if off.LastSeen.Before(dropped) {
		t.Fatalf("lastSeen %v precedes the disconnect at %v", off.LastSeen, dropped)
	}
	writes := store.all()
	if len(writes) != 2 || writes[1].online {
		t.Fatalf("expected offline persist, got %+v", writes)
	}
}

func TestTrackerMultiDeviceLifecycle(t *testing.T) {
	tracker, registry, _, bcast := newTestTracker(t)

	// A online via c1 and c2.
	connect(t, tracker, registry, "a", "c1")
	connect(t, tracker, registry, "a", "c2")

	// c1 drops: still online, nothing broadcast.
	disconnect(tracker, registry, "a", "c1")
	if tracker.State("a") != StateOnline {
		t.Fatal("a must stay online while c2 lives")
	}

	// c2 drops: grace timer starts; c3 reconnects within the window.
	disconnect(tracker, registry, "a", "c2")
	if tracker.State("a") != StatePendingOffline {
		t.Fatal("a must be pending offline after the last connection dropped")
	}
	connect(t, tracker, registry, "a", "c3")
	time.Sleep(2 * testGrace)
	if got := len(statusCasts(bcast)); got != 1 {
		t.Fatalf("c3 reconnect canceled the timer, expected 1 broadcast, got %d", got)
	}

	// c3 drops and nothing reconnects: exactly one offline event.
	dropped := time.Now()
	disconnect(tracker, registry, "a", "c3")
	time.Sleep(3 * testGrace)

	casts := statusCasts(bcast)
	if len(casts) != 2 {
		t.Fatalf("expected exactly one offline broadcast, got %+v", casts)
	}
	if casts[1].IsOnline || casts[1].LastSeen == nil || casts[1].LastSeen.Before(dropped) {
		t.Fatalf("bad final offline broadcast: %+v", casts[1])
	}
}

func TestTrackerRepeatedDisconnectKeepsOneTimer(t *testing.T) {
	tracker, registry, _, bcast := newTestTracker(t)

	connect(t, tracker, registry, "alice", "c1")
	disconnect(tracker, registry, "alice", "c1")
	// A stale transport teardown reports empty again.
	tracker.HandleDisconnect("alice", true)

	time.Sleep(3 * testGrace)
	casts := statusCasts(bcast)
	if len(casts) != 2 {
		t.Fatalf("duplicate disconnects must commit offline once, got %+v", casts)
	}
}

func TestTrackerPersistFailureSurfaces(t *testing.T) {
	registry := NewMemoryRegistry()
	store := &recordingPresenceStore{failSet: errors.New("store down")}
	tracker := NewTracker(registry, store, &recordingBroadcaster{receivers: 1}, testGrace)
	defer tracker.Stop()

	registry.Register("alice", "c1")
	if err := tracker.HandleConnect(context.Background(), "alice"); err == nil {
		t.Fatal("expected persistence error to surface")
	}
}
