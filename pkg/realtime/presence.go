package realtime

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/crewdesk/realtime/pkg/model"
)

// PresenceState is the tracker's per-user state.
type PresenceState int

const (
	StateOffline PresenceState = iota
	StateOnline
	StatePendingOffline
)

// DefaultGrace is the window between a user's last connection dropping and
// the offline transition committing. It absorbs tab refreshes and page
// navigations that would otherwise flap the user's status.
const DefaultGrace = 8 * time.Second

// Tracker decides ONLINE/OFFLINE transitions on top of the registry. A
// disconnect that empties a user's connection set starts a cancelable grace
// timer; only if it elapses with the set still empty does the offline
// transition persist and broadcast. At most one timer exists per user.
type Tracker struct {
	registry ConnectionRegistry
	store    PresenceStore
	bcast    Broadcaster
	grace    time.Duration

	mu     sync.Mutex
	online map[string]bool
	timers map[string]*time.Timer
}

func NewTracker(registry ConnectionRegistry, store PresenceStore, bcast Broadcaster, grace time.Duration) *Tracker {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Tracker{
		registry: registry,
		store:    store,
		bcast:    bcast,
		grace:    grace,
		online:   make(map[string]bool),
		timers:   make(map[string]*time.Timer),
	}
}

// HandleConnect processes a registry Register for the user. Any outstanding
// grace timer is canceled first, so a reconnect inside the window is
// completely silent: no offline was ever broadcast, and no fresh online is.
func (t *Tracker) HandleConnect(ctx context.Context, userID string) error {
	t.mu.Lock()
	if timer, ok := t.timers[userID]; ok {
		timer.Stop()
		delete(t.timers, userID)
	}
	wasOnline := t.online[userID]
	t.online[userID] = true
	t.mu.Unlock()

	if wasOnline {
		return nil
	}

	now := time.Now()
	if err := t.store.SetOnline(ctx, userID, now); err != nil {
		return fmt.Errorf("persist online for %s: %w", userID, err)
	}
	if _, err := t.bcast.Broadcast(ctx, ChannelPresence, model.EventStatusChanged, model.StatusChange{
		UserID:   userID,
		IsOnline: true,
	}); err != nil {
		log.Printf("broadcast online for %s: %v", userID, err)
	}
	return nil
}

// HandleDisconnect processes a registry Remove. Only a remove that emptied
// the user's connection set arms the grace timer; if one is already armed it
// stays, so two rapid disconnects never leak a second timer.
func (t *Tracker) HandleDisconnect(userID string, becameEmpty bool) {
	if !becameEmpty {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.online[userID] {
		return
	}
	if _, ok := t.timers[userID]; ok {
		return
	}
	t.timers[userID] = time.AfterFunc(t.grace, func() {
		t.commitOffline(userID)
	})
}

// commitOffline runs when a grace timer fires. The registry is re-checked:
// a connection that reappeared in the interim turns this into a no-op.
func (t *Tracker) commitOffline(userID string) {
	t.mu.Lock()
	delete(t.timers, userID)
	if t.registry.IsOnline(userID) || !t.online[userID] {
		t.mu.Unlock()
		return
	}
	t.online[userID] = false
	t.mu.Unlock()

	ctx := context.Background()
	now := time.Now()
	if err := t.store.SetOffline(ctx, userID, now); err != nil {
		log.Printf("persist offline for %s: %v", userID, err)
	}
	if _, err := t.bcast.Broadcast(ctx, ChannelPresence, model.EventStatusChanged, model.StatusChange{
		UserID:   userID,
		IsOnline: false,
		LastSeen: &now,
	}); err != nil {
		log.Printf("broadcast offline for %s: %v", userID, err)
	}
}

// State reports the user's presence as the tracker sees it.
func (t *Tracker) State(userID string) PresenceState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.timers[userID]; ok {
		return StatePendingOffline
	}
	if t.online[userID] {
		return StateOnline
	}
	return StateOffline
}

// Stop cancels every outstanding timer. Pending offline transitions are
// abandoned, not committed.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for userID, timer := range t.timers {
		timer.Stop()
		delete(t.timers, userID)
	}
}
