package realtime

import (
	"context"
	"sync"
	"time"
)

// fakeConn is a router member that records delivered frames.
type fakeConn struct {
	id     string
	userID string
	reject bool

	mu     sync.Mutex
	frames [][]byte
}

func (c *fakeConn) ID() string     { return c.id }
func (c *fakeConn) UserID() string { return c.userID }

func (c *fakeConn) Send(frame []byte) bool {
	if c.reject {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame)
	return true
}

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

// cast records one Broadcast call.
type cast struct {
	channel string
	event   string
	payload any
}

// recordingBroadcaster stands in for the router or the Kafka producer.
type recordingBroadcaster struct {
	mu        sync.Mutex
	casts     []cast
	receivers int
	err       error
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, channel, event string, payload any) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return 0, b.err
	}
	b.casts = append(b.casts, cast{channel: channel, event: event, payload: payload})
	return b.receivers, nil
}

func (b *recordingBroadcaster) all() []cast {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]cast, len(b.casts))
	copy(out, b.casts)
	return out
}

// presenceWrite records one SetOnline/SetOffline call.
type presenceWrite struct {
	userID string
	online bool
	at     time.Time
}

type recordingPresenceStore struct {
	mu      sync.Mutex
	writes  []presenceWrite
	failSet error
}

func (s *recordingPresenceStore) SetOnline(_ context.Context, userID string, at time.Time) error {
	if s.failSet != nil {
		return s.failSet
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, presenceWrite{userID: userID, online: true, at: at})
	return nil
}

func (s *recordingPresenceStore) SetOffline(_ context.Context, userID string, at time.Time) error {
	if s.failSet != nil {
		return s.failSet
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, presenceWrite{userID: userID, online: false, at: at})
	return nil
}

func (s *recordingPresenceStore) all() []presenceWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]presenceWrite, len(s.writes))
	copy(out, s.writes)
	return out
}
