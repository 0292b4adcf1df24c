package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/crewdesk/realtime/pkg/model"
)

// ErrRouterClosed is returned by router operations after Close.
var ErrRouterClosed = errors.New("realtime: router is closed")

// Router is the pub/sub fabric. Channel membership is additive: a connection
// belongs to its private channel, the presence channel, and zero or more
// conversation channels while actively viewing a chat.
type Router struct {
	mu       sync.RWMutex
	channels map[string]map[string]Conn // channel -> conn_id -> conn
	joined   map[string]map[string]bool // conn_id -> channel set (reverse index)
	closed   bool
}

func NewRouter() *Router {
	return &Router{
		channels: make(map[string]map[string]Conn),
		joined:   make(map[string]map[string]bool),
	}
}

func (r *Router) Join(conn Conn, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRouterClosed
	}
	if r.channels[channel] == nil {
		r.channels[channel] = make(map[string]Conn)
	}
	r.channels[channel][conn.ID()] = conn
	if r.joined[conn.ID()] == nil {
		r.joined[conn.ID()] = make(map[string]bool)
	}
	r.joined[conn.ID()][channel] = true
	return nil
}

func (r *Router) Leave(connID, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRouterClosed
	}
	r.leaveLocked(connID, channel)
	return nil
}

func (r *Router) leaveLocked(connID, channel string) {
	if members, ok := r.channels[channel]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.channels, channel)
		}
	}
	if channels, ok := r.joined[connID]; ok {
		delete(channels, channel)
		if len(channels) == 0 {
			delete(r.joined, connID)
		}
	}
}

// RemoveConn takes a destroyed connection out of every channel it joined,
// the private channel included. Unknown connections are a no-op.
func (r *Router) RemoveConn(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for channel := range r.joined[connID] {
		r.leaveLocked(connID, channel)
	}
}

// Broadcast delivers an event to every connection currently joined to the
// channel and returns how many accepted the frame. A channel with no members
// delivers to nobody and returns 0 with no error.
func (r *Router) Broadcast(ctx context.Context, channel, event string, payload any) (int, error) {
	frame, err := model.EncodeEvent(event, payload)
	if err != nil {
		return 0, err
	}

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return 0, ErrRouterClosed
	}
	members := make([]Conn, 0, len(r.channels[channel]))
	for _, conn := range r.channels[channel] {
		members = append(members, conn)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, conn := range members {
		if conn.Send(frame) {
			delivered++
		}
	}
	return delivered, nil
}

// Close fails all subsequent operations fast. Used on shutdown so late calls
// surface an error instead of silently dropping events.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.channels = make(map[string]map[string]Conn)
	r.joined = make(map[string]map[string]bool)
}
