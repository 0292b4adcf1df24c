package realtime

import "sync"

// MemoryRegistry tracks the set of active connections per user. A user may
// hold many simultaneous connections (multi-tab, multi-device).
type MemoryRegistry struct {
	mu    sync.RWMutex
	conns map[string]map[string]bool // user_id -> conn_id set
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{conns: make(map[string]map[string]bool)}
}

// Register adds a connection to the user's set. Registering the same pair
// twice is a no-op.
func (r *MemoryRegistry) Register(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[userID] == nil {
		r.conns[userID] = make(map[string]bool)
	}
	r.conns[userID][connID] = true
}

// Remove drops a connection and reports whether the user's set became empty.
// Removing an unknown pair reports false.
func (r *MemoryRegistry) Remove(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns, ok := r.conns[userID]
	if !ok || !conns[connID] {
		return false
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.conns, userID)
		return true
	}
	return false
}

func (r *MemoryRegistry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID]) > 0
}

// ListOnline returns a snapshot of all users with at least one connection.
func (r *MemoryRegistry) ListOnline() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.conns))
	for userID := range r.conns {
		users = append(users, userID)
	}
	return users
}
