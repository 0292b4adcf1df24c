// Package snowflake generates time-sortable int64 identifiers so notification
// rows cluster in creation order without a coordination round-trip.
package snowflake

import (
	"errors"
	"sync"
	"time"
)

const (
	nodeBits     = 10
	sequenceBits = 12

	maxNode     = -1 ^ (-1 << nodeBits)
	sequenceCap = -1 ^ (-1 << sequenceBits)

	timestampShift = nodeBits + sequenceBits
	nodeShift      = sequenceBits

	// Custom epoch: 2025-01-01 00:00:00 UTC.
	epochMillis int64 = 1735689600000
)

// Node mints IDs for one process instance. Node numbers must be unique across
// instances that share an ID space.
type Node struct {
	mu       sync.Mutex
	lastTime int64
	node     int64
	sequence int64
}

func NewNode(node int64) (*Node, error) {
	if node < 0 || node > maxNode {
		return nil, errors.New("snowflake: node number out of range [0,1023]")
	}
	return &Node{node: node}, nil
}

// Generate returns the next ID. IDs from one node are strictly increasing.
func (n *Node) Generate() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Now().UnixMilli()
	if now < n.lastTime {
		// Clock went backwards; hold the line at the last seen time.
		now = n.lastTime
	}

	if now == n.lastTime {
		n.sequence = (n.sequence + 1) & sequenceCap
		if n.sequence == 0 {
			// Sequence exhausted within this millisecond, spin to the next.
			for now <= n.lastTime {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		n.sequence = 0
	}
	n.lastTime = now

	return ((now - epochMillis) << timestampShift) | (n.node << nodeShift) | n.sequence
}
