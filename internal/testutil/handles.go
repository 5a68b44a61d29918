package testutil

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"

	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
)

// SequentialHandles hands out observer handles 00000000-...-000000000001,
// ...-000000000002 and so on, so propagation edges and traces are
// reproducible across runs.
//
// Safe for concurrent use.
type SequentialHandles struct {
	mu   sync.Mutex
	next uint64
}

// NewSequentialHandles returns a generator whose first handle ends in 1.
func NewSequentialHandles() *SequentialHandles {
	return &SequentialHandles{}
}

// Next implements reactive.HandleGenerator.
func (g *SequentialHandles) Next() reactive.ObserverHandle {
	g.mu.Lock()
	g.next++
	n := g.next
	g.mu.Unlock()
	return reactive.ObserverHandle(SequentialUUID(n))
}

// Reset restarts the sequence at 1.
func (g *SequentialHandles) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next = 0
}

// SequentialUUID returns the UUID whose low 64 bits are n.
func SequentialUUID(n uint64) uuid.UUID {
	var id uuid.UUID
	binary.BigEndian.PutUint64(id[8:], n)
	return id
}

var _ reactive.HandleGenerator = (*SequentialHandles)(nil)
