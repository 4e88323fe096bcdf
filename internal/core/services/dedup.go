package services

import (
	"context"
	"sync"

	"github.com/manthysbr/openclaw/internal/core/ports"
)

// MemoryDeduplicator is a process-lifetime set of seen post ids. It only grows.
type MemoryDeduplicator struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

var _ ports.CastDeduplicator = (*MemoryDeduplicator)(nil)

func NewMemoryDeduplicator() *MemoryDeduplicator {
	return &MemoryDeduplicator{seen: make(map[string]struct{})}
}

func (d *MemoryDeduplicator) MarkSeen(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return false, nil
	}
	d.seen[id] = struct{}{}
	return true, nil
}

// Len is the number of ids seen so far.
func (d *MemoryDeduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
