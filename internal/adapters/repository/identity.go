package repository

import (
	"context"
	"sync"

	"github.com/okian/profrate/pkg/metrics"
)

// IdentityIndex is the in-memory Index. Entries are written once and never
// updated.
type IdentityIndex struct {
	mu     sync.RWMutex
	byName map[string][]uint32
}

// NewIdentityIndex returns an empty index.
func NewIdentityIndex() *IdentityIndex {
	return &IdentityIndex{byName: make(map[string][]uint32)}
}

// Lookup implements Index.Lookup.
func (x *IdentityIndex) Lookup(_ context.Context, name string) ([]uint32, bool) {
	x.mu.RLock()
	ids, ok := x.byName[name]
	x.mu.RUnlock()
	return ids, ok
}

// Put implements Index.Put.
func (x *IdentityIndex) Put(_ context.Context, name string, ids []uint32) []uint32 {
	x.mu.Lock()
	if existing, ok := x.byName[name]; ok {
		x.mu.Unlock()
		return existing
	}
	stored := append([]uint32(nil), ids...)
	x.byName[name] = stored
	n := len(x.byName)
	x.mu.Unlock()

	metrics.UpdateIdentityCount(n)
	return stored
}

// Len implements Index.Len.
func (x *IdentityIndex) Len(_ context.Context) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byName)
}
