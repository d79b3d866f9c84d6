// Package repository holds the in-memory professor record store and the
// name to candidate identity index.
package repository

import (
	"context"

	"github.com/okian/profrate/internal/domain/model"
)

// Store provides access to cached professor records.
type Store interface {
	// GetOrCreate returns the record for id, inserting one built from hit
	// when absent. An existing record is never overwritten.
	GetOrCreate(ctx context.Context, id uint32, hit model.SearchHit) *Record

	// Get returns the record for id or ErrNotFound.
	Get(ctx context.Context, id uint32) (*Record, error)

	// Count returns the number of cached records.
	Count(ctx context.Context) int
}

// Index maps normalized names to ordered candidate ids.
type Index interface {
	// Lookup returns the candidates stored for name.
	Lookup(ctx context.Context, name string) ([]uint32, bool)

	// Put stores candidates for name unless an entry already exists, and
	// returns the entry that ends up in the index.
	Put(ctx context.Context, name string, ids []uint32) []uint32

	// Len returns the number of indexed names.
	Len(ctx context.Context) int
}
