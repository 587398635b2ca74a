// Package universe defines the directory service the coordinator consults
// to resolve a (namespace, name) keyspace to its stable id. It is an
// external collaborator per spec.md §1; this package only carries the
// interface the core consumes and an in-memory fake for tests.
package universe

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atomixdata/atomix/pkg/atomixtypes"
)

// ErrNotFound is returned when the requested keyspace has no entry in the
// directory.
var ErrNotFound = errors.New("universe: keyspace not found")

// Directory resolves keyspace names to ids.
type Directory interface {
	// GetKeyspaceInfo returns the KeyspaceID of the named keyspace, or
	// ErrNotFound if it does not exist. Any other returned error is a
	// transport/internal failure.
	GetKeyspaceInfo(ctx context.Context, ks atomixtypes.Keyspace) (atomixtypes.KeyspaceID, error)
}

// InMemory is a Directory backed by a plain map, safe for concurrent use
// by multiple transactions, the way a real directory client must be
// (spec.md §5: "shared across transactions; they MUST be safe for
// concurrent calls").
type InMemory struct {
	mu    sync.RWMutex
	known map[atomixtypes.Keyspace]atomixtypes.KeyspaceID
}

// NewInMemory returns an empty in-memory directory.
func NewInMemory() *InMemory {
	return &InMemory{
		known: make(map[atomixtypes.Keyspace]atomixtypes.KeyspaceID),
	}
}

// Register creates or replaces the id for a keyspace, simulating a
// drop+recreate the coordinator may observe across transactions (but
// never within one — see spec.md §3's Keyspace invariant).
func (d *InMemory) Register(ks atomixtypes.Keyspace, id atomixtypes.KeyspaceID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.known[ks] = id
}

// Unregister removes a keyspace, simulating a drop.
func (d *InMemory) Unregister(ks atomixtypes.Keyspace) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.known, ks)
}

func (d *InMemory) GetKeyspaceInfo(_ context.Context, ks atomixtypes.Keyspace) (atomixtypes.KeyspaceID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.known[ks]
	if !ok {
		return atomixtypes.KeyspaceID{}, fmt.Errorf("%w: %s", ErrNotFound, ks)
	}
	return id, nil
}
