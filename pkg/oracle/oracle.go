// Package oracle defines the range-assignment oracle the coordinator
// consults to resolve (keyspace, key) to the range currently owning it.
// It is an external collaborator per spec.md §1.
package oracle

import (
	"context"
	"sort"
	"sync"

	"github.com/atomixdata/atomix/pkg/atomixtypes"
)

// AssignmentOracle maps a key to the range that owns it at the moment of
// the call. Implementations must be snapshot-consistent within a single
// call and safe for concurrent use across transactions (spec.md §5, §6).
type AssignmentOracle interface {
	// RangeOfKey returns the FullRangeId owning key in keyspaceID, or
	// (zero, false) if no range owns it (conflates "unknown keyspace" and
	// "unrouted key" per spec.md §4.2; callers map that to
	// KeyspaceDoesNotExist).
	RangeOfKey(ctx context.Context, keyspaceID atomixtypes.KeyspaceID, key []byte) (atomixtypes.FullRangeId, bool)
}

// boundary is one end of a range's key span: keys >= start belong to this
// range's id, up to the next boundary's start (exclusive).
type boundary struct {
	start []byte
	id    atomixtypes.FullRangeId
}

// InMemory is a simple ordered-boundary oracle: each keyspace owns a
// sorted list of range start-keys, and a key routes to the last boundary
// whose start is <= key, mirroring how a real range-assignment table is
// keyed in cockroach-style systems (see
// _examples/mxlmeng-cockroach/pkg/kv/txn_coord_sender.go's roachpb.Span
// notion of key ranges, adapted to a minimal in-memory test double).
type InMemory struct {
	mu     sync.RWMutex
	ranges map[atomixtypes.KeyspaceID][]boundary
}

// NewInMemory returns an oracle with no assignments.
func NewInMemory() *InMemory {
	return &InMemory{ranges: make(map[atomixtypes.KeyspaceID][]boundary)}
}

// Assign registers that all keys >= startKey (up to the next registered
// boundary in the same keyspace) belong to rangeID.
func (o *InMemory) Assign(keyspaceID atomixtypes.KeyspaceID, startKey []byte, rangeID atomixtypes.FullRangeId) {
	o.mu.Lock()
	defer o.mu.Unlock()
	bs := o.ranges[keyspaceID]
	bs = append(bs, boundary{start: startKey, id: rangeID})
	sort.Slice(bs, func(i, j int) bool {
		return string(bs[i].start) < string(bs[j].start)
	})
	o.ranges[keyspaceID] = bs
}

func (o *InMemory) RangeOfKey(_ context.Context, keyspaceID atomixtypes.KeyspaceID, key []byte) (atomixtypes.FullRangeId, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	bs := o.ranges[keyspaceID]
	if len(bs) == 0 {
		return atomixtypes.FullRangeId{}, false
	}
	// Find the last boundary whose start <= key.
	idx := sort.Search(len(bs), func(i int) bool {
		return string(bs[i].start) > string(key)
	}) - 1
	if idx < 0 {
		return atomixtypes.FullRangeId{}, false
	}
	return bs[idx].id, true
}
