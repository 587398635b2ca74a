package coordinator

import (
	"context"

	"github.com/atomixdata/atomix/pkg/atomixtypes"
	"github.com/atomixdata/atomix/pkg/oracle"
)

// keyRouter resolves (keyspaceID, key) to the range currently owning it
// (spec.md §4.2). It does not cache beyond what the oracle itself caches;
// the oracle conflating "unknown keyspace" with "unrouted key" is
// reflected here as KeyspaceDoesNotExist, same as the resolver's own
// not-found case.
type keyRouter struct {
	oracle oracle.AssignmentOracle
}

func newKeyRouter(o oracle.AssignmentOracle) *keyRouter {
	return &keyRouter{oracle: o}
}

func (r *keyRouter) route(ctx context.Context, keyspaceID atomixtypes.KeyspaceID, key []byte) (atomixtypes.FullRangeId, error) {
	id, ok := r.oracle.RangeOfKey(ctx, keyspaceID, key)
	if !ok {
		return atomixtypes.FullRangeId{}, ErrKeyspaceDoesNotExist()
	}
	return id, nil
}
