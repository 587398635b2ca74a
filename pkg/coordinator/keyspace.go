package coordinator

import (
	"context"
	"errors"

	"github.com/atomixdata/atomix/pkg/atomixtypes"
	"github.com/atomixdata/atomix/pkg/universe"
)

// keyspaceResolver caches keyspace name->id resolution for the life of a
// single transaction (spec.md §4.1). No negative caching: a "not found"
// result is never stored, so a keyspace created mid-transaction can still
// resolve on a later call.
type keyspaceResolver struct {
	directory universe.Directory
	resolved  map[atomixtypes.Keyspace]atomixtypes.KeyspaceID
}

func newKeyspaceResolver(directory universe.Directory) *keyspaceResolver {
	return &keyspaceResolver{
		directory: directory,
		resolved:  make(map[atomixtypes.Keyspace]atomixtypes.KeyspaceID),
	}
}

func (r *keyspaceResolver) resolve(ctx context.Context, ks atomixtypes.Keyspace) (atomixtypes.KeyspaceID, error) {
	if id, ok := r.resolved[ks]; ok {
		return id, nil
	}
	id, err := r.directory.GetKeyspaceInfo(ctx, ks)
	if err != nil {
		if errors.Is(err, universe.ErrNotFound) {
			return atomixtypes.KeyspaceID{}, ErrKeyspaceDoesNotExist()
		}
		return atomixtypes.KeyspaceID{}, ErrInternal(err)
	}
	r.resolved[ks] = id
	return id, nil
}
