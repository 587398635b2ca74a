// Package epochreader defines the cluster epoch reader the 2PC driver
// consults once per commit attempt (spec.md §4.5.3 step 3). It is an
// external collaborator per spec.md §1.
package epochreader

import (
	"context"
	"sync/atomic"

	"github.com/atomixdata/atomix/pkg/atomixtypes"
)

// EpochReader returns the current cluster epoch. Epoch must be
// monotonically non-decreasing across the whole cluster (spec.md §6).
type EpochReader interface {
	ReadEpoch(ctx context.Context) (atomixtypes.Epoch, error)
}

// Atomic is an in-memory EpochReader backed by an atomic counter, safe
// for concurrent use across transactions.
type Atomic struct {
	epoch atomic.Uint64
}

// NewAtomic returns an EpochReader starting at the given epoch.
func NewAtomic(start atomixtypes.Epoch) *Atomic {
	a := &Atomic{}
	a.epoch.Store(uint64(start))
	return a
}

// Advance bumps the epoch to at least next, simulating the cluster-wide
// epoch service ticking forward.
func (a *Atomic) Advance(next atomixtypes.Epoch) {
	for {
		cur := a.epoch.Load()
		if uint64(next) <= cur {
			return
		}
		if a.epoch.CompareAndSwap(cur, uint64(next)) {
			return
		}
	}
}

func (a *Atomic) ReadEpoch(_ context.Context) (atomixtypes.Epoch, error) {
	return atomixtypes.Epoch(a.epoch.Load()), nil
}
