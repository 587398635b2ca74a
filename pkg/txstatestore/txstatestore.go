// Package txstatestore defines the transaction state store: the external,
// durable, decide-once registry of commit/abort outcomes that is the
// single source of truth per spec.md §1. This package carries only the
// interface the core consumes and an in-memory fake for tests.
package txstatestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/atomixdata/atomix/pkg/atomixtypes"
)

// DecisionInfo is returned alongside a Committed outcome.
type DecisionInfo struct {
	Epoch atomixtypes.Epoch
}

// Outcome is the decided fate of a transaction id. Once a transaction id
// has a decision, the decision never changes (spec.md §6).
type Outcome int

const (
	OutcomeCommitted Outcome = iota
	OutcomeAborted
)

// TxStateStore is the durable decide-once registry the 2PC driver
// consults at the commit point.
type TxStateStore interface {
	// TryCommit asks the store to decide tx as committed at epoch. The
	// store may instead decide Aborted if something else (e.g. a
	// coordinator-timeout daemon) already raced it to a decision.
	TryCommit(ctx context.Context, txID atomixtypes.TransactionID, epoch atomixtypes.Epoch) (Outcome, DecisionInfo, error)
	// TryAbort asks the store to decide tx as aborted. The only legal
	// outcome is Aborted; a Committed outcome here is a protocol
	// violation (spec.md §4.5.4 step 3) and is fatal to the process.
	TryAbort(ctx context.Context, txID atomixtypes.TransactionID) (Outcome, DecisionInfo, error)
}

type decision struct {
	outcome Outcome
	info    DecisionInfo
}

// InMemory is a decide-once TxStateStore: the first of TryCommit/TryAbort
// to run for a given transaction id wins, and every subsequent call for
// that id returns the same decision, regardless of which method is
// called. This matches spec.md §6's "single durable decision per tx_id;
// decision never changes."
type InMemory struct {
	mu        sync.Mutex
	decisions map[atomixtypes.TransactionID]decision

	// forceAbort, if set, makes the *next* TryCommit for a transaction not
	// yet decided resolve as Aborted instead of Committed, simulating a
	// concurrent abort (e.g. a coordinator-timeout daemon) winning the
	// race described in spec.md §5 "Cancellation".
	forceAbort map[atomixtypes.TransactionID]bool
}

// NewInMemory returns an empty decide-once store.
func NewInMemory() *InMemory {
	return &InMemory{
		decisions:  make(map[atomixtypes.TransactionID]decision),
		forceAbort: make(map[atomixtypes.TransactionID]bool),
	}
}

// ForceAbort arranges for the next TryCommit(txID, ...) to lose the race
// and decide Aborted, as if a concurrent timeout daemon had already
// aborted the transaction.
func (s *InMemory) ForceAbort(txID atomixtypes.TransactionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forceAbort[txID] = true
}

func (s *InMemory) TryCommit(_ context.Context, txID atomixtypes.TransactionID, epoch atomixtypes.Epoch) (Outcome, DecisionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.decisions[txID]; ok {
		return d.outcome, d.info, nil
	}
	if s.forceAbort[txID] {
		d := decision{outcome: OutcomeAborted}
		s.decisions[txID] = d
		return d.outcome, d.info, nil
	}
	d := decision{outcome: OutcomeCommitted, info: DecisionInfo{Epoch: epoch}}
	s.decisions[txID] = d
	return d.outcome, d.info, nil
}

func (s *InMemory) TryAbort(_ context.Context, txID atomixtypes.TransactionID) (Outcome, DecisionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.decisions[txID]; ok {
		if d.outcome != OutcomeAborted {
			// A real store would never reach this: spec.md §4.5.4 step 3
			// says a Committed outcome here is a protocol violation. The
			// fake surfaces it as an error rather than panicking so
			// coordinator tests can assert on it without crashing the
			// test binary; pkg/coordinator itself treats this as fatal.
			return d.outcome, d.info, fmt.Errorf("txstatestore: transaction %s already committed at epoch %d, cannot abort", txID, d.info.Epoch)
		}
		return d.outcome, d.info, nil
	}
	d := decision{outcome: OutcomeAborted}
	s.decisions[txID] = d
	return d.outcome, d.info, nil
}
