// Package rangeclient defines the per-range RPC client the coordinator
// uses to talk to range servers: single-key reads, prepare, commit, and
// abort. It is an external collaborator per spec.md §1; range-server
// internals (storage, lock table, WAL) are explicitly out of scope
// (spec.md §1 Non-goals). This package only carries the interface the
// core consumes plus an in-memory fake used by coordinator tests,
// grounded in original_source/rangeserver/src/range_manager.rs's
// RangeManager trait.
package rangeclient

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/atomixdata/atomix/internal/idkey"
	"github.com/atomixdata/atomix/pkg/atomixtypes"
)

// ErrUnknownRange is returned when the client has no loaded range manager
// for the requested FullRangeId — a routing bug, not a commit-time abort
// (spec.md §4.6).
var ErrUnknownRange = errors.New("rangeclient: unknown range")

// TransportError wraps a failure that occurred getting the RPC to or from
// the range server at all (as opposed to the range server answering with
// an application-level rejection).
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string { return fmt.Sprintf("rangeclient: transport error: %v", e.Cause) }
func (e *TransportError) Unwrap() error { return e.Cause }

// ConflictError is returned when a range server rejects a prepare because
// of a conflicting concurrent transaction.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return "rangeclient: conflict: " + e.Msg }

// GetResponse is the result of a single-key read RPC. Found distinguishes
// an absent key from a key present with an empty value.
type GetResponse struct {
	Val               []byte
	Found             bool
	LeaderSequenceNum atomixtypes.LeaderSeq
}

// PrepareResponse is the result of a successful prepare RPC.
type PrepareResponse struct {
	HighestKnownEpoch atomixtypes.Epoch
	EpochLease        atomixtypes.EpochLease
}

// RangeClient is the per-range RPC surface the 2PC driver uses. idemKey
// (internal/idkey) lets a range server recognize a retransmit of the exact
// same logical request and answer from its own record instead of
// reapplying it; prepare must be idempotent under retransmit, and commit
// and abort must be idempotent under any number of retries (spec.md §6).
type RangeClient interface {
	Get(ctx context.Context, tx *atomixtypes.TransactionInfo, rangeID atomixtypes.FullRangeId, key []byte) (GetResponse, error)
	Prepare(ctx context.Context, tx *atomixtypes.TransactionInfo, rangeID atomixtypes.FullRangeId, idemKey idkey.Key, hasReads bool, writes []atomixtypes.Record, deletes [][]byte) (PrepareResponse, error)
	Commit(ctx context.Context, tx *atomixtypes.TransactionInfo, rangeID atomixtypes.FullRangeId, idemKey idkey.Key, epoch atomixtypes.Epoch) error
	Abort(ctx context.Context, tx *atomixtypes.TransactionInfo, rangeID atomixtypes.FullRangeId, idemKey idkey.Key) error
	// Prefetch is a best-effort cache warm-up hint; failures are not
	// reported as errors to the transaction (see SPEC_FULL.md's
	// supplemented Prefetch feature).
	Prefetch(ctx context.Context, tx *atomixtypes.TransactionInfo, rangeID atomixtypes.FullRangeId, keys [][]byte) error
}

type storedValue struct {
	val     []byte
	present bool
}

type fakeRange struct {
	mu                sync.Mutex
	store             map[string]storedValue
	leaderSeq         atomixtypes.LeaderSeq
	highestKnownEpoch atomixtypes.Epoch
	leaseLower        atomixtypes.Epoch
	leaseUpper        atomixtypes.Epoch
	rejectPrepare     error // non-nil: every Prepare call to this range not answered from preparedBatches fails with this error
	rejectTransport   bool  // simulate a transport-level failure instead of an application error
	preparedBatches   map[idkey.Key]PrepareResponse
}

// Fake is an in-memory RangeClient test double: one fakeRange per
// FullRangeId, each with its own tiny key/value store and leader sequence
// number. It exists only to exercise the coordinator's 2PC driver in
// tests; it is not a range-server implementation (spec.md §1 Non-goals).
type Fake struct {
	mu     sync.Mutex
	ranges map[atomixtypes.FullRangeId]*fakeRange
}

// NewFake returns an empty Fake range client.
func NewFake() *Fake {
	return &Fake{ranges: make(map[atomixtypes.FullRangeId]*fakeRange)}
}

// LoadRange registers a range with the given initial leader sequence
// number (use atomixtypes.LeaderSeqValue(n), or InvalidLeaderSeq to
// simulate a range reporting no leader) and initial epoch lease.
func (f *Fake) LoadRange(id atomixtypes.FullRangeId, leaderSeq atomixtypes.LeaderSeq, leaseLower, leaseUpper atomixtypes.Epoch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ranges[id] = &fakeRange{
		store:           make(map[string]storedValue),
		leaderSeq:       leaderSeq,
		leaseLower:      leaseLower,
		leaseUpper:      leaseUpper,
		preparedBatches: make(map[idkey.Key]PrepareResponse),
	}
}

// BumpLeader simulates a leadership change on an already-loaded range:
// subsequent reads observe a new, different leader sequence number
// (prepare responses carry none).
func (f *Fake) BumpLeader(id atomixtypes.FullRangeId, newSeq uint64) {
	f.mu.Lock()
	r := f.ranges[id]
	f.mu.Unlock()
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaderSeq = atomixtypes.LeaderSeqValue(newSeq)
}

// RejectPrepare makes every subsequent Prepare call against id fail,
// except a retransmit whose idempotency key this range has already
// answered, which is still served from its cache. If
// transport is true, it simulates a transport-level failure (the caller
// should treat it as PrepareFailed); otherwise it returns err as an
// application-level rejection (e.g. a ConflictError).
func (f *Fake) RejectPrepare(id atomixtypes.FullRangeId, err error, transport bool) {
	f.mu.Lock()
	r := f.ranges[id]
	f.mu.Unlock()
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejectPrepare = err
	r.rejectTransport = transport
}

// SetLease narrows the epoch lease a subsequent Prepare call will report,
// to exercise the RangeLeaseExpired path.
func (f *Fake) SetLease(id atomixtypes.FullRangeId, lower, upper atomixtypes.Epoch) {
	f.mu.Lock()
	r := f.ranges[id]
	f.mu.Unlock()
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaseLower, r.leaseUpper = lower, upper
}

func (f *Fake) get(id atomixtypes.FullRangeId) (*fakeRange, error) {
	f.mu.Lock()
	r := f.ranges[id]
	f.mu.Unlock()
	if r == nil {
		return nil, ErrUnknownRange
	}
	return r, nil
}

func (f *Fake) Get(_ context.Context, _ *atomixtypes.TransactionInfo, rangeID atomixtypes.FullRangeId, key []byte) (GetResponse, error) {
	r, err := f.get(rangeID)
	if err != nil {
		return GetResponse{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.store[string(key)]
	var val []byte
	if v.present {
		val = v.val
	}
	return GetResponse{Val: val, Found: v.present, LeaderSequenceNum: r.leaderSeq}, nil
}

func (f *Fake) Prepare(_ context.Context, _ *atomixtypes.TransactionInfo, rangeID atomixtypes.FullRangeId, idemKey idkey.Key, _ bool, writes []atomixtypes.Record, deletes [][]byte) (PrepareResponse, error) {
	r, err := f.get(rangeID)
	if err != nil {
		return PrepareResponse{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if resp, ok := r.preparedBatches[idemKey]; ok {
		// Retransmit of a batch already applied: answer from the record
		// instead of reapplying it (spec.md §6).
		return resp, nil
	}
	if r.rejectPrepare != nil {
		if r.rejectTransport {
			return PrepareResponse{}, &TransportError{Cause: r.rejectPrepare}
		}
		return PrepareResponse{}, r.rejectPrepare
	}
	// Stage the batch; a real range server would only make it visible
	// after commit, but the fake applies eagerly since it has no WAL and
	// exists only to drive the coordinator's fan-out logic.
	sorted := make([]atomixtypes.Record, len(writes))
	copy(sorted, writes)
	sort.Slice(sorted, func(i, j int) bool { return string(sorted[i].Key) < string(sorted[j].Key) })
	for _, w := range sorted {
		r.store[string(w.Key)] = storedValue{val: w.Val, present: true}
	}
	for _, d := range deletes {
		r.store[string(d)] = storedValue{present: false}
	}
	resp := PrepareResponse{
		HighestKnownEpoch: r.highestKnownEpoch,
		EpochLease:        atomixtypes.EpochLease{LowerBoundInclusive: r.leaseLower, UpperBoundInclusive: r.leaseUpper},
	}
	r.preparedBatches[idemKey] = resp
	return resp, nil
}

func (f *Fake) Commit(_ context.Context, _ *atomixtypes.TransactionInfo, rangeID atomixtypes.FullRangeId, _ idkey.Key, epoch atomixtypes.Epoch) error {
	r, err := f.get(rangeID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if epoch > r.highestKnownEpoch {
		r.highestKnownEpoch = epoch
	}
	return nil
}

func (f *Fake) Abort(_ context.Context, _ *atomixtypes.TransactionInfo, rangeID atomixtypes.FullRangeId, _ idkey.Key) error {
	_, err := f.get(rangeID)
	return err
}

func (f *Fake) Prefetch(_ context.Context, _ *atomixtypes.TransactionInfo, rangeID atomixtypes.FullRangeId, _ [][]byte) error {
	_, err := f.get(rangeID)
	return err
}
