// Package atomixtypes holds the data types shared by the coordinator and
// its external collaborators: keyspace and range identity, the leader
// fencing token, and the small value types that cross the RPC boundary.
package atomixtypes

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransactionID is the opaque 128-bit transaction identity handed to every
// collaborator (range servers, the state store) on every RPC.
type TransactionID = uuid.UUID

// NewTransactionID generates a fresh random transaction identity.
func NewTransactionID() TransactionID {
	return uuid.New()
}

// KeyspaceID is the stable 128-bit id a keyspace name resolves to. The
// name-to-id mapping may change across transactions but is pinned for the
// lifetime of any one transaction (see pkg/coordinator's resolver).
type KeyspaceID = uuid.UUID

// Keyspace is a (namespace, name) pair, globally unique per pair.
type Keyspace struct {
	Namespace string
	Name      string
}

func (k Keyspace) String() string {
	return fmt.Sprintf("%s/%s", k.Namespace, k.Name)
}

// FullRangeId uniquely identifies a shard: the keyspace it belongs to plus
// a range id scoped to that keyspace.
type FullRangeId struct {
	KeyspaceID KeyspaceID
	RangeID    uuid.UUID
}

func (f FullRangeId) String() string {
	return fmt.Sprintf("%s/%s", f.KeyspaceID, f.RangeID)
}

// FullRecordKey is a derived (never stored) identity of a key within a
// range, used only for routing and logging.
type FullRecordKey struct {
	RangeID FullRangeId
	Key     []byte
}

// Record is a single key/value pair staged for a range's write batch.
type Record struct {
	Key []byte
	Val []byte
}

// Epoch is the cluster-wide monotonic counter handed to the state store as
// the commit timestamp / fencing token.
type Epoch uint64

// EpochLease is the (lower, upper) interval during which a range server
// attests it holds leadership, returned from a prepare RPC.
type EpochLease struct {
	LowerBoundInclusive Epoch
	UpperBoundInclusive Epoch
}

// Covers reports whether epoch e falls within the lease's bounds.
func (l EpochLease) Covers(e Epoch) bool {
	return l.LowerBoundInclusive <= e && e <= l.UpperBoundInclusive
}

// leaderSeqKind tags which variant a LeaderSeq value holds.
type leaderSeqKind uint8

const (
	leaderSeqUnset leaderSeqKind = iota
	leaderSeqInvalid
	leaderSeqValue
)

// LeaderSeq is the tagged-variant leader sequence number spec.md §9 calls
// for in place of numeric sentinels: Unset (never observed), Invalid (the
// range server reported none), or a concrete monotonic Value.
type LeaderSeq struct {
	kind leaderSeqKind
	val  uint64
}

// UnsetLeaderSeq is the sentinel for "this participant range has not yet
// observed any leader sequence number."
var UnsetLeaderSeq = LeaderSeq{kind: leaderSeqUnset}

// InvalidLeaderSeq is the sentinel a range server reports when it has none.
var InvalidLeaderSeq = LeaderSeq{kind: leaderSeqInvalid}

// LeaderSeqValue wraps a concrete, observed leader sequence number.
func LeaderSeqValue(v uint64) LeaderSeq {
	return LeaderSeq{kind: leaderSeqValue, val: v}
}

// IsUnset reports whether no leader sequence number has been observed yet.
func (l LeaderSeq) IsUnset() bool { return l.kind == leaderSeqUnset }

// IsInvalid reports whether the range server reported no leader.
func (l LeaderSeq) IsInvalid() bool { return l.kind == leaderSeqInvalid }

// Value returns the concrete sequence number and true, or (0, false) if
// this LeaderSeq is Unset or Invalid.
func (l LeaderSeq) Value() (uint64, bool) {
	if l.kind != leaderSeqValue {
		return 0, false
	}
	return l.val, true
}

// Equal reports whether two LeaderSeq values are the same variant and,
// for concrete values, the same number.
func (l LeaderSeq) Equal(o LeaderSeq) bool {
	return l.kind == o.kind && (l.kind != leaderSeqValue || l.val == o.val)
}

func (l LeaderSeq) String() string {
	switch l.kind {
	case leaderSeqUnset:
		return "unset"
	case leaderSeqInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("%d", l.val)
	}
}

// TransactionInfo is the identity and timing envelope handed to every
// collaborator RPC and returned to the client that opened the transaction.
type TransactionInfo struct {
	ID             TransactionID
	Started        time.Time
	OverallTimeout time.Duration
}

// NewTransactionInfo builds a TransactionInfo starting now with a fresh id.
func NewTransactionInfo(overallTimeout time.Duration) *TransactionInfo {
	return &TransactionInfo{
		ID:             NewTransactionID(),
		Started:        time.Now(),
		OverallTimeout: overallTimeout,
	}
}

// Deadline returns the wall-clock time after which the transaction should
// be considered abandoned by its client.
func (t *TransactionInfo) Deadline() time.Time {
	return t.Started.Add(t.OverallTimeout)
}
