// Package idkey derives a stable idempotency digest for a range RPC so a
// range server can recognize a retransmit of the same logical request.
// The coordinator never inspects the digest itself; it is carried
// opaquely on the wire alongside the request.
package idkey

import (
	"encoding/binary"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/atomixdata/atomix/pkg/atomixtypes"
)

// Key is a 256-bit idempotency digest.
type Key [blake2b.Size256]byte

// Prepare derives the idempotency key for a prepare RPC from the
// transaction id, the target range, and the exact batch of writes and
// deletes being proposed. Identical retransmits (same tx, same range,
// same batch) always produce the same Key; a coordinator-side retry that
// changed the batch (which should never happen mid-prepare) would not be
// recognized as the same request, which is the conservative behavior we
// want.
func Prepare(txID atomixtypes.TransactionID, rangeID atomixtypes.FullRangeId, writes []atomixtypes.Record, deletes [][]byte) Key {
	h, _ := blake2b.New256(nil)
	h.Write(txID[:])
	writeRangeID(h, rangeID)
	h.Write([]byte{'P'})

	sorted := make([]atomixtypes.Record, len(writes))
	copy(sorted, writes)
	sort.Slice(sorted, func(i, j int) bool {
		return string(sorted[i].Key) < string(sorted[j].Key)
	})
	for _, r := range sorted {
		writeLenPrefixed(h, r.Key)
		writeLenPrefixed(h, r.Val)
	}

	sortedDeletes := make([][]byte, len(deletes))
	copy(sortedDeletes, deletes)
	sort.Slice(sortedDeletes, func(i, j int) bool {
		return string(sortedDeletes[i]) < string(sortedDeletes[j])
	})
	for _, d := range sortedDeletes {
		writeLenPrefixed(h, d)
	}

	var out Key
	copy(out[:], h.Sum(nil))
	return out
}

// CommitOrAbort derives the idempotency key for a commit/abort RPC, which
// carries no batch — only the transaction, the range, the decided epoch,
// and which of the two operations it is.
func CommitOrAbort(txID atomixtypes.TransactionID, rangeID atomixtypes.FullRangeId, epoch atomixtypes.Epoch, commit bool) Key {
	h, _ := blake2b.New256(nil)
	h.Write(txID[:])
	writeRangeID(h, rangeID)
	if commit {
		h.Write([]byte{'C'})
	} else {
		h.Write([]byte{'A'})
	}
	var epochBuf [8]byte
	binary.BigEndian.PutUint64(epochBuf[:], uint64(epoch))
	h.Write(epochBuf[:])

	var out Key
	copy(out[:], h.Sum(nil))
	return out
}

func writeRangeID(h interface{ Write([]byte) (int, error) }, rangeID atomixtypes.FullRangeId) {
	h.Write(rangeID.KeyspaceID[:])
	h.Write(rangeID.RangeID[:])
}

func writeLenPrefixed(h interface{ Write([]byte) (int, error) }, b []byte) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(b)))
	h.Write(lenBuf[:])
	h.Write(b)
}
