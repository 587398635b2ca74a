package coordinator

import (
	"bytes"
	"encoding/binary"

	"github.com/atomixdata/atomix/internal/codec"
	"github.com/atomixdata/atomix/pkg/atomixtypes"
)

// marshalBatch serializes a participant's write batch into the flat,
// length-prefixed wire form a real prepare RPC would send: count, then
// each (key, val) pair, then the delete count and each delete key.
func marshalBatch(writes []atomixtypes.Record, deletes [][]byte) []byte {
	var buf bytes.Buffer
	var n [8]byte

	binary.BigEndian.PutUint64(n[:], uint64(len(writes)))
	buf.Write(n[:])
	for _, w := range writes {
		binary.BigEndian.PutUint64(n[:], uint64(len(w.Key)))
		buf.Write(n[:])
		buf.Write(w.Key)
		binary.BigEndian.PutUint64(n[:], uint64(len(w.Val)))
		buf.Write(n[:])
		buf.Write(w.Val)
	}

	binary.BigEndian.PutUint64(n[:], uint64(len(deletes)))
	buf.Write(n[:])
	for _, d := range deletes {
		binary.BigEndian.PutUint64(n[:], uint64(len(d)))
		buf.Write(n[:])
		buf.Write(d)
	}
	return buf.Bytes()
}

// compressBatch encodes a marshaled batch with the transaction's
// configured codec (SPEC_FULL.md's pluggable compression over a
// participant's buffered write batch before handoff to the prepare RPC).
// The RangeClient interface still carries the batch as structured
// Records/deletes, so the compressed form here is only encoded, and Commit
// uses it purely to log its size before the structured call goes out; it
// is never decoded or sent. A transport that serializes to bytes on the
// wire would send compressed directly and decode on the other end.
func compressBatch(c codec.Codec, writes []atomixtypes.Record, deletes [][]byte) (raw, compressed []byte, err error) {
	raw = marshalBatch(writes, deletes)
	compressed, err = c.Encode(nil, raw)
	if err != nil {
		return raw, nil, err
	}
	return raw, compressed, nil
}
