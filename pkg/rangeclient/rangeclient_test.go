package rangeclient

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/atomixdata/atomix/internal/idkey"
	"github.com/atomixdata/atomix/pkg/atomixtypes"
)

func testRangeID() atomixtypes.FullRangeId {
	return atomixtypes.FullRangeId{KeyspaceID: uuid.New(), RangeID: uuid.New()}
}

func TestPrepareRetransmitAnswersFromCache(t *testing.T) {
	f := NewFake()
	id := testRangeID()
	f.LoadRange(id, atomixtypes.LeaderSeqValue(1), 0, 100)

	txID := uuid.New()
	writes := []atomixtypes.Record{{Key: []byte("k"), Val: []byte("v1")}}
	key := idkey.Prepare(txID, id, writes, nil)
	info := &atomixtypes.TransactionInfo{ID: txID}

	first, err := f.Prepare(context.Background(), info, id, key, false, writes, nil)
	if err != nil {
		t.Fatalf("first Prepare: %v", err)
	}

	// Retransmit with a different logical batch under the same idempotency
	// key must answer from the cached record, not reapply.
	second, err := f.Prepare(context.Background(), info, id, key, false, []atomixtypes.Record{{Key: []byte("k"), Val: []byte("v2")}}, nil)
	if err != nil {
		t.Fatalf("second Prepare: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("retransmitted prepare returned a different response (-first +second):\n%s", diff)
	}

	got, err := f.Get(context.Background(), info, id, []byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Val) != "v1" {
		t.Fatalf("stored value = %q, want v1 (retransmit must not reapply)", got.Val)
	}
}

func TestRejectPrepareTransport(t *testing.T) {
	f := NewFake()
	id := testRangeID()
	f.LoadRange(id, atomixtypes.LeaderSeqValue(1), 0, 100)
	f.RejectPrepare(id, errors.New("boom"), true)

	info := &atomixtypes.TransactionInfo{ID: uuid.New()}
	_, err := f.Prepare(context.Background(), info, id, idkey.Prepare(info.ID, id, nil, nil), false, nil, nil)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
}

func TestUnknownRange(t *testing.T) {
	f := NewFake()
	_, err := f.Get(context.Background(), nil, testRangeID(), []byte("k"))
	if !errors.Is(err, ErrUnknownRange) {
		t.Fatalf("err = %v, want ErrUnknownRange", err)
	}
}

func TestBumpLeaderChangesObservedSequence(t *testing.T) {
	f := NewFake()
	id := testRangeID()
	f.LoadRange(id, atomixtypes.LeaderSeqValue(1), 0, 100)

	resp, err := f.Get(context.Background(), nil, id, []byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v, _ := resp.LeaderSequenceNum.Value(); v != 1 {
		t.Fatalf("leader seq = %d, want 1", v)
	}

	f.BumpLeader(id, 2)
	resp, err = f.Get(context.Background(), nil, id, []byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v, _ := resp.LeaderSequenceNum.Value(); v != 2 {
		t.Fatalf("leader seq = %d, want 2 after BumpLeader", v)
	}
}
