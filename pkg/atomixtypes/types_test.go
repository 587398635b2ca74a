package atomixtypes

import "testing"

func TestLeaderSeqVariants(t *testing.T) {
	if !UnsetLeaderSeq.IsUnset() {
		t.Fatalf("UnsetLeaderSeq.IsUnset() = false")
	}
	if !InvalidLeaderSeq.IsInvalid() {
		t.Fatalf("InvalidLeaderSeq.IsInvalid() = false")
	}
	v := LeaderSeqValue(7)
	if got, ok := v.Value(); !ok || got != 7 {
		t.Fatalf("Value() = (%d, %v), want (7, true)", got, ok)
	}
	if _, ok := UnsetLeaderSeq.Value(); ok {
		t.Fatalf("UnsetLeaderSeq.Value() reported ok")
	}
}

func TestLeaderSeqEqual(t *testing.T) {
	cases := []struct {
		a, b  LeaderSeq
		equal bool
	}{
		{UnsetLeaderSeq, UnsetLeaderSeq, true},
		{UnsetLeaderSeq, InvalidLeaderSeq, false},
		{LeaderSeqValue(7), LeaderSeqValue(7), true},
		{LeaderSeqValue(7), LeaderSeqValue(9), false},
		{LeaderSeqValue(7), InvalidLeaderSeq, false},
	}
	for _, c := range cases {
		if got := c.a.Equal(c.b); got != c.equal {
			t.Errorf("%v.Equal(%v) = %v, want %v", c.a, c.b, got, c.equal)
		}
	}
}

func TestEpochLeaseCovers(t *testing.T) {
	l := EpochLease{LowerBoundInclusive: 10, UpperBoundInclusive: 20}
	cases := map[Epoch]bool{9: false, 10: true, 15: true, 20: true, 21: false}
	for epoch, want := range cases {
		if got := l.Covers(epoch); got != want {
			t.Errorf("Covers(%d) = %v, want %v", epoch, got, want)
		}
	}
}

func TestNewTransactionInfoDeadline(t *testing.T) {
	info := NewTransactionInfo(0)
	if !info.Deadline().Equal(info.Started) {
		t.Fatalf("zero timeout should deadline at Started")
	}
}
