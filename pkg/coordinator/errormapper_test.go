package coordinator

import (
	"errors"
	"testing"

	"github.com/atomixdata/atomix/pkg/rangeclient"
)

func TestMapRangeClientErrorCategories(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want AbortReason
		kind kind
	}{
		{"transport", &rangeclient.TransportError{Cause: errors.New("reset")}, AbortReasonPrepareFailed, kindTransactionAborted},
		{"conflict", &rangeclient.ConflictError{Msg: "locked"}, AbortReasonPrepareFailed, kindTransactionAborted},
		{"unknown range", rangeclient.ErrUnknownRange, 0, kindInternal},
		{"other", errors.New("whatever"), 0, kindInternal},
	}
	for _, c := range cases {
		got := mapRangeClientError(c.err)
		if got.kind != c.kind {
			t.Errorf("%s: kind = %v, want %v", c.name, got.kind, c.kind)
		}
		if c.kind == kindTransactionAborted && got.reason != c.want {
			t.Errorf("%s: reason = %v, want %v", c.name, got.reason, c.want)
		}
	}
}

func TestMapRangeClientErrorNil(t *testing.T) {
	if mapRangeClientError(nil) != nil {
		t.Fatalf("mapRangeClientError(nil) should be nil")
	}
}
