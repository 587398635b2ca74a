package oracle

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/atomixdata/atomix/pkg/atomixtypes"
)

func TestRangeOfKeyBoundaries(t *testing.T) {
	o := NewInMemory()
	ks := uuid.New()
	rangeA := atomixtypes.FullRangeId{KeyspaceID: ks, RangeID: uuid.New()}
	rangeB := atomixtypes.FullRangeId{KeyspaceID: ks, RangeID: uuid.New()}
	o.Assign(ks, []byte(""), rangeA)
	o.Assign(ks, []byte("m"), rangeB)

	cases := []struct {
		key  string
		want atomixtypes.FullRangeId
	}{
		{"a", rangeA},
		{"lzzz", rangeA},
		{"m", rangeB},
		{"z", rangeB},
	}
	for _, c := range cases {
		got, ok := o.RangeOfKey(context.Background(), ks, []byte(c.key))
		if !ok {
			t.Fatalf("RangeOfKey(%q) not found", c.key)
		}
		if got != c.want {
			t.Errorf("RangeOfKey(%q) = %v, want %v", c.key, got, c.want)
		}
	}
}

func TestRangeOfKeyUnknownKeyspace(t *testing.T) {
	o := NewInMemory()
	_, ok := o.RangeOfKey(context.Background(), uuid.New(), []byte("a"))
	if ok {
		t.Fatalf("expected not found for unknown keyspace")
	}
}

func TestRangeOfKeyBeforeFirstBoundary(t *testing.T) {
	o := NewInMemory()
	ks := uuid.New()
	rangeB := atomixtypes.FullRangeId{KeyspaceID: ks, RangeID: uuid.New()}
	o.Assign(ks, []byte("m"), rangeB)

	_, ok := o.RangeOfKey(context.Background(), ks, []byte("a"))
	if ok {
		t.Fatalf("expected not found for a key before the first registered boundary")
	}
}
