package coordinator

import (
	"testing"

	"github.com/google/uuid"

	"github.com/atomixdata/atomix/pkg/atomixtypes"
)

func TestParticipantRangePutDeleteDisjoint(t *testing.T) {
	p := newParticipantRange()
	p.put("k", []byte("v1"))
	if _, ok := p.writeset["k"]; !ok {
		t.Fatalf("writeset should contain k")
	}
	p.del("k")
	if _, ok := p.writeset["k"]; ok {
		t.Fatalf("writeset should not contain k after del")
	}
	if _, ok := p.deleteset["k"]; !ok {
		t.Fatalf("deleteset should contain k after del")
	}
	p.put("k", []byte("v2"))
	if _, ok := p.deleteset["k"]; ok {
		t.Fatalf("deleteset should not contain k after re-put")
	}
}

func TestParticipantRangeLocalRead(t *testing.T) {
	p := newParticipantRange()
	if _, _, found := p.localRead("k"); found {
		t.Fatalf("empty participant range should report not found")
	}
	p.put("k", []byte("v1"))
	val, deleted, found := p.localRead("k")
	if !found || deleted || string(val) != "v1" {
		t.Fatalf("localRead after put = (%q, %v, %v), want (v1, false, true)", val, deleted, found)
	}
	p.del("k")
	_, deleted, found = p.localRead("k")
	if !found || !deleted {
		t.Fatalf("localRead after del = (_, %v, %v), want (true, true)", deleted, found)
	}
}

func TestParticipantSetGetOrCreateNeverEvicts(t *testing.T) {
	s := newParticipantSet()
	id := atomixtypes.FullRangeId{KeyspaceID: uuid.New(), RangeID: uuid.New()}
	p1 := s.getOrCreate(id)
	p1.put("k", []byte("v"))
	p2 := s.getOrCreate(id)
	if p1 != p2 {
		t.Fatalf("getOrCreate returned a different pointer for the same range id")
	}
	if s.len() != 1 {
		t.Fatalf("len = %d, want 1", s.len())
	}
}
