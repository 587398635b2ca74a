package coordinator

import "github.com/atomixdata/atomix/pkg/atomixtypes"

// participantRange is the per-range buffer and fencing state spec.md §3
// describes: readset, writeset, deleteset, and the leader sequence number
// first observed on this range during the transaction.
type participantRange struct {
	readset   map[string]struct{}
	writeset  map[string][]byte
	deleteset map[string]struct{}
	leaderSeq atomixtypes.LeaderSeq
}

func newParticipantRange() *participantRange {
	return &participantRange{
		readset:   make(map[string]struct{}),
		writeset:  make(map[string][]byte),
		deleteset: make(map[string]struct{}),
		leaderSeq: atomixtypes.UnsetLeaderSeq,
	}
}

// put records a buffered write, maintaining invariant (a) from spec.md §3:
// writeset and deleteset are disjoint.
func (p *participantRange) put(key string, val []byte) {
	delete(p.deleteset, key)
	p.writeset[key] = val
}

// del records a buffered delete, maintaining the same disjointness
// invariant from the other side.
func (p *participantRange) del(key string) {
	delete(p.writeset, key)
	p.deleteset[key] = struct{}{}
}

// localRead implements read-your-writes (spec.md §4.5.1 step 3): the bool
// return reports whether the local buffer had an answer at all.
func (p *participantRange) localRead(key string) (val []byte, deleted bool, found bool) {
	if v, ok := p.writeset[key]; ok {
		return v, false, true
	}
	if _, ok := p.deleteset[key]; ok {
		return nil, true, true
	}
	return nil, false, false
}

func (p *participantRange) hasReads() bool { return len(p.readset) > 0 }

// writesAsRecords flattens the writeset into the Record list a prepare RPC
// carries (spec.md §4.5.3 step 2).
func (p *participantRange) writesAsRecords() []atomixtypes.Record {
	out := make([]atomixtypes.Record, 0, len(p.writeset))
	for k, v := range p.writeset {
		out = append(out, atomixtypes.Record{Key: []byte(k), Val: v})
	}
	return out
}

func (p *participantRange) deletesAsKeys() [][]byte {
	out := make([][]byte, 0, len(p.deleteset))
	for k := range p.deleteset {
		out = append(out, []byte(k))
	}
	return out
}

// participantSet is the per-transaction map of ranges touched so far
// (spec.md §3 invariant (c): a range appears iff at least one resolve or
// read was attempted against it). getOrCreate never evicts.
type participantSet struct {
	ranges map[atomixtypes.FullRangeId]*participantRange
}

func newParticipantSet() *participantSet {
	return &participantSet{ranges: make(map[atomixtypes.FullRangeId]*participantRange)}
}

func (s *participantSet) getOrCreate(id atomixtypes.FullRangeId) *participantRange {
	p, ok := s.ranges[id]
	if !ok {
		p = newParticipantRange()
		s.ranges[id] = p
	}
	return p
}

func (s *participantSet) len() int { return len(s.ranges) }
