package store

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/btree"
)

// StreamID is the (ms, seq) pair identifying a stream entry, ordered
// lexicographically on (Ms, Seq).
type StreamID struct {
	Ms  uint64
	Seq uint64
}

// MinStreamID is the lowest representable id, 0-0; it is not itself a
// legal entry id (XADD rejects it).
var MinStreamID = StreamID{Ms: 0, Seq: 0}

// MaxStreamID is the highest representable id, used to express an
// unbounded XRANGE end ("+").
var MaxStreamID = StreamID{Ms: math.MaxUint64, Seq: math.MaxUint64}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater
// than b.
func (a StreamID) Compare(b StreamID) int {
	switch {
	case a.Ms < b.Ms:
		return -1
	case a.Ms > b.Ms:
		return 1
	case a.Seq < b.Seq:
		return -1
	case a.Seq > b.Seq:
		return 1
	default:
		return 0
	}
}

func (a StreamID) Less(b StreamID) bool    { return a.Compare(b) < 0 }
func (a StreamID) Greater(b StreamID) bool { return a.Compare(b) > 0 }

// Next returns the smallest id strictly greater than id, and whether
// computing it overflowed past MaxStreamID. Incrementing Seq, and
// carrying into Ms on wraparound, is exactly how an inclusive upper
// bound becomes the exclusive bound a range-scanning btree needs.
func (id StreamID) Next() (next StreamID, overflow bool) {
	seq := id.Seq + 1
	if seq != 0 {
		return StreamID{Ms: id.Ms, Seq: seq}, false
	}
	ms := id.Ms + 1
	if ms == 0 {
		return StreamID{}, true
	}
	return StreamID{Ms: ms, Seq: 0}, false
}

func (id StreamID) String() string {
	return strconv.FormatUint(id.Ms, 10) + "-" + strconv.FormatUint(id.Seq, 10)
}

// FieldPair is one (name, value) entry of a stream entry's field list,
// kept as a slice rather than a map so XADD's insertion order survives
// into XRANGE/XREAD replies.
type FieldPair struct {
	Name  string
	Value string
}

// StreamEntry is one immutable, ordered entry of a stream.
type StreamEntry struct {
	ID     StreamID
	Fields []FieldPair
}

// streamItem adapts StreamEntry to btree.Item.
type streamItem struct {
	entry StreamEntry
}

func (i *streamItem) Less(than btree.Item) bool {
	return i.entry.ID.Less(than.(*streamItem).entry.ID)
}

// DomainError reports a stream-ID validation failure; its message is
// rendered verbatim on the wire as "-ERR <msg>".
type DomainError struct {
	Msg string
}

func (e *DomainError) Error() string { return e.Msg }

// StreamValue is an append-only log of StreamEntry ordered by strictly
// monotonic StreamID.
//
// Backed by a github.com/google/btree ordered tree: entries are
// btree.Items ordered by StreamID, giving O(log n) append-at-tail
// validation and O(log n + k) range scans for XRANGE/XREAD.
type StreamValue struct {
	tree *btree.BTree
	last StreamID
}

func NewStreamValue() *StreamValue {
	return &StreamValue{tree: btree.New(32)}
}

func (*StreamValue) isValue() {}

func (s *StreamValue) Len() int { return s.tree.Len() }

// Append resolves idSpec against the stream's current top entry, per
// the ID-resolution and validation rules, stores the new entry, and
// returns its resolved id.
func (s *StreamValue) Append(idSpec string, fields []FieldPair) (StreamID, error) {
	id, err := s.resolveAppendID(idSpec)
	if err != nil {
		return StreamID{}, err
	}
	if !id.Greater(MinStreamID) {
		return StreamID{}, &DomainError{Msg: "The ID specified in XADD must be greater than 0-0"}
	}
	if !id.Greater(s.last) {
		return StreamID{}, &DomainError{Msg: "The ID specified in XADD is equal or smaller than the target stream top item"}
	}
	s.tree.ReplaceOrInsert(&streamItem{entry: StreamEntry{ID: id, Fields: fields}})
	s.last = id
	return id, nil
}

// resolveAppendID implements the three ID-spec forms: "*", "<ms>[-*]",
// and "<ms>-<seq>".
func (s *StreamValue) resolveAppendID(spec string) (StreamID, error) {
	if spec == "*" {
		ms := uint64(time.Now().UnixMilli())
		return StreamID{Ms: ms, Seq: s.autoSeq(ms)}, nil
	}
	msPart, seqPart, hasDash := strings.Cut(spec, "-")
	ms, err := strconv.ParseUint(msPart, 10, 64)
	if err != nil {
		return StreamID{}, &DomainError{Msg: "Invalid stream ID specified as stream command argument"}
	}
	if !hasDash || seqPart == "*" {
		return StreamID{Ms: ms, Seq: s.autoSeq(ms)}, nil
	}
	seq, err := strconv.ParseUint(seqPart, 10, 64)
	if err != nil {
		return StreamID{}, &DomainError{Msg: "Invalid stream ID specified as stream command argument"}
	}
	return StreamID{Ms: ms, Seq: seq}, nil
}

// autoSeq implements the auto-sequence policy: reuse top.Seq+1 when the
// new entry shares the top entry's ms, else 1 when ms is 0, else 0.
func (s *StreamValue) autoSeq(ms uint64) uint64 {
	if s.tree.Len() > 0 && s.last.Ms == ms {
		return s.last.Seq + 1
	}
	if ms == 0 {
		return 1
	}
	return 0
}

// Range returns entries whose id falls in the inclusive [start, end]
// range described by the two XRANGE-style specs ("-", "+", "<ms>",
// "<ms>-<seq>").
func (s *StreamValue) Range(startSpec, endSpec string) ([]StreamEntry, error) {
	start, err := parseRangeBound(startSpec, true)
	if err != nil {
		return nil, err
	}
	end, err := parseRangeBound(endSpec, false)
	if err != nil {
		return nil, err
	}
	return s.collectInclusive(start, end), nil
}

// ReadAfter returns entries strictly greater than exclusiveID, ordered
// lowest to highest. Exclusivity is implemented as Next()+AscendGreater
// OrEqual rather than incrementing the caller's id and filtering with
// ">=": naively bumping Seq wraps to 0 and silently matches the wrong
// entries once Seq is already MaxUint64, so Next()'s overflow-aware
// carry is used instead.
func (s *StreamValue) ReadAfter(exclusiveID StreamID) []StreamEntry {
	start, overflow := exclusiveID.Next()
	if overflow {
		return []StreamEntry{}
	}
	var entries []StreamEntry
	s.tree.AscendGreaterOrEqual(&streamItem{entry: StreamEntry{ID: start}}, func(i btree.Item) bool {
		entries = append(entries, i.(*streamItem).entry)
		return true
	})
	if entries == nil {
		entries = []StreamEntry{}
	}
	return entries
}

func (s *StreamValue) collectInclusive(start, end StreamID) []StreamEntry {
	var entries []StreamEntry
	collect := func(i btree.Item) bool {
		entries = append(entries, i.(*streamItem).entry)
		return true
	}
	upper, overflow := end.Next()
	if overflow {
		s.tree.AscendGreaterOrEqual(&streamItem{entry: StreamEntry{ID: start}}, collect)
	} else {
		s.tree.AscendRange(&streamItem{entry: StreamEntry{ID: start}}, &streamItem{entry: StreamEntry{ID: upper}}, collect)
	}
	if entries == nil {
		entries = []StreamEntry{}
	}
	return entries
}

// ParseStreamID parses a fully specified entry id ("<ms>" or
// "<ms>-<seq>", defaulting Seq to 0 when omitted) as used by XREAD's
// exclusive cursor argument, with none of XADD's wildcard forms.
func ParseStreamID(spec string) (StreamID, error) {
	msPart, seqPart, hasDash := strings.Cut(spec, "-")
	ms, err := strconv.ParseUint(msPart, 10, 64)
	if err != nil {
		return StreamID{}, &DomainError{Msg: "Invalid stream ID specified as stream command argument"}
	}
	if !hasDash {
		return StreamID{Ms: ms, Seq: 0}, nil
	}
	seq, err := strconv.ParseUint(seqPart, 10, 64)
	if err != nil {
		return StreamID{}, &DomainError{Msg: "Invalid stream ID specified as stream command argument"}
	}
	return StreamID{Ms: ms, Seq: seq}, nil
}

// parseRangeBound parses an XRANGE-style start or end spec: "-" is the
// lowest id (start only), "+" is the highest id (end only), a bare
// "<ms>" fills in Seq 0 for a start bound or MaxUint64 for an end
// bound, and "<ms>-<seq>" is exact.
func parseRangeBound(spec string, isStart bool) (StreamID, error) {
	if spec == "-" {
		return MinStreamID, nil
	}
	if spec == "+" {
		return MaxStreamID, nil
	}
	msPart, seqPart, hasDash := strings.Cut(spec, "-")
	ms, err := strconv.ParseUint(msPart, 10, 64)
	if err != nil {
		return StreamID{}, &DomainError{Msg: "Invalid stream ID specified as stream command argument"}
	}
	if !hasDash {
		if isStart {
			return StreamID{Ms: ms, Seq: 0}, nil
		}
		return StreamID{Ms: ms, Seq: math.MaxUint64}, nil
	}
	seq, err := strconv.ParseUint(seqPart, 10, 64)
	if err != nil {
		return StreamID{}, &DomainError{Msg: "Invalid stream ID specified as stream command argument"}
	}
	return StreamID{Ms: ms, Seq: seq}, nil
}
