package store

// ListValue is an ordered sequence of byte strings supporting push at
// both ends, pop at the head, and index-range reads.
//
// No ordered-deque library in the retrieved corpus fits this shape —
// container/list's doubly linked nodes don't support O(1) index slicing
// for LRANGE, and nothing else in the pack offers a byte-string deque —
// so this stays a plain slice, mirroring how the original Python server
// just used a builtin list.
type ListValue struct {
	items []string
}

func (*ListValue) isValue() {}

// PushBack appends vals in order (RPUSH) and returns the new length.
func (l *ListValue) PushBack(vals ...string) int {
	l.items = append(l.items, vals...)
	return len(l.items)
}

// PushFront prepends vals one at a time, so the last element of vals
// ends up at the head of the list (LPUSH's documented ordering). Returns
// the new length.
func (l *ListValue) PushFront(vals ...string) int {
	for _, v := range vals {
		l.items = append(l.items, "")
		copy(l.items[1:], l.items)
		l.items[0] = v
	}
	return len(l.items)
}

func (l *ListValue) Len() int { return len(l.items) }

// PopFront removes and returns the head element, if any.
func (l *ListValue) PopFront() (string, bool) {
	if len(l.items) == 0 {
		return "", false
	}
	v := l.items[0]
	l.items = l.items[1:]
	return v, true
}

// PopFrontN removes and returns up to n elements from the head, fewer
// if the list is shorter. A negative n yields no elements.
func (l *ListValue) PopFrontN(n int) []string {
	if n < 0 {
		n = 0
	}
	if n > len(l.items) {
		n = len(l.items)
	}
	out := append([]string(nil), l.items[:n]...)
	l.items = l.items[n:]
	return out
}

// Range returns the inclusive slice [start, end] after normalizing
// negative indices and out-of-bounds ends, per the LRANGE bounds rule:
// start' = max(0, n+start) if start<0 else start; end' = min(n-1, end)
// if end>=0 else min(n-1, n+end). Empty if start' >= n or start' > end'.
func (l *ListValue) Range(start, end int) []string {
	n := len(l.items)
	s, e := normalizeRange(start, end, n)
	if s >= n || s > e {
		return []string{}
	}
	out := make([]string, e-s+1)
	copy(out, l.items[s:e+1])
	return out
}

func normalizeRange(start, end, n int) (s, e int) {
	if start < 0 {
		s = n + start
		if s < 0 {
			s = 0
		}
	} else {
		s = start
	}
	if end >= 0 {
		e = end
		if e > n-1 {
			e = n - 1
		}
	} else {
		e = n + end
		if e > n-1 {
			e = n - 1
		}
	}
	return s, e
}
