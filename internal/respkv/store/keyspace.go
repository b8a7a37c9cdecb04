package store

import (
	"context"
	"sync"
	"time"
)

// entry is one keyspace slot: a typed value, an optional absolute
// expiry, and the generation token that guards its TTL timer.
type entry struct {
	value     Value
	expiresAt time.Time // zero means no TTL
	token     uint64
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Keyspace is the single shared map of keys to typed values, guarded by
// one mutex (the "simplest discipline that satisfies the concurrency
// model" per the design notes this module follows). BLPOP waiters are
// tracked alongside it so a push can hand a value directly to a waiting
// reader without releasing and reacquiring the lock.
type Keyspace struct {
	mu        sync.Mutex
	entries   map[string]*entry
	waiters   map[string]*waiterQueue
	nextToken uint64
}

func New() *Keyspace {
	return &Keyspace{
		entries: make(map[string]*entry),
		waiters: make(map[string]*waiterQueue),
	}
}

// Get performs lazy-expiry lookup: an entry past its deadline is
// deleted on read even if its timer hasn't fired yet.
func (ks *Keyspace) Get(key string) (Value, bool) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	return ks.getLocked(key)
}

func (ks *Keyspace) getLocked(key string) (Value, bool) {
	e, ok := ks.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(time.Now()) {
		delete(ks.entries, key)
		return nil, false
	}
	return e.value, true
}

// Type returns the TYPE command's answer: the variant name, or "none"
// for an absent or expired key.
func (ks *Keyspace) Type(key string) string {
	v, ok := ks.Get(key)
	if !ok {
		return "none"
	}
	return TypeName(v)
}

// SetString stores a string value, replacing whatever was at key. When
// hasTTL is true, the key expires once ttl has elapsed after this call; the
// generation token bumped here lets a later SET on the same key
// invalidate an in-flight AfterFunc from this call, so two overlapping
// PX timers can never race each other or a manual overwrite.
func (ks *Keyspace) SetString(key, val string, ttl time.Duration, hasTTL bool) {
	ks.mu.Lock()
	ks.nextToken++
	token := ks.nextToken
	var expiresAt time.Time
	if hasTTL {
		expiresAt = time.Now().Add(ttl)
	}
	ks.entries[key] = &entry{value: &StringValue{Data: val}, expiresAt: expiresAt, token: token}
	ks.mu.Unlock()

	if hasTTL {
		time.AfterFunc(ttl, func() { ks.expireIfCurrent(key, token) })
	}
}

func (ks *Keyspace) expireIfCurrent(key string, token uint64) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if e, ok := ks.entries[key]; ok && e.token == token {
		delete(ks.entries, key)
	}
}

// getOrCreateList returns the ListValue at key, creating an empty one
// if the key is absent or expired, and reports ErrWrongType if the key
// holds a different variant.
func (ks *Keyspace) getOrCreateList(key string) (*ListValue, error) {
	v, ok := ks.getLocked(key)
	if !ok {
		lv := &ListValue{}
		ks.nextToken++
		ks.entries[key] = &entry{value: lv, token: ks.nextToken}
		return lv, nil
	}
	lv, ok := v.(*ListValue)
	if !ok {
		return nil, ErrWrongType
	}
	return lv, nil
}

// RPush appends vals to the list at key, creating it if needed, then
// hands as many of the newly available elements as possible to waiting
// BLPOP callers in FIFO order. Returns the list's length after the
// push.
func (ks *Keyspace) RPush(key string, vals ...string) (int, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	lv, err := ks.getOrCreateList(key)
	if err != nil {
		return 0, err
	}
	n := lv.PushBack(vals...)
	ks.drainWaitersLocked(key, lv)
	return n, nil
}

// LPush prepends vals to the list at key (see ListValue.PushFront for
// the resulting order), with the same waiter handoff as RPush.
func (ks *Keyspace) LPush(key string, vals ...string) (int, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	lv, err := ks.getOrCreateList(key)
	if err != nil {
		return 0, err
	}
	n := lv.PushFront(vals...)
	ks.drainWaitersLocked(key, lv)
	return n, nil
}

// drainWaitersLocked hands list elements to queued BLPOP waiters, one
// per waiter, until either the list or the queue runs dry. Must be
// called with ks.mu held.
func (ks *Keyspace) drainWaitersLocked(key string, lv *ListValue) {
	wq := ks.waiters[key]
	if wq == nil {
		return
	}
	for lv.Len() > 0 {
		ch, ok := wq.popFront()
		if !ok {
			break
		}
		v, _ := lv.PopFront()
		ch <- v
	}
	if wq.empty() {
		delete(ks.waiters, key)
	}
}

// LRange returns the inclusive [start, end] slice of the list at key,
// per ListValue.Range's index normalization; an absent key behaves as
// an empty list.
func (ks *Keyspace) LRange(key string, start, end int) ([]string, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	v, ok := ks.getLocked(key)
	if !ok {
		return []string{}, nil
	}
	lv, ok := v.(*ListValue)
	if !ok {
		return nil, ErrWrongType
	}
	return lv.Range(start, end), nil
}

// LLen returns the length of the list at key, 0 for an absent key.
func (ks *Keyspace) LLen(key string) (int, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	v, ok := ks.getLocked(key)
	if !ok {
		return 0, nil
	}
	lv, ok := v.(*ListValue)
	if !ok {
		return 0, ErrWrongType
	}
	return lv.Len(), nil
}

// LPop removes and returns up to count elements from the front of the
// list at key. present is false only when the key is absent or
// expired; a list emptied by earlier pops stays in the keyspace, so
// present can be true with no elements returned.
func (ks *Keyspace) LPop(key string, count int) (vals []string, present bool, err error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	v, ok := ks.getLocked(key)
	if !ok {
		return nil, false, nil
	}
	lv, ok := v.(*ListValue)
	if !ok {
		return nil, false, ErrWrongType
	}
	return lv.PopFrontN(count), true, nil
}

// BLPop blocks until the list at key has an element to pop, timeout
// elapses, or ctx is canceled. A zero timeout blocks indefinitely.
// Returns ok=false on timeout (not an error: the caller renders this as
// a null array, per the protocol).
func (ks *Keyspace) BLPop(ctx context.Context, key string, timeout time.Duration) (val string, ok bool, err error) {
	ks.mu.Lock()
	if v, exists := ks.getLocked(key); exists {
		lv, isList := v.(*ListValue)
		if !isList {
			ks.mu.Unlock()
			return "", false, ErrWrongType
		}
		if popped, hasOne := lv.PopFront(); hasOne {
			ks.mu.Unlock()
			return popped, true, nil
		}
	}
	wq := ks.waiters[key]
	if wq == nil {
		wq = &waiterQueue{}
		ks.waiters[key] = wq
	}
	ch := wq.enqueue()
	ks.mu.Unlock()

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case v := <-ch:
		return v, true, nil
	case <-timeoutCh:
		ks.mu.Lock()
		removed := wq.remove(ch)
		if wq.empty() {
			delete(ks.waiters, key)
		}
		ks.mu.Unlock()
		if removed {
			return "", false, nil
		}
		// A concurrent push already claimed this waiter and is sending
		// on ch; the receive below completes immediately.
		return <-ch, true, nil
	case <-ctx.Done():
		ks.mu.Lock()
		removed := wq.remove(ch)
		if wq.empty() {
			delete(ks.waiters, key)
		}
		ks.mu.Unlock()
		if removed {
			return "", false, ctx.Err()
		}
		return <-ch, true, nil
	}
}

// getOrCreateStream returns the StreamValue at key, creating an empty
// one if absent, and reports ErrWrongType for any other variant.
func (ks *Keyspace) getOrCreateStream(key string) (*StreamValue, error) {
	v, ok := ks.getLocked(key)
	if !ok {
		sv := NewStreamValue()
		ks.nextToken++
		ks.entries[key] = &entry{value: sv, token: ks.nextToken}
		return sv, nil
	}
	sv, ok := v.(*StreamValue)
	if !ok {
		return nil, ErrWrongType
	}
	return sv, nil
}

// XAdd appends an entry to the stream at key, creating the stream if
// needed.
func (ks *Keyspace) XAdd(key, idSpec string, fields []FieldPair) (StreamID, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	sv, err := ks.getOrCreateStream(key)
	if err != nil {
		return StreamID{}, err
	}
	return sv.Append(idSpec, fields)
}

// XRange returns the stream entries at key within [startSpec, endSpec],
// empty for an absent key.
func (ks *Keyspace) XRange(key, startSpec, endSpec string) ([]StreamEntry, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	v, ok := ks.getLocked(key)
	if !ok {
		return []StreamEntry{}, nil
	}
	sv, ok := v.(*StreamValue)
	if !ok {
		return nil, ErrWrongType
	}
	return sv.Range(startSpec, endSpec)
}

// XRead returns the entries strictly after afterID for each of the
// given streams, in the same order as keys/afterIDs.
func (ks *Keyspace) XRead(keys []string, afterIDs []StreamID) ([][]StreamEntry, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	out := make([][]StreamEntry, len(keys))
	for i, key := range keys {
		v, ok := ks.getLocked(key)
		if !ok {
			out[i] = []StreamEntry{}
			continue
		}
		sv, ok := v.(*StreamValue)
		if !ok {
			return nil, ErrWrongType
		}
		out[i] = sv.ReadAfter(afterIDs[i])
	}
	return out, nil
}
