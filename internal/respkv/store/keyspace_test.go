package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyspaceSetGetRoundTrip(t *testing.T) {
	ks := New()
	ks.SetString("k", "v", 0, false)
	v, ok := ks.Get("k")
	require.True(t, ok)
	sv, ok := v.(*StringValue)
	require.True(t, ok)
	assert.Equal(t, "v", sv.Data)
}

func TestKeyspaceGetAbsentKey(t *testing.T) {
	ks := New()
	_, ok := ks.Get("nope")
	assert.False(t, ok)
}

func TestKeyspaceGetAfterPXExpiryIsAbsent(t *testing.T) {
	ks := New()
	ks.SetString("k", "v", time.Millisecond, true)
	time.Sleep(20 * time.Millisecond)
	_, ok := ks.Get("k")
	assert.False(t, ok)
}

func TestKeyspaceOverwriteCancelsStaleTimer(t *testing.T) {
	ks := New()
	ks.SetString("k", "v1", 5*time.Millisecond, true)
	time.Sleep(2 * time.Millisecond)
	ks.SetString("k", "v2", 0, false) // no TTL this time
	time.Sleep(20 * time.Millisecond)

	v, ok := ks.Get("k")
	require.True(t, ok, "overwritten key must survive the first SET's stale timer")
	assert.Equal(t, "v2", v.(*StringValue).Data)
}

func TestKeyspaceWrongType(t *testing.T) {
	ks := New()
	ks.SetString("k", "v", 0, false)
	_, err := ks.LRange("k", 0, -1)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestKeyspaceRPushLPushLRange(t *testing.T) {
	ks := New()
	_, err := ks.RPush("l", "a", "b")
	require.NoError(t, err)
	_, err = ks.LPush("l", "z")
	require.NoError(t, err)

	got, err := ks.LRange("l", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "b"}, got)

	n, err := ks.LLen("l")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestKeyspaceLPop(t *testing.T) {
	ks := New()
	_, err := ks.RPush("l", "a", "b", "c")
	require.NoError(t, err)

	vals, present, err := ks.LPop("l", 2)
	require.NoError(t, err)
	require.True(t, present)
	assert.Equal(t, []string{"a", "b"}, vals)

	_, present, err = ks.LPop("missing", 1)
	require.NoError(t, err)
	assert.False(t, present)
}

func TestKeyspaceBLPopImmediateWhenDataPresent(t *testing.T) {
	ks := New()
	_, err := ks.RPush("l", "a")
	require.NoError(t, err)

	v, ok, err := ks.BLPop(context.Background(), "l", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", v)
}

func TestKeyspaceBLPopTimesOut(t *testing.T) {
	ks := New()
	start := time.Now()
	_, ok, err := ks.BLPop(context.Background(), "l", 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestKeyspaceBLPopWakesOnPush(t *testing.T) {
	ks := New()
	resultCh := make(chan string, 1)
	go func() {
		v, ok, err := ks.BLPop(context.Background(), "l", time.Second)
		require.NoError(t, err)
		require.True(t, ok)
		resultCh <- v
	}()

	time.Sleep(10 * time.Millisecond) // let the waiter register
	_, err := ks.RPush("l", "payload")
	require.NoError(t, err)

	select {
	case v := <-resultCh:
		assert.Equal(t, "payload", v)
	case <-time.After(time.Second):
		t.Fatal("BLPOP never woke up")
	}
}

func TestKeyspaceBLPopFIFOAndAtMostOneWake(t *testing.T) {
	ks := New()
	const waiters = 5
	var wg sync.WaitGroup
	results := make([]string, waiters)
	orderCh := make(chan int, waiters)

	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, ok, err := ks.BLPop(context.Background(), "l", time.Second)
			require.NoError(t, err)
			require.True(t, ok)
			results[i] = v
			orderCh <- i
		}(i)
		time.Sleep(2 * time.Millisecond) // enqueue in index order
	}

	for i := 0; i < waiters; i++ {
		_, err := ks.RPush("l", "v")
		require.NoError(t, err)
	}
	wg.Wait()
	close(orderCh)

	order := make([]int, 0, waiters)
	for i := range orderCh {
		order = append(order, i)
	}
	for i, got := range order {
		assert.Equal(t, i, got, "waiters must be served in FIFO order")
	}
	for _, v := range results {
		assert.Equal(t, "v", v)
	}
}

func TestKeyspaceBLPopContextCancel(t *testing.T) {
	ks := New()
	ctx, cancel := context.WithCancel(context.Background())
	resultCh := make(chan error, 1)
	go func() {
		_, _, err := ks.BLPop(ctx, "l", time.Minute)
		resultCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-resultCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("BLPOP did not observe context cancellation")
	}
}

func TestKeyspaceXAddXRangeXRead(t *testing.T) {
	ks := New()
	id1, err := ks.XAdd("s", "1-1", []FieldPair{{Name: "k", Value: "v1"}})
	require.NoError(t, err)
	id2, err := ks.XAdd("s", "2-1", []FieldPair{{Name: "k", Value: "v2"}})
	require.NoError(t, err)

	entries, err := ks.XRange("s", "-", "+")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, id1, entries[0].ID)
	assert.Equal(t, id2, entries[1].ID)

	res, err := ks.XRead([]string{"s"}, []StreamID{id1})
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Len(t, res[0], 1)
	assert.Equal(t, id2, res[0][0].ID)
}

func TestKeyspaceXAddOnWrongTypeKey(t *testing.T) {
	ks := New()
	ks.SetString("k", "v", 0, false)
	_, err := ks.XAdd("k", "*", nil)
	assert.ErrorIs(t, err, ErrWrongType)
}
