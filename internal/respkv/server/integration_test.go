package server

import (
	"testing"
	"time"

	"github.com/ambervale/respkv/internal/respkv/store"
	"github.com/mediocregopher/radix/v3"
	"github.com/stretchr/testify/require"
)

// startTestServer binds an ephemeral port, waits for it to be ready,
// and registers cleanup that shuts it down.
func startTestServer(t *testing.T) *Server {
	t.Helper()
	srv := New("127.0.0.1:0", store.New(), quietLogger())
	doneCh := make(chan error, 1)
	go func() { doneCh <- srv.ListenAndServe() }()

	select {
	case <-srv.Ready():
	case err := <-doneCh:
		t.Fatalf("server exited before becoming ready: %v", err)
	case <-time.After(time.Second):
		t.Fatal("server never became ready")
	}

	t.Cleanup(func() {
		srv.Shutdown()
		select {
		case <-doneCh:
		case <-time.After(time.Second):
			t.Fatal("server did not shut down")
		}
	})
	return srv
}

// TestIntegrationRealClientPingAndBlpopHandoff drives the server with
// a real RESP client rather than a hand-rolled wire writer, covering
// scenario 6 (two-connection BLPOP handoff) end to end.
func TestIntegrationRealClientPingAndBlpopHandoff(t *testing.T) {
	srv := startTestServer(t)
	addr := srv.BoundAddr()

	pool, err := radix.NewPool("tcp", addr, 4)
	require.NoError(t, err)
	defer pool.Close()

	var pong string
	require.NoError(t, pool.Do(radix.Cmd(&pong, "PING")))
	require.Equal(t, "PONG", pong)

	require.NoError(t, pool.Do(radix.Cmd(nil, "SET", "k", "v")))
	var got string
	require.NoError(t, pool.Do(radix.Cmd(&got, "GET", "k")))
	require.Equal(t, "v", got)

	resultCh := make(chan []string, 1)
	errCh := make(chan error, 1)
	go func() {
		conn, err := radix.Dial("tcp", addr)
		if err != nil {
			errCh <- err
			return
		}
		defer conn.Close()
		var popped []string
		if err := conn.Do(radix.Cmd(&popped, "BLPOP", "q", "0")); err != nil {
			errCh <- err
			return
		}
		resultCh <- popped
	}()

	time.Sleep(50 * time.Millisecond)
	var pushedLen int
	require.NoError(t, pool.Do(radix.Cmd(&pushedLen, "RPUSH", "q", "x")))
	require.Equal(t, 1, pushedLen)

	select {
	case popped := <-resultCh:
		require.Equal(t, []string{"q", "x"}, popped)
	case err := <-errCh:
		t.Fatalf("BLPOP client errored: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("BLPOP never returned")
	}
}
