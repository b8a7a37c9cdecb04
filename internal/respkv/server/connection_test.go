package server

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/ambervale/respkv/internal/respkv/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestConnectionServesPingOverPipe(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	ks := store.New()
	c := newConnection(server, ks, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.serve(ctx)

	_, err := client.Write([]byte("*1\r\n$4\r\nPING\r\n"))
	require.NoError(t, err)

	reply := make([]byte, 7)
	client.SetReadDeadline(time.Now().Add(time.Second))
	_, err = bufio.NewReader(client).Read(reply)
	require.NoError(t, err)
	require.Equal(t, "+PONG\r\n", string(reply))
}

func TestConnectionClosesOnPeerClose(t *testing.T) {
	client, server := net.Pipe()
	ks := store.New()
	c := newConnection(server, ks, quietLogger())

	doneCh := make(chan struct{})
	go func() {
		c.serve(context.Background())
		close(doneCh)
	}()

	client.Close()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("connection did not exit after peer close")
	}
}
