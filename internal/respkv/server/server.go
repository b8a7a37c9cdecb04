// Package server wires the accepted-connection loop around the
// command dispatcher and keyspace: the accept loop, per-connection
// goroutines, and graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ambervale/respkv/internal/respkv/store"
	"github.com/sirupsen/logrus"
)

// Server accepts TCP connections on Addr and serves them against a
// shared Keyspace.
type Server struct {
	Addr string
	ks   *store.Keyspace
	log  *logrus.Logger

	listener net.Listener
	wg       sync.WaitGroup
	quit     chan os.Signal
	ready    chan struct{}
}

func New(addr string, ks *store.Keyspace, log *logrus.Logger) *Server {
	return &Server{
		Addr: addr,
		ks:   ks,
		log:  log,
		quit:  make(chan os.Signal, 1),
		ready: make(chan struct{}),
	}
}

// Ready is closed once the listener is bound, so a caller (tests, or a
// supervisor wanting to report health) can wait for ListenAndServe to
// be actually accepting before proceeding.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// BoundAddr returns the listener's actual address; valid only after
// Ready is closed. Useful when Addr was ":0" and the OS picked the
// port.
func (s *Server) BoundAddr() string { return s.listener.Addr().String() }

// Shutdown requests a graceful stop as if SIGTERM had arrived, for
// callers that manage the server's lifecycle programmatically instead
// of relying on OS signal delivery.
func (s *Server) Shutdown() {
	s.quit <- syscall.SIGTERM
}

// ListenAndServe binds Addr and blocks until SIGINT/SIGTERM, at which
// point it stops accepting, cancels every connection's context (so a
// parked BLPOP unparks), and waits for all connections to finish
// before returning nil. A bind failure returns a *BindError.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return &BindError{Addr: s.Addr, Err: err}
	}
	s.listener = ln
	s.log.WithField("addr", s.Addr).Info("listening")
	close(s.ready)

	ctx, cancel := context.WithCancel(context.Background())
	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)

	go s.acceptLoop(ctx)

	<-s.quit
	s.log.Info("shutting down")
	cancel()
	ln.Close()
	s.wg.Wait()
	s.log.Info("shutdown complete")
	return nil
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				s.log.WithError(err).Warn("accept failed")
				return
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			newConnection(conn, s.ks, s.log).serve(ctx)
		}()
	}
}
