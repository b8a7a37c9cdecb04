package server

import (
	"bufio"
	"context"
	"errors"
	"net"

	"github.com/ambervale/respkv/internal/respkv/command"
	"github.com/ambervale/respkv/internal/respkv/resp"
	"github.com/ambervale/respkv/internal/respkv/store"
	"github.com/sirupsen/logrus"
)

// connection is one accepted socket's read-decode-dispatch-write loop.
// It owns its own Dispatcher so a blocking BLPOP on this connection can
// never be confused with another connection's cancellation.
type connection struct {
	conn   net.Conn
	ks     *store.Keyspace
	log    *logrus.Entry
	dec    *resp.Decoder
	enc    resp.Encoder
	dispat *command.Dispatcher
}

func newConnection(c net.Conn, ks *store.Keyspace, log *logrus.Logger) *connection {
	return &connection{
		conn:   c,
		ks:     ks,
		log:    log.WithField("addr", c.RemoteAddr().String()),
		dec:    resp.NewDecoder(bufio.NewReader(c)),
		dispat: command.NewDispatcher(ks),
	}
}

// serve runs the connection loop until the peer disconnects, a
// transport error occurs, or ctx is canceled (server shutdown). The
// socket is always closed on the way out.
func (c *connection) serve(ctx context.Context) {
	defer c.conn.Close()
	// Closing the socket on cancellation unblocks a pending read, so the
	// loop below exits on server shutdown.
	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()
	c.log.Debug("connection opened")

	for {
		cmd, err := c.dec.ParseCommand()
		if err != nil {
			if errors.Is(err, resp.ErrConnectionClosed) {
				c.log.Debug("connection closed by peer")
				return
			}
			var perr *resp.ProtocolError
			if errors.As(err, &perr) {
				c.log.WithError(err).Warn("protocol error")
				if !c.writeReply(resp.Err{Msg: err.Error()}) {
					return
				}
				continue
			}
			c.log.WithError(err).Warn("transport error reading command")
			return
		}

		reply := c.dispat.Handle(ctx, cmd)
		if !c.writeReply(reply) {
			return
		}
	}
}

func (c *connection) writeReply(r resp.Reply) bool {
	r.Encode(&c.enc)
	_, err := c.conn.Write(c.enc.Bytes())
	c.enc.Reset()
	if err != nil {
		c.log.WithError(err).Warn("transport error writing reply")
		return false
	}
	return true
}
