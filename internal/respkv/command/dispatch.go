package command

import (
	"context"

	"github.com/ambervale/respkv/internal/respkv/resp"
	"github.com/ambervale/respkv/internal/respkv/store"
)

// handlerFunc is the shape every command implementation takes: it
// receives the command's arguments (name excluded) and returns the
// Reply to send back, never writing to a connection itself. This keeps
// command logic testable without a live net.Conn.
type handlerFunc func(d *Dispatcher, args []string) resp.Reply

// Dispatcher executes parsed commands against a shared Keyspace. One
// Dispatcher is constructed per connection so that a blocking command
// (BLPOP) can stash the call's context without any risk of one
// connection's cancellation leaking into another's.
type Dispatcher struct {
	ks    *store.Keyspace
	ctx   context.Context
	table map[string]handlerFunc
}

func NewDispatcher(ks *store.Keyspace) *Dispatcher {
	d := &Dispatcher{ks: ks, ctx: context.Background()}
	d.table = map[string]handlerFunc{
		"PING":   doPING,
		"ECHO":   doECHO,
		"SET":    doSET,
		"GET":    doGET,
		"TYPE":   doTYPE,
		"RPUSH":  doRPUSH,
		"LPUSH":  doLPUSH,
		"LRANGE": doLRANGE,
		"LLEN":   doLLEN,
		"LPOP":   doLPOP,
		"BLPOP":  doBLPOP,
		"XADD":   doXADD,
		"XRANGE": doXRANGE,
		"XREAD":  doXREAD,
	}
	return d
}

// Handle dispatches one parsed command, returning the Reply to encode
// and write back. ctx bounds any blocking performed while handling the
// command (currently only BLPOP); a canceled ctx unparks a blocked
// BLPOP, which then replies with a null array as on a timeout.
func (d *Dispatcher) Handle(ctx context.Context, cmd resp.Command) resp.Reply {
	fn, ok := d.table[cmd.Name]
	if !ok {
		return resp.Errorf("unknown command '%s'", cmd.Name)
	}
	d.ctx = ctx
	return fn(d, cmd.Args)
}

func arityErr(cmd, reason string) resp.Reply {
	return resp.Err{Msg: (&ArityError{Cmd: cmd, Reason: reason}).Error()}
}

// wrapStoreErr converts a store-layer error into its wire reply. The
// error's message is used verbatim, so WRONGTYPE and DomainError keep
// their exact, spec-mandated message untouched.
func wrapStoreErr(err error) resp.Reply {
	return resp.Err{Msg: err.Error()}
}
