package command

import (
	"errors"
	"strconv"
	"time"

	"github.com/ambervale/respkv/internal/respkv/resp"
	"github.com/ambervale/respkv/internal/respkv/store"
)

func doRPUSH(d *Dispatcher, args []string) resp.Reply {
	if len(args) < 2 {
		return arityErr("RPUSH", "expected key and value")
	}
	n, err := d.ks.RPush(args[0], args[1:]...)
	if err != nil {
		return wrapStoreErr(err)
	}
	return resp.Int(int64(n))
}

func doLPUSH(d *Dispatcher, args []string) resp.Reply {
	if len(args) < 2 {
		return arityErr("LPUSH", "expected key and value")
	}
	n, err := d.ks.LPush(args[0], args[1:]...)
	if err != nil {
		return wrapStoreErr(err)
	}
	return resp.Int(int64(n))
}

func doLRANGE(d *Dispatcher, args []string) resp.Reply {
	if len(args) != 3 {
		return arityErr("LRANGE", "expected key, start, end")
	}
	start, err1 := strconv.Atoi(args[1])
	end, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil {
		return arityErr("LRANGE", "expected integer for start, end")
	}
	vals, err := d.ks.LRange(args[0], start, end)
	if err != nil {
		return wrapStoreErr(err)
	}
	return resp.BulkStrs(vals)
}

func doLLEN(d *Dispatcher, args []string) resp.Reply {
	if len(args) != 1 {
		return arityErr("LLEN", "expected key")
	}
	n, err := d.ks.LLen(args[0])
	if err != nil {
		return wrapStoreErr(err)
	}
	return resp.Int(int64(n))
}

// doLPOP implements both LPOP key and LPOP key count. An absent key
// replies null bulk in either form; the count form additionally
// replies an (possibly empty) array once the key is known to exist.
func doLPOP(d *Dispatcher, args []string) resp.Reply {
	if len(args) < 1 {
		return arityErr("LPOP", "expected key")
	}
	key := args[0]
	count := 1
	hasCount := len(args) > 1
	if hasCount {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return arityErr("LPOP", "expected integer for count")
		}
		count = n
	}

	vals, present, err := d.ks.LPop(key, count)
	if err != nil {
		return wrapStoreErr(err)
	}
	if !present {
		return resp.NullBulk()
	}
	if !hasCount {
		if len(vals) == 0 {
			return resp.NullBulk()
		}
		return resp.BulkStr(vals[0])
	}
	return resp.BulkStrs(vals)
}

// doBLPOP implements BLPOP key timeout, where timeout is decimal
// seconds and 0 means wait forever.
func doBLPOP(d *Dispatcher, args []string) resp.Reply {
	if len(args) != 2 {
		return arityErr("BLPOP", "expected key and timeout")
	}
	key := args[0]
	timeoutSec, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return arityErr("BLPOP", "expected number for timeout")
	}
	var timeout time.Duration
	if timeoutSec > 0 {
		timeout = time.Duration(timeoutSec * float64(time.Second))
	}

	val, ok, err := d.ks.BLPop(d.ctx, key, timeout)
	if err != nil {
		if errors.Is(err, store.ErrWrongType) {
			return wrapStoreErr(err)
		}
		// Context canceled: the connection is shutting down underneath
		// this call. Answer as a timeout; the worker is about to close
		// the socket regardless.
		return resp.NullArray()
	}
	if !ok {
		return resp.NullArray()
	}
	return resp.Arr{Items: []resp.Reply{resp.BulkStr(key), resp.BulkStr(val)}}
}
