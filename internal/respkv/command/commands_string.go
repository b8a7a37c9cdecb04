package command

import (
	"strconv"
	"strings"
	"time"

	"github.com/ambervale/respkv/internal/respkv/resp"
	"github.com/ambervale/respkv/internal/respkv/store"
)

func doPING(d *Dispatcher, args []string) resp.Reply {
	return resp.SimpleStr("PONG")
}

func doECHO(d *Dispatcher, args []string) resp.Reply {
	if len(args) != 1 || args[0] == "" {
		return arityErr("ECHO", "wrong number of arguments")
	}
	return resp.BulkStr(args[0])
}

// doSET implements SET key value [PX millis]. The PX option, if
// present, is parsed before the write so a malformed option never
// leaves the key set without the TTL the caller asked for.
func doSET(d *Dispatcher, args []string) resp.Reply {
	if len(args) < 2 {
		return arityErr("SET", "expected key and value")
	}
	key, value := args[0], args[1]
	options := args[2:]

	var ttl time.Duration
	hasTTL := false
	for i := 0; i < len(options); i++ {
		if !strings.EqualFold(options[i], "PX") {
			continue
		}
		if i+1 >= len(options) {
			return arityErr("SET", "expected millis value for px option")
		}
		ms, err := strconv.ParseInt(options[i+1], 10, 64)
		if err != nil {
			return arityErr("SET", "PX option must be an integer")
		}
		ttl = time.Duration(ms) * time.Millisecond
		hasTTL = true
		i++
	}

	d.ks.SetString(key, value, ttl, hasTTL)
	return resp.SimpleStr("OK")
}

func doGET(d *Dispatcher, args []string) resp.Reply {
	if len(args) != 1 {
		return arityErr("GET", "expected key")
	}
	v, ok := d.ks.Get(args[0])
	if !ok {
		return resp.NullBulk()
	}
	sv, ok := v.(*store.StringValue)
	if !ok {
		return wrapStoreErr(store.ErrWrongType)
	}
	return resp.BulkStr(sv.Data)
}

func doTYPE(d *Dispatcher, args []string) resp.Reply {
	if len(args) != 1 {
		return arityErr("TYPE", "expected key")
	}
	return resp.SimpleStr(d.ks.Type(args[0]))
}
