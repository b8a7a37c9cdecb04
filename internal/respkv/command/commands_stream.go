package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ambervale/respkv/internal/respkv/resp"
	"github.com/ambervale/respkv/internal/respkv/store"
)

func doXADD(d *Dispatcher, args []string) resp.Reply {
	if len(args) <= 2 {
		return arityErr("XADD", "expected key, id")
	}
	key, idSpec, rest := args[0], args[1], args[2:]
	if len(rest)%2 != 0 {
		return arityErr("XADD", "no value given for key")
	}
	fields := make([]store.FieldPair, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		fields = append(fields, store.FieldPair{Name: rest[i], Value: rest[i+1]})
	}

	id, err := d.ks.XAdd(key, idSpec, fields)
	if err != nil {
		return wrapStoreErr(err)
	}
	return resp.BulkStr(id.String())
}

func doXRANGE(d *Dispatcher, args []string) resp.Reply {
	if len(args) != 3 {
		return arityErr("XRANGE", "expected key, start, end")
	}
	entries, err := d.ks.XRange(args[0], args[1], args[2])
	if err != nil {
		return wrapStoreErr(err)
	}
	return resp.Arr{Items: encodeStreamEntries(entries)}
}

func doXREAD(d *Dispatcher, args []string) resp.Reply {
	if len(args) != 3 {
		return arityErr("XREAD", "expected STREAMS, from")
	}
	if !strings.EqualFold(args[0], "STREAMS") {
		return arityErr("XREAD", fmt.Sprintf("expected STREAMS keyword, but got %s", args[0]))
	}
	key, idSpec := args[1], args[2]

	afterID, err := store.ParseStreamID(idSpec)
	if err != nil {
		var de *store.DomainError
		if errors.As(err, &de) {
			return wrapStoreErr(err)
		}
		return arityErr("XREAD", "invalid stream ID")
	}

	results, err := d.ks.XRead([]string{key}, []store.StreamID{afterID})
	if err != nil {
		return wrapStoreErr(err)
	}

	perStream := resp.Arr{Items: []resp.Reply{
		resp.BulkStr(key),
		resp.Arr{Items: encodeStreamEntries(results[0])},
	}}
	return resp.Arr{Items: []resp.Reply{perStream}}
}

// encodeStreamEntries shapes a []StreamEntry into the reply form XRANGE
// and XREAD both share: an array of [id, [field, value, ...]] pairs.
func encodeStreamEntries(entries []store.StreamEntry) []resp.Reply {
	items := make([]resp.Reply, len(entries))
	for i, e := range entries {
		flatFields := make([]resp.Reply, 0, len(e.Fields)*2)
		for _, f := range e.Fields {
			flatFields = append(flatFields, resp.BulkStr(f.Name), resp.BulkStr(f.Value))
		}
		items[i] = resp.Arr{Items: []resp.Reply{
			resp.BulkStr(e.ID.String()),
			resp.Arr{Items: flatFields},
		}}
	}
	return items
}
