package resp

import (
	"fmt"
	"strconv"
	"unsafe"
)

const (
	simpleStrPrefix = '+'
	errPrefix       = '-'
	intPrefix       = ':'
	bulkStrPrefix   = '$'
	arrPrefix       = '*'
	crlf            = "\r\n"
)

var nullBulkBytes = []byte("$-1\r\n")
var nullArrayBytes = []byte("*-1\r\n")

// Encoder builds a RESP reply into an internal byte buffer. The buffer
// is exported so a caller that wants to hand-roll a shape can append to
// it directly; the Write* methods exist as a convenience on top.
type Encoder struct {
	Buf []byte
}

func (e *Encoder) Reset() { e.Buf = e.Buf[:0] }

func (e *Encoder) WriteSimpleString(s string) {
	e.Buf = append(e.Buf, simpleStrPrefix)
	e.Buf = append(e.Buf, s...)
	e.Buf = append(e.Buf, crlf...)
}

// WriteError writes msg as a generic "-ERR <msg>" reply. Callers that
// need a distinct error code (e.g. WRONGTYPE) embed it as the leading
// word of msg, matching how every error shape in this protocol is
// rendered on the wire.
func (e *Encoder) WriteError(msg string) {
	e.Buf = append(e.Buf, errPrefix)
	e.Buf = append(e.Buf, "ERR "...)
	e.Buf = append(e.Buf, msg...)
	e.Buf = append(e.Buf, crlf...)
}

func (e *Encoder) WriteInteger(n int64) {
	e.Buf = append(e.Buf, intPrefix)
	e.Buf = strconv.AppendInt(e.Buf, n, 10)
	e.Buf = append(e.Buf, crlf...)
}

func (e *Encoder) WriteBulkStr(val string) {
	e.Buf = append(e.Buf, bulkStrPrefix)
	e.Buf = strconv.AppendInt(e.Buf, int64(len(val)), 10)
	e.Buf = append(e.Buf, crlf...)
	e.Buf = append(e.Buf, val...)
	e.Buf = append(e.Buf, crlf...)
}

func (e *Encoder) WriteNullBulk() {
	e.Buf = append(e.Buf, nullBulkBytes...)
}

// WriteArrHeader writes only the "*<n>\r\n" header; the caller is
// responsible for then writing n items.
func (e *Encoder) WriteArrHeader(n int) {
	e.Buf = append(e.Buf, arrPrefix)
	e.Buf = strconv.AppendInt(e.Buf, int64(n), 10)
	e.Buf = append(e.Buf, crlf...)
}

func (e *Encoder) WriteNullArray() {
	e.Buf = append(e.Buf, nullArrayBytes...)
}

// Bytes returns the buffer built so far without resetting it.
func (e *Encoder) Bytes() []byte { return e.Buf }

// StringAndReset returns the buffer as a string sharing the same
// backing array, then resets the buffer. The caller must not retain
// the returned string across a subsequent write to this Encoder.
func (e *Encoder) StringAndReset() (s string) {
	s = unsafe.String(unsafe.SliceData(e.Buf), len(e.Buf))
	e.Reset()
	return s
}

// Reply is anything encodable into one of the five RESP shapes this
// server emits.
type Reply interface {
	Encode(e *Encoder)
}

// SimpleStr is the "+OK"-style shape.
type SimpleStr string

func (s SimpleStr) Encode(e *Encoder) { e.WriteSimpleString(string(s)) }

// Err is the "-ERR ..." shape.
type Err struct{ Msg string }

func (er Err) Encode(e *Encoder) { e.WriteError(er.Msg) }

// Errorf builds an Err from a format string.
func Errorf(format string, a ...any) Err {
	return Err{Msg: fmt.Sprintf(format, a...)}
}

// Int is the ":<n>" shape.
type Int int64

func (i Int) Encode(e *Encoder) { e.WriteInteger(int64(i)) }

// Bulk is the "$<len>\r\n<data>\r\n" shape; a nil Value encodes the
// null bulk string "$-1\r\n".
type Bulk struct{ Value *string }

func (b Bulk) Encode(e *Encoder) {
	if b.Value == nil {
		e.WriteNullBulk()
		return
	}
	e.WriteBulkStr(*b.Value)
}

// BulkStr wraps a present value into a Bulk reply.
func BulkStr(s string) Bulk { return Bulk{Value: &s} }

// NullBulk is the absent/expired-key bulk string reply.
func NullBulk() Bulk { return Bulk{Value: nil} }

// Arr is the "*<len>..." shape. A nil Items slice encodes the null
// array "*-1\r\n"; an empty, non-nil slice encodes "*0\r\n" — the two
// are observably different replies (see BLPOP timeout vs. LRANGE on an
// absent key) so the distinction is load-bearing, not cosmetic.
type Arr struct{ Items []Reply }

func (a Arr) Encode(e *Encoder) {
	if a.Items == nil {
		e.WriteNullArray()
		return
	}
	e.WriteArrHeader(len(a.Items))
	for _, item := range a.Items {
		item.Encode(e)
	}
}

// NullArray is the "*-1\r\n" reply (e.g. BLPOP timeout).
func NullArray() Arr { return Arr{Items: nil} }

// EmptyArray is the "*0\r\n" reply.
func EmptyArray() Arr { return Arr{Items: []Reply{}} }

// BulkStrs builds an Arr of Bulk replies from plain strings, the common
// case for LRANGE/LPOP-shaped replies.
func BulkStrs(vals []string) Arr {
	items := make([]Reply, len(vals))
	for i, v := range vals {
		items[i] = BulkStr(v)
	}
	return Arr{Items: items}
}

// Encode is a convenience for one-shot encoding of a single Reply.
func Encode(r Reply) []byte {
	var e Encoder
	r.Encode(&e)
	return e.Buf
}
