// Package store implements the typed keyspace: string, list, and
// stream values behind a single mutex, with millisecond TTL expiry and
// FIFO-fair BLPOP wakeups.
package store

import "errors"

// ErrWrongType is returned whenever a command's type expectation on a
// key's value does not hold.
var ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

// Value is the closed sum type every keyspace entry holds. The
// unexported marker method keeps it closed to this package: StringValue,
// ListValue, and StreamValue are the only three variants, matching the
// "exactly one of" tagged union in the data model.
type Value interface {
	isValue()
}

// StringValue is an opaque byte string, represented as a Go string
// since Go strings are themselves immutable byte sequences.
type StringValue struct {
	Data string
}

func (*StringValue) isValue() {}

// TypeName returns the TYPE command's string for each variant.
func TypeName(v Value) string {
	switch v.(type) {
	case *StringValue:
		return "string"
	case *ListValue:
		return "list"
	case *StreamValue:
		return "stream"
	default:
		return "none"
	}
}
