// Package command implements the per-connection command dispatcher:
// argument validation, invocation of the keyspace, and reply shaping.
package command

import "github.com/ambervale/respkv/internal/respkv/store"

// ArityError reports a command invoked with the wrong number or shape
// of arguments. Its message matches the "<CMD> cmd: <reason>" form
// every validation failure in this protocol uses.
type ArityError struct {
	Cmd    string
	Reason string
}

func (e *ArityError) Error() string { return e.Cmd + " cmd: " + e.Reason }

// ErrWrongType re-exports store.ErrWrongType so callers outside this
// package can check dispatcher-level errors without importing store
// directly.
var ErrWrongType = store.ErrWrongType

// DomainError re-exports store.DomainError for the same reason; it is
// returned by XADD/XRANGE/XREAD on an invalid stream ID.
type DomainError = store.DomainError
