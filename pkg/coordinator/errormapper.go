package coordinator

import (
	"errors"

	"github.com/atomixdata/atomix/pkg/rangeclient"
)

// mapRangeClientError implements C6, the error mapper: it translates a
// range-client error surfaced during prepare into the transaction-level
// error the caller sees. This replaces the original source's stub (a
// panic!; spec.md §9 Open Question) with the full mapping spec.md §6
// requires.
//
// A TransportError (the RPC never got an answer from the range server)
// and a ConflictError both map to TransactionAborted(PrepareFailed);
// ErrUnknownRange and any other error map to Internal. A panic inside a
// prepare task is recovered by the caller, not classified here.
func mapRangeClientError(err error) *Error {
	if err == nil {
		return nil
	}
	var transportErr *rangeclient.TransportError
	if errors.As(err, &transportErr) {
		return ErrTransactionAborted(AbortReasonPrepareFailed)
	}
	var conflictErr *rangeclient.ConflictError
	if errors.As(err, &conflictErr) {
		return ErrTransactionAborted(AbortReasonPrepareFailed)
	}
	if errors.Is(err, rangeclient.ErrUnknownRange) {
		// Routing bug, not a commit-time abort (spec.md §4.6).
		return ErrInternal(err)
	}
	return ErrInternal(err)
}
