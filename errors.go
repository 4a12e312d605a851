package formbd

import (
	"errors"
	"fmt"
)

// Closed error taxonomy for the bridge. Every engine status translates onto
// exactly one of these sentinels, and the bridge-side validation errors are
// drawn from the same set; no other error kinds exist. Match with errors.Is.
var (
	// ErrDBNotFound is returned when the engine cannot find a database at
	// the given path.
	ErrDBNotFound = errors.New("formbd: database not found")

	// ErrDBAlreadyOpen is returned when the engine refuses to open a
	// database that is already held open exclusively.
	ErrDBAlreadyOpen = errors.New("formbd: database already open")

	// ErrDBCorrupted is returned when the engine rejects a database file
	// as corrupted.
	ErrDBCorrupted = errors.New("formbd: database corrupted")

	// ErrDBClosed is returned by operations against a DB handle that has
	// been closed or reclaimed. Produced bridge-side, without an engine
	// call.
	ErrDBClosed = errors.New("formbd: database closed")

	// ErrTxnClosed is returned by operations against a transaction that is
	// no longer active (committed, aborted, or reclaimed). Produced
	// bridge-side for terminal handles and by the engine for transactions
	// it no longer recognises.
	ErrTxnClosed = errors.New("formbd: transaction not active")

	// ErrTxnAlreadyCommitted is returned by the engine when a transaction
	// was already committed on its side.
	ErrTxnAlreadyCommitted = errors.New("formbd: transaction already committed")

	// ErrDocNotFound is returned when an operation references a document
	// that does not exist.
	ErrDocNotFound = errors.New("formbd: document not found")

	// ErrCollectionNotFound is returned when an operation references a
	// collection that does not exist.
	ErrCollectionNotFound = errors.New("formbd: collection not found")

	// ErrSchemaViolation is returned when an operation's payload violates
	// the collection schema.
	ErrSchemaViolation = errors.New("formbd: schema violation")

	// ErrInternal is returned for engine failures with no more specific
	// kind, including status codes this bridge does not recognise.
	ErrInternal = errors.New("formbd: internal engine error")

	// ErrOutOfMemory is returned when the engine reports memory
	// exhaustion.
	ErrOutOfMemory = errors.New("formbd: engine out of memory")

	// ErrInvalidArgument is returned when the engine rejects a call
	// argument.
	ErrInvalidArgument = errors.New("formbd: invalid argument")

	// ErrNotImplemented is returned when the engine does not support the
	// requested operation.
	ErrNotImplemented = errors.New("formbd: not implemented")

	// ErrBadArgument is returned for malformed calls caught on the Go
	// side before reaching the engine: empty paths, unknown mode tags.
	ErrBadArgument = errors.New("formbd: bad argument")

	// ErrAllocationFailed is the taxonomy kind for bridge-side allocation
	// failure. The Go bridge never produces it (allocation failure is not
	// observable as a value here); it exists so the taxonomy matches the
	// engine's host-facing contract.
	ErrAllocationFailed = errors.New("formbd: allocation failed")
)

// Error couples a taxonomy sentinel with an optional engine diagnostic
// payload. The bridge returns a bare sentinel when the engine attached no
// diagnostic, so callers should match kinds with errors.Is and read
// diagnostics with Detail.
type Error struct {
	kind   error
	detail []byte
}

func (e *Error) Error() string {
	if len(e.detail) == 0 {
		return e.kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.kind.Error(), e.detail)
}

// Unwrap exposes the taxonomy sentinel for errors.Is matching.
func (e *Error) Unwrap() error {
	return e.kind
}

// Detail returns the engine diagnostic bytes attached to the error, or nil.
func (e *Error) Detail() []byte {
	return e.detail
}

// Detail extracts the engine diagnostic attached to err, if any. Diagnostic
// payloads are best-effort: most errors carry none.
func Detail(err error) []byte {
	var e *Error
	if errors.As(err, &e) {
		return e.detail
	}
	return nil
}

// newError attaches diagnostic detail to a taxonomy sentinel. With no
// detail the sentinel itself is returned.
func newError(kind error, detail []byte) error {
	if kind == nil {
		return nil
	}
	if len(detail) == 0 {
		return kind
	}
	return &Error{kind: kind, detail: detail}
}
