package native

// Status mirrors the formbd_status_t enumeration returned by every engine
// call. The set is closed; codes the bridge does not recognise are treated
// as internal engine errors by the translation layer above.
type Status int32

const (
	StatusOK                  Status = 0  // FORMBD_OK
	StatusDBNotFound          Status = 1  // FORMBD_ERR_DB_NOT_FOUND
	StatusDBAlreadyOpen       Status = 2  // FORMBD_ERR_DB_ALREADY_OPEN
	StatusDBCorrupted         Status = 3  // FORMBD_ERR_DB_CORRUPTED
	StatusTxnNotActive        Status = 4  // FORMBD_ERR_TXN_NOT_ACTIVE
	StatusTxnAlreadyCommitted Status = 5  // FORMBD_ERR_TXN_ALREADY_COMMITTED
	StatusDocNotFound         Status = 6  // FORMBD_ERR_DOC_NOT_FOUND
	StatusCollectionNotFound  Status = 7  // FORMBD_ERR_COLLECTION_NOT_FOUND
	StatusSchemaViolation     Status = 8  // FORMBD_ERR_SCHEMA_VIOLATION
	StatusInternal            Status = 9  // FORMBD_ERR_INTERNAL
	StatusOutOfMemory         Status = 10 // FORMBD_ERR_OOM
	StatusInvalidArgument     Status = 11 // FORMBD_ERR_INVALID_ARGUMENT
	StatusNotImplemented      Status = 12 // FORMBD_ERR_NOT_IMPLEMENTED
)

// Mode mirrors formbd_txn_mode_t.
type Mode uint32

const (
	ModeReadOnly  Mode = 0 // FORMBD_TXN_READ_ONLY
	ModeReadWrite Mode = 1 // FORMBD_TXN_READ_WRITE
)

// Encoding mirrors the formbd_encoding_t tag carried by buffer descriptors.
// The engine declares how a payload is encoded; the bridge passes the tag
// through without interpreting the payload.
type Encoding uint8

const (
	EncodingRaw  Encoding = 0 // FORMBD_ENC_RAW
	EncodingCBOR Encoding = 1 // FORMBD_ENC_CBOR
	EncodingText Encoding = 2 // FORMBD_ENC_TEXT
)

// Buffer describes an engine-owned byte payload returned through an
// out-parameter. The zero value means "no buffer" (the engine left the
// out-parameter empty). A non-zero Buffer must be released exactly once.
type Buffer struct {
	Data uintptr
	Len  uint64
	Enc  Encoding
}

// IsZero reports whether the descriptor carries no native allocation.
func (b Buffer) IsZero() bool {
	return b.Data == 0
}

// API is the engine call surface consumed by the formbd package. The real
// implementation is *Library; tests substitute in-memory fakes so the
// lifecycle and translation layers run without a shared object.
//
// Handle arguments are opaque tokens minted by the implementation. Every
// method is a blocking call with no cancellation; callers are expected to
// dispatch accordingly.
type API interface {
	// Version fills the engine's 3-component version.
	Version() (major, minor, patch uint32)

	// DBOpen opens the database at path (opaque bytes, typically a
	// filesystem path). On failure diag may carry an engine diagnostic
	// that the caller must release.
	DBOpen(path []byte) (db uintptr, diag Buffer, status Status)

	// DBClose releases a database handle.
	DBClose(db uintptr) Status

	// TxnBegin starts a transaction against an open database.
	TxnBegin(db uintptr, mode Mode) (txn uintptr, status Status)

	// TxnCommit commits a transaction. The native handle is consumed
	// whether or not the commit succeeds.
	TxnCommit(txn uintptr) Status

	// TxnAbort rolls back a transaction and consumes the handle.
	TxnAbort(txn uintptr) Status

	// Apply executes one encoded operation inside a transaction. On
	// success result (and optionally provenance) are set; on failure diag
	// may carry a diagnostic. All returned buffers must be released.
	Apply(txn uintptr, op []byte) (result, provenance, diag Buffer, status Status)

	// Schema returns the database schema document. On failure out may
	// still carry a diagnostic buffer; either way a non-zero out must be
	// released.
	Schema(db uintptr) (out Buffer, status Status)

	// Journal renders the change journal starting at sequence number
	// since. Same buffer contract as Schema.
	Journal(db uintptr, since uint64) (out Buffer, status Status)

	// CopyOut copies a buffer's payload into Go-owned memory. Returns nil
	// for a zero descriptor. Does not release the buffer.
	CopyOut(b Buffer) []byte

	// Release frees the native allocation behind b. No-op for a zero
	// descriptor. Must be called exactly once per non-zero Buffer.
	Release(b Buffer)
}
