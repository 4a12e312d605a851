package formbd

import "github.com/hyperpolymath/formbd-go/internal/native"

// translate maps an engine status onto the closed error taxonomy. Total
// over the status domain: codes this bridge does not recognise map to
// ErrInternal, so a newer engine can never produce an untagged failure.
// Pure and side-effect free.
func translate(st native.Status) error {
	switch st {
	case native.StatusOK:
		return nil
	case native.StatusDBNotFound:
		return ErrDBNotFound
	case native.StatusDBAlreadyOpen:
		return ErrDBAlreadyOpen
	case native.StatusDBCorrupted:
		return ErrDBCorrupted
	case native.StatusTxnNotActive:
		return ErrTxnClosed
	case native.StatusTxnAlreadyCommitted:
		return ErrTxnAlreadyCommitted
	case native.StatusDocNotFound:
		return ErrDocNotFound
	case native.StatusCollectionNotFound:
		return ErrCollectionNotFound
	case native.StatusSchemaViolation:
		return ErrSchemaViolation
	case native.StatusInternal:
		return ErrInternal
	case native.StatusOutOfMemory:
		return ErrOutOfMemory
	case native.StatusInvalidArgument:
		return ErrInvalidArgument
	case native.StatusNotImplemented:
		return ErrNotImplemented
	default:
		return ErrInternal
	}
}
