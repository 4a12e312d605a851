package formbd

import "github.com/hyperpolymath/formbd-go/internal/native"

// ApplyResult carries the payloads of a successful Apply.
type ApplyResult struct {
	// Result is the operation's primary payload.
	Result Blob

	// Provenance optionally carries lineage metadata the engine recorded
	// for the operation. IsZero reports absence.
	Provenance Blob
}

// Apply executes one encoded operation inside the transaction.
//
// The operation payload is forwarded to the engine unmodified; its grammar
// is owned by the engine, not this bridge. Fails with ErrTxnClosed, before
// any engine call, when the transaction is not active. Engine failures come
// back as taxonomy errors with any diagnostic attached (see Detail); a
// failed Apply leaves the transaction active and usable.
func (t *Txn) Apply(op []byte) (ApplyResult, error) {
	h := t.shared.handle.Load()
	if h == 0 {
		return ApplyResult{}, ErrTxnClosed
	}

	shared := t.shared
	shared.stats.nativeCalls.Add(1)
	result, provenance, diag, status := shared.api.Apply(h, op)
	if status != native.StatusOK {
		// The failure path owns whatever buffers the engine filled.
		releaseAll(shared.api, result, provenance)
		detail := adopt(shared.api, diag)
		shared.stats.bytesAdopted.Add(uint64(len(detail)))
		return ApplyResult{}, newError(translate(status), detail)
	}
	releaseAll(shared.api, diag)

	out := ApplyResult{
		Result:     adoptBlob(shared.api, result),
		Provenance: adoptBlob(shared.api, provenance),
	}
	shared.stats.opsApplied.Add(1)
	shared.stats.bytesAdopted.Add(uint64(len(out.Result.Bytes)) + uint64(len(out.Provenance.Bytes)))
	return out, nil
}
