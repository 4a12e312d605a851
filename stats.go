package formbd

import "sync/atomic"

// stats holds a database handle's counters. It lives on the shared state
// record, so transaction cleanups can record against it without keeping the
// owning DB reachable.
type stats struct {
	nativeCalls   atomic.Uint64
	txnsBegun     atomic.Uint64
	txnsCommitted atomic.Uint64
	txnsAborted   atomic.Uint64
	opsApplied    atomic.Uint64
	bytesAdopted  atomic.Uint64
	dbReclaims    atomic.Uint64
	txnReclaims   atomic.Uint64
}

// DBStats is a point-in-time snapshot of a database handle's counters.
type DBStats struct {
	// NativeCalls counts every call dispatched to the engine, including
	// failed ones.
	NativeCalls uint64

	// TxnsBegun, TxnsCommitted, TxnsAborted count transaction lifecycle
	// events. Aborted includes GC-reclaimed transactions.
	TxnsBegun     uint64
	TxnsCommitted uint64
	TxnsAborted   uint64

	// OpsApplied counts successful Apply calls.
	OpsApplied uint64

	// BytesAdopted is the total payload volume copied out of engine
	// buffers (results, provenance, schema, journal, diagnostics).
	BytesAdopted uint64

	// DBReclaims and TxnReclaims count handles released by the garbage
	// collector instead of an explicit call. Non-zero values indicate
	// missing Close/Commit/Abort calls somewhere.
	DBReclaims  uint64
	TxnReclaims uint64
}

func (s *stats) snapshot() DBStats {
	return DBStats{
		NativeCalls:   s.nativeCalls.Load(),
		TxnsBegun:     s.txnsBegun.Load(),
		TxnsCommitted: s.txnsCommitted.Load(),
		TxnsAborted:   s.txnsAborted.Load(),
		OpsApplied:    s.opsApplied.Load(),
		BytesAdopted:  s.bytesAdopted.Load(),
		DBReclaims:    s.dbReclaims.Load(),
		TxnReclaims:   s.txnReclaims.Load(),
	}
}
