package formbd

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/hyperpolymath/formbd-go/internal/native"
)

// TxnMode selects the access mode requested from the engine at Begin.
type TxnMode uint8

const (
	// TxnReadOnly requests a read-only transaction.
	TxnReadOnly TxnMode = iota

	// TxnReadWrite requests a read-write transaction.
	TxnReadWrite
)

func (m TxnMode) String() string {
	switch m {
	case TxnReadOnly:
		return "read_only"
	case TxnReadWrite:
		return "read_write"
	default:
		return "unknown"
	}
}

// TxnState identifies where a transaction is in its lifecycle.
type TxnState int32

const (
	// TxnStateActive is the initial state; the transaction accepts Apply,
	// Commit, and Abort.
	TxnStateActive TxnState = iota

	// TxnStateCommitted is terminal; entered by Commit whether or not the
	// engine reported success.
	TxnStateCommitted

	// TxnStateAborted is terminal; entered by Abort or by GC reclamation.
	TxnStateAborted
)

func (s TxnState) String() string {
	switch s {
	case TxnStateActive:
		return "active"
	case TxnStateCommitted:
		return "committed"
	case TxnStateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Txn owns exactly one native transaction handle.
//
// The state machine is Active → Committed | Aborted, both terminal. There
// is no observable intermediate state: Begin returns an active transaction
// or an error.
//
// Thread Safety: calls on a single Txn must be serialized by the caller.
// The engine's behaviour under concurrent calls to one transaction is
// undefined, and the bridge does not add locking to hide that. The only
// race the bridge resolves itself is explicit Commit/Abort against the GC
// cleanup, via the same atomic claim used by DB. Distinct transactions are
// independent.
type Txn struct {
	shared  *txnShared
	cleanup runtime.Cleanup
	mode    TxnMode
}

// txnShared is the state the GC cleanup may touch; it must not reference
// the *Txn or the *DB. Holding the stats record does not keep the DB
// reachable, so a leaked transaction cannot extend its database's lifetime.
type txnShared struct {
	// handle is non-zero iff the transaction is active. Swap(0) is the
	// exclusive claim shared by Commit, Abort, and the cleanup.
	handle atomic.Uintptr

	// state records which terminal state the claim winner chose. Advisory;
	// the claim itself decides liveness.
	state atomic.Int32

	api    native.API
	logger Logger
	stats  *stats
}

// Begin starts a transaction against the database.
//
// The liveness check runs on the wrapper's atomic state without an engine
// call, so Begin against a closed DB fails fast with ErrDBClosed. On engine
// failure no transaction exists. The DB reference is not retained by the
// returned Txn.
func (db *DB) Begin(mode TxnMode) (*Txn, error) {
	var nmode native.Mode
	switch mode {
	case TxnReadOnly:
		nmode = native.ModeReadOnly
	case TxnReadWrite:
		nmode = native.ModeReadWrite
	default:
		return nil, fmt.Errorf("%w: unknown transaction mode %d", ErrBadArgument, uint8(mode))
	}

	h := db.shared.handle.Load()
	if h == 0 {
		return nil, ErrDBClosed
	}

	shared := db.shared
	shared.stats.nativeCalls.Add(1)
	th, status := shared.api.TxnBegin(h, nmode)
	if status != native.StatusOK {
		return nil, translate(status)
	}

	ts := &txnShared{
		api:    shared.api,
		logger: shared.logger,
		stats:  shared.stats,
	}
	ts.handle.Store(th)

	txn := &Txn{shared: ts, mode: mode}
	txn.cleanup = runtime.AddCleanup(txn, reclaimTxn, ts)

	shared.stats.txnsBegun.Add(1)
	return txn, nil
}

// Commit commits the transaction.
//
// Fails with ErrTxnClosed, without an engine call, when the transaction is
// not active. Otherwise the transaction transitions to Committed whether or
// not the engine reports success: a native commit consumes the transaction
// either way, and retrying commit on the same native handle is not safe.
// The engine failure, if any, is returned.
func (t *Txn) Commit() error {
	h := t.shared.handle.Swap(0)
	if h == 0 {
		return ErrTxnClosed
	}
	t.cleanup.Stop()
	t.shared.state.Store(int32(TxnStateCommitted))
	t.shared.stats.txnsCommitted.Add(1)

	t.shared.stats.nativeCalls.Add(1)
	if status := t.shared.api.TxnCommit(h); status != native.StatusOK {
		return translate(status)
	}
	return nil
}

// Abort rolls the transaction back. Best-effort cleanup: a no-op when the
// transaction is not active, and engine failures are logged rather than
// returned. Safe to defer alongside a Commit.
func (t *Txn) Abort() {
	h := t.shared.handle.Swap(0)
	if h == 0 {
		return
	}
	t.cleanup.Stop()
	t.shared.state.Store(int32(TxnStateAborted))
	t.shared.stats.txnsAborted.Add(1)

	t.shared.stats.nativeCalls.Add(1)
	if status := t.shared.api.TxnAbort(h); status != native.StatusOK {
		t.shared.logger.Warn("formbd: native abort failed", "status", int32(status))
	}
}

// reclaimTxn is the GC cleanup for transactions still active when they
// became unreachable. Equivalent to Abort; the claim makes it first-
// observer-wins against explicit Commit/Abort.
func reclaimTxn(s *txnShared) {
	h := s.handle.Swap(0)
	if h == 0 {
		return
	}
	s.state.Store(int32(TxnStateAborted))
	s.stats.txnReclaims.Add(1)
	s.stats.txnsAborted.Add(1)

	s.stats.nativeCalls.Add(1)
	if status := s.api.TxnAbort(h); status != native.StatusOK {
		s.logger.Error("formbd: native abort failed during GC reclaim", "status", int32(status))
		return
	}
	s.logger.Warn("formbd: transaction reclaimed by GC while still active")
}

// Mode returns the mode the transaction was begun with.
func (t *Txn) Mode() TxnMode {
	return t.mode
}

// Active reports whether the transaction still accepts operations.
func (t *Txn) Active() bool {
	return t.shared.handle.Load() != 0
}

// State returns the transaction's lifecycle state.
func (t *Txn) State() TxnState {
	if t.Active() {
		return TxnStateActive
	}
	return TxnState(t.shared.state.Load())
}
