// Package formbd provides Go bindings for the formbd document database
// engine.
//
// The engine is a native shared library (libformbd) exposing a C ABI; this
// package loads it at runtime, owns the native handles it hands out, and
// translates engine statuses into a closed set of sentinel errors. Operation
// payloads, schema documents, and journal renderings are opaque byte blobs
// whose encoding (typically CBOR) is declared by the engine and passed
// through untouched.
//
// # Resource Lifecycle
//
// Every DB and Txn owns exactly one native handle. Handles are released by
// the explicit call (Close, Commit, Abort) or, if the wrapper becomes
// unreachable while still live, by a cleanup registered with the garbage
// collector. The two paths race safely: an atomic claim guarantees exactly
// one of them performs the native release, and the loser is a no-op.
// Relying on the GC path works but is logged at Warn level; call Close and
// Commit/Abort explicitly.
//
// A Txn does not keep its DB reachable. Keep the database open for as long
// as its transactions are in use.
//
// # Transactions
//
// Begin returns an active transaction or an error, never an intermediate
// state. Commit consumes the transaction whether or not the engine reports
// success; a failed commit cannot be retried. Abort is best-effort cleanup:
// it never fails and is a no-op once the transaction has reached a terminal
// state. A failed Apply leaves the transaction active and usable.
//
// # Thread Safety
//
// DB methods are safe for concurrent use. Operations on a single Txn must
// be serialized by the caller; the engine's behaviour under concurrent calls
// to one transaction is undefined and the bridge does not add locking to
// hide that. Distinct transactions, including against the same DB, are
// independent.
//
// Every engine call is a blocking foreign call with no cancellation. The Go
// runtime parks such calls on their own OS threads, so a slow engine call
// does not stall unrelated goroutines.
//
// # Usage
//
//	db, err := formbd.Open("/var/lib/app/data.fdb", formbd.Config{})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	txn, err := db.Begin(formbd.TxnReadWrite)
//	if err != nil {
//	    return err
//	}
//	defer txn.Abort() // no-op if committed
//
//	out, err := txn.Apply(encodedOp)
//	if err != nil {
//	    return err
//	}
//	_ = out.Result.Bytes
//
//	return txn.Commit()
package formbd
