package formbd

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

// Resilience tests exercise the claim discipline under the race detector:
// explicit release and GC reclamation hitting the same handle concurrently
// must resolve to exactly one native release. The TestResilience_ prefix
// allows filtering:
//
//	go test -run TestResilience -race .

func TestResilience_CloseReclaimRace(t *testing.T) {
	for i := 0; i < 200; i++ {
		fe := newFakeEngine()
		db := mustOpen(t, fe, "/data/race.fdb")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := db.Close(); err != nil {
				t.Errorf("Close() error = %v, want success on both race arms", err)
			}
		}()
		go func() {
			defer wg.Done()
			reclaimDB(db.shared)
		}()
		wg.Wait()

		if n := fe.closeCalls(); n != 1 {
			t.Fatalf("native close calls = %d, want exactly 1", n)
		}
		fe.assertClean(t)
	}
}

func TestResilience_CommitReclaimRace(t *testing.T) {
	for i := 0; i < 200; i++ {
		fe := newFakeEngine()
		db := mustOpen(t, fe, "/data/race.fdb")
		txn := mustBegin(t, db, TxnReadWrite)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			// Losing the claim to the reclaim arm surfaces as ErrTxnClosed,
			// which is the first-observer contract, not a failure.
			_ = txn.Commit()
		}()
		go func() {
			defer wg.Done()
			reclaimTxn(txn.shared)
		}()
		wg.Wait()

		if total := fe.commitCalls() + fe.abortCalls(); total != 1 {
			t.Fatalf("native commit+abort calls = %d, want exactly 1", total)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		fe.assertClean(t)
	}
}

func TestResilience_ConcurrentClose(t *testing.T) {
	fe := newFakeEngine()
	db := mustOpen(t, fe, "/data/app.fdb")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := db.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if n := fe.closeCalls(); n != 1 {
		t.Errorf("native close calls = %d, want exactly 1", n)
	}
	fe.assertClean(t)
}

// TestResilience_GCReclaimsLeakedDB leaks a live handle and waits for the
// garbage collector to run its cleanup.
func TestResilience_GCReclaimsLeakedDB(t *testing.T) {
	fe := newFakeEngine()
	leakDB(t, fe)

	waitForCondition(t, 5*time.Second, func() bool { return fe.closeCalls() == 1 },
		"cleanup did not release the leaked database handle")
	fe.assertClean(t)
}

func TestResilience_GCReclaimsLeakedTxn(t *testing.T) {
	fe := newFakeEngine()
	db := mustOpen(t, fe, "/data/app.fdb")
	leakTxn(t, db)

	waitForCondition(t, 5*time.Second, func() bool { return fe.abortCalls() == 1 },
		"cleanup did not abort the leaked transaction")

	if got := db.Stats(); got.TxnReclaims != 1 || got.TxnsAborted != 1 {
		t.Errorf("reclaim stats = %d reclaims / %d aborts, want 1/1",
			got.TxnReclaims, got.TxnsAborted)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	fe.assertClean(t)
}

// leakDB opens a database and drops the only reference to it.
func leakDB(t *testing.T, fe *fakeEngine) {
	t.Helper()
	_ = mustOpen(t, fe, "/data/leaked.fdb")
}

// leakTxn begins a transaction and drops the only reference to it.
func leakTxn(t *testing.T, db *DB) {
	t.Helper()
	_ = mustBegin(t, db, TxnReadWrite)
}

// waitForCondition polls for cond while forcing GC cycles, failing the test
// at the deadline. Cleanups run asynchronously after collection, so a
// single runtime.GC() is not enough.
func waitForCondition(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
}
