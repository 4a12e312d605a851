package formbd

import (
	"fmt"
	"sync"
	"testing"

	"github.com/hyperpolymath/formbd-go/internal/native"
)

// fakeEngine is an in-memory native.API double. Handles and buffer
// descriptors are opaque tokens backed by Go maps, so the lifecycle code
// runs without a shared object. Tests script failures per call and inspect
// allocation counters afterwards.
type fakeEngine struct {
	mu sync.Mutex

	nextToken uintptr
	dbs       map[uintptr]string      // live database handles, token → path
	txns      map[uintptr]native.Mode // live transaction handles
	buffers   map[uintptr][]byte      // live buffer allocations

	dbOpens      int
	dbCloses     int
	txnBegins    int
	txnCommits   int
	txnAborts    int
	applies      int
	schemaCalls  int
	journalCalls int

	// misuse records calls the bridge must never make: operating on
	// unknown handles or releasing a buffer twice.
	misuse []string

	// lastOp is the payload of the most recent successful Apply.
	lastOp []byte

	version      [3]uint32
	schemaDoc    []byte
	applyResult  []byte
	applyProv    []byte
	openFailures map[string]scriptedFailure
	nextApply    *scriptedFailure
	schemaFail   *scriptedFailure
	journalFail  *scriptedFailure
	beginStatus  native.Status
	commitStatus native.Status
	closeStatus  native.Status
}

type scriptedFailure struct {
	status native.Status
	diag   []byte
}

var _ native.API = (*fakeEngine)(nil)

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		nextToken:    1000,
		dbs:          make(map[uintptr]string),
		txns:         make(map[uintptr]native.Mode),
		buffers:      make(map[uintptr][]byte),
		openFailures: make(map[string]scriptedFailure),
		version:      [3]uint32{1, 4, 2},
		schemaDoc:    []byte(`{"collections":{}}`),
		applyResult:  []byte("applied"),
	}
}

func (f *fakeEngine) token() uintptr {
	f.nextToken++
	return f.nextToken
}

// newBufferLocked mints a live buffer allocation. nil payload means "no
// buffer": the engine left the out-parameter empty.
func (f *fakeEngine) newBufferLocked(payload []byte, enc native.Encoding) native.Buffer {
	if payload == nil {
		return native.Buffer{}
	}
	tok := f.token()
	f.buffers[tok] = append([]byte(nil), payload...)
	return native.Buffer{Data: tok, Len: uint64(len(payload)), Enc: enc}
}

// newBuffer is the test-facing variant for driving adopt directly.
func (f *fakeEngine) newBuffer(payload []byte, enc native.Encoding) native.Buffer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newBufferLocked(payload, enc)
}

func (f *fakeEngine) Version() (uint32, uint32, uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version[0], f.version[1], f.version[2]
}

func (f *fakeEngine) DBOpen(path []byte) (uintptr, native.Buffer, native.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dbOpens++
	if sf, ok := f.openFailures[string(path)]; ok {
		return 0, f.newBufferLocked(sf.diag, native.EncodingText), sf.status
	}
	h := f.token()
	f.dbs[h] = string(path)
	return h, native.Buffer{}, native.StatusOK
}

func (f *fakeEngine) DBClose(db uintptr) native.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dbCloses++
	if _, ok := f.dbs[db]; !ok {
		f.misuse = append(f.misuse, "DBClose on unknown handle")
		return native.StatusInternal
	}
	delete(f.dbs, db)
	return f.closeStatus
}

func (f *fakeEngine) TxnBegin(db uintptr, mode native.Mode) (uintptr, native.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txnBegins++
	if _, ok := f.dbs[db]; !ok {
		f.misuse = append(f.misuse, "TxnBegin on unknown db handle")
		return 0, native.StatusInternal
	}
	if f.beginStatus != native.StatusOK {
		return 0, f.beginStatus
	}
	h := f.token()
	f.txns[h] = mode
	return h, native.StatusOK
}

func (f *fakeEngine) TxnCommit(txn uintptr) native.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txnCommits++
	if _, ok := f.txns[txn]; !ok {
		f.misuse = append(f.misuse, "TxnCommit on unknown handle")
		return native.StatusInternal
	}
	delete(f.txns, txn)
	return f.commitStatus
}

func (f *fakeEngine) TxnAbort(txn uintptr) native.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txnAborts++
	if _, ok := f.txns[txn]; !ok {
		f.misuse = append(f.misuse, "TxnAbort on unknown handle")
		return native.StatusInternal
	}
	delete(f.txns, txn)
	return native.StatusOK
}

func (f *fakeEngine) Apply(txn uintptr, op []byte) (native.Buffer, native.Buffer, native.Buffer, native.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applies++
	if _, ok := f.txns[txn]; !ok {
		f.misuse = append(f.misuse, "Apply on unknown txn handle")
		return native.Buffer{}, native.Buffer{}, native.Buffer{}, native.StatusInternal
	}
	if sf := f.nextApply; sf != nil {
		f.nextApply = nil
		return native.Buffer{}, native.Buffer{}, f.newBufferLocked(sf.diag, native.EncodingText), sf.status
	}
	f.lastOp = append([]byte(nil), op...)
	result := f.newBufferLocked(f.applyResult, native.EncodingCBOR)
	prov := f.newBufferLocked(f.applyProv, native.EncodingCBOR)
	return result, prov, native.Buffer{}, native.StatusOK
}

func (f *fakeEngine) Schema(db uintptr) (native.Buffer, native.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schemaCalls++
	if _, ok := f.dbs[db]; !ok {
		f.misuse = append(f.misuse, "Schema on unknown db handle")
		return native.Buffer{}, native.StatusInternal
	}
	if sf := f.schemaFail; sf != nil {
		return f.newBufferLocked(sf.diag, native.EncodingText), sf.status
	}
	return f.newBufferLocked(f.schemaDoc, native.EncodingCBOR), native.StatusOK
}

func (f *fakeEngine) Journal(db uintptr, since uint64) (native.Buffer, native.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.journalCalls++
	if _, ok := f.dbs[db]; !ok {
		f.misuse = append(f.misuse, "Journal on unknown db handle")
		return native.Buffer{}, native.StatusInternal
	}
	if sf := f.journalFail; sf != nil {
		return f.newBufferLocked(sf.diag, native.EncodingText), sf.status
	}
	payload := fmt.Sprintf("journal since %d", since)
	return f.newBufferLocked([]byte(payload), native.EncodingText), native.StatusOK
}

func (f *fakeEngine) CopyOut(b native.Buffer) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.IsZero() {
		return nil
	}
	payload, ok := f.buffers[b.Data]
	if !ok {
		f.misuse = append(f.misuse, "CopyOut on released buffer")
		return nil
	}
	return append([]byte(nil), payload...)
}

func (f *fakeEngine) Release(b native.Buffer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.IsZero() {
		return
	}
	if _, ok := f.buffers[b.Data]; !ok {
		f.misuse = append(f.misuse, "double release of buffer")
		return
	}
	delete(f.buffers, b.Data)
}

// Scripting helpers.

func (f *fakeEngine) failOpen(path string, status native.Status, diag string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openFailures[path] = scriptedFailure{status: status, diag: diagBytes(diag)}
}

func (f *fakeEngine) failNextApply(status native.Status, diag string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextApply = &scriptedFailure{status: status, diag: diagBytes(diag)}
}

func (f *fakeEngine) failSchema(status native.Status, diag string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schemaFail = &scriptedFailure{status: status, diag: diagBytes(diag)}
}

func (f *fakeEngine) failJournal(status native.Status, diag string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.journalFail = &scriptedFailure{status: status, diag: diagBytes(diag)}
}

func (f *fakeEngine) failBegin(status native.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beginStatus = status
}

func (f *fakeEngine) failCommit(status native.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commitStatus = status
}

func (f *fakeEngine) failClose(status native.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeStatus = status
}

func (f *fakeEngine) setApplyPayloads(result, prov []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyResult = result
	f.applyProv = prov
}

// diagBytes keeps empty scripted diagnostics distinguishable from absent
// ones: "" means no diagnostic buffer at all.
func diagBytes(diag string) []byte {
	if diag == "" {
		return nil
	}
	return []byte(diag)
}

// Inspection helpers.

func (f *fakeEngine) liveBuffers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buffers)
}

func (f *fakeEngine) liveHandles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dbs) + len(f.txns)
}

func (f *fakeEngine) closeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dbCloses
}

func (f *fakeEngine) commitCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txnCommits
}

func (f *fakeEngine) abortCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txnAborts
}

func (f *fakeEngine) applyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applies
}

func (f *fakeEngine) beginCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txnBegins
}

func (f *fakeEngine) schemaCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.schemaCalls
}

func (f *fakeEngine) journalCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.journalCalls
}

func (f *fakeEngine) lastApplied() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.lastOp...)
}

// mustOpen opens a database against the fake engine, failing the test on
// error.
func mustOpen(t *testing.T, fe *fakeEngine, path string) *DB {
	t.Helper()
	db, err := openWith(fe, path, Config{})
	if err != nil {
		t.Fatalf("openWith(%q) error = %v", path, err)
	}
	return db
}

// mustBegin starts a transaction, failing the test on error.
func mustBegin(t *testing.T, db *DB, mode TxnMode) *Txn {
	t.Helper()
	txn, err := db.Begin(mode)
	if err != nil {
		t.Fatalf("Begin(%v) error = %v", mode, err)
	}
	return txn
}

// assertClean fails the test if the bridge misused the engine or leaked
// native resources. Call after every handle has been released.
func (f *fakeEngine) assertClean(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.misuse {
		t.Errorf("engine misuse: %s", m)
	}
	if n := len(f.buffers); n != 0 {
		t.Errorf("%d native buffers still allocated", n)
	}
	if n := len(f.dbs); n != 0 {
		t.Errorf("%d native database handles still allocated", n)
	}
	if n := len(f.txns); n != 0 {
		t.Errorf("%d native transaction handles still allocated", n)
	}
}
