package native

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// EnvLibrary overrides library discovery with an explicit path to the
// engine shared object.
const EnvLibrary = "FORMBD_LIBRARY"

// ErrAlreadyLoaded is returned when Load is called with a different path
// after an engine library has been registered. The symbol table is
// process-global, so at most one library can be live.
var ErrAlreadyLoaded = errors.New("native: engine library already loaded")

// formbd_status_t is the raw C return type; kept private so only the
// typed Status leaves this file.
type formbd_status_t int32

// c_formbd_buffer_t mirrors the C out-parameter buffer descriptor:
//
//	typedef struct {
//	    const uint8_t *data;
//	    uint64_t       len;
//	    uint8_t        encoding;
//	} formbd_buffer_t;
type c_formbd_buffer_t struct {
	Data     uintptr // const uint8_t*
	Len      uint64
	Encoding uint8   // formbd_encoding_t
	_        [7]byte // padding to 8-byte alignment
}

func (c *c_formbd_buffer_t) buffer() Buffer {
	return Buffer{Data: c.Data, Len: c.Len, Enc: Encoding(c.Encoding)}
}

// C extern functions. Signatures use unsafe.Pointer/uintptr only; public
// Go types never appear here.
var (
	c_formbd_version func(
		major unsafe.Pointer, // uint32_t*
		minor unsafe.Pointer, // uint32_t*
		patch unsafe.Pointer, // uint32_t*
	)

	c_formbd_open func(
		path unsafe.Pointer, // const uint8_t*
		pathLen uint64,
		outDB unsafe.Pointer, // formbd_db_t**
		errBuf unsafe.Pointer, // formbd_buffer_t*
	) formbd_status_t

	c_formbd_close func(
		db uintptr, // formbd_db_t*
	) formbd_status_t

	c_formbd_txn_begin func(
		db uintptr, // formbd_db_t*
		mode uint32, // formbd_txn_mode_t
		outTxn unsafe.Pointer, // formbd_txn_t**
	) formbd_status_t

	c_formbd_txn_commit func(
		txn uintptr, // formbd_txn_t*
	) formbd_status_t

	c_formbd_txn_abort func(
		txn uintptr, // formbd_txn_t*
	) formbd_status_t

	c_formbd_apply func(
		txn uintptr, // formbd_txn_t*
		op unsafe.Pointer, // const uint8_t*
		opLen uint64,
		result unsafe.Pointer, // formbd_buffer_t*
		provenance unsafe.Pointer, // formbd_buffer_t*
		errBuf unsafe.Pointer, // formbd_buffer_t*
	) formbd_status_t

	c_formbd_schema func(
		db uintptr, // formbd_db_t*
		out unsafe.Pointer, // formbd_buffer_t*
	) formbd_status_t

	c_formbd_journal func(
		db uintptr, // formbd_db_t*
		since uint64,
		out unsafe.Pointer, // formbd_buffer_t*
	) formbd_status_t

	c_formbd_buf_free func(
		data uintptr, // const uint8_t*
		len uint64,
	)
)

func registerFuncs(handle uintptr) {
	purego.RegisterLibFunc(&c_formbd_version, handle, "formbd_version")
	purego.RegisterLibFunc(&c_formbd_open, handle, "formbd_open")
	purego.RegisterLibFunc(&c_formbd_close, handle, "formbd_close")
	purego.RegisterLibFunc(&c_formbd_txn_begin, handle, "formbd_txn_begin")
	purego.RegisterLibFunc(&c_formbd_txn_commit, handle, "formbd_txn_commit")
	purego.RegisterLibFunc(&c_formbd_txn_abort, handle, "formbd_txn_abort")
	purego.RegisterLibFunc(&c_formbd_apply, handle, "formbd_apply")
	purego.RegisterLibFunc(&c_formbd_schema, handle, "formbd_schema")
	purego.RegisterLibFunc(&c_formbd_journal, handle, "formbd_journal")
	purego.RegisterLibFunc(&c_formbd_buf_free, handle, "formbd_buf_free")
}

var (
	loadMu  sync.Mutex
	current *Library
)

// Library is the purego-backed API implementation bound to one loaded
// libformbd.
type Library struct {
	handle uintptr
	path   string
}

var _ API = (*Library)(nil)

// Load opens the shared library at path and registers the formbd symbol
// table. Calling Load again with the same path returns the existing
// Library; a different path fails with ErrAlreadyLoaded.
func Load(path string) (*Library, error) {
	loadMu.Lock()
	defer loadMu.Unlock()

	if current != nil {
		if current.path == path {
			return current, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrAlreadyLoaded, current.path)
	}

	handle, err := dlopen(path)
	if err != nil {
		return nil, fmt.Errorf("native: load %s: %w", path, err)
	}
	registerFuncs(handle)

	current = &Library{handle: handle, path: path}
	return current, nil
}

// Discover returns the already-loaded library if there is one, otherwise
// tries each candidate name in order and loads the first one the system
// loader resolves. Candidates come from FORMBD_LIBRARY when set, otherwise
// the platform soname searched on the default library path.
func Discover() (*Library, error) {
	if lib := Current(); lib != nil {
		return lib, nil
	}
	var errs []error
	for _, candidate := range Candidates() {
		lib, err := Load(candidate)
		if err == nil {
			return lib, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("native: no engine library found: %w", errors.Join(errs...))
}

// Current returns the loaded engine library, or nil before Load succeeds.
func Current() *Library {
	loadMu.Lock()
	defer loadMu.Unlock()
	return current
}

// Candidates returns the library names Discover will try, in order.
func Candidates() []string {
	if p := os.Getenv(EnvLibrary); p != "" {
		return []string{p}
	}
	switch runtime.GOOS {
	case "darwin":
		return []string{"libformbd.dylib"}
	case "windows":
		return []string{"formbd.dll"}
	default:
		return []string{"libformbd.so", "libformbd.so.1"}
	}
}

// Path returns the path or soname the library was loaded from.
func (l *Library) Path() string {
	return l.path
}

// Version implements API.
func (l *Library) Version() (uint32, uint32, uint32) {
	var major, minor, patch uint32
	c_formbd_version(unsafe.Pointer(&major), unsafe.Pointer(&minor), unsafe.Pointer(&patch))
	return major, minor, patch
}

// DBOpen implements API.
func (l *Library) DBOpen(path []byte) (uintptr, Buffer, Status) {
	var db uintptr
	var errBuf c_formbd_buffer_t
	var p unsafe.Pointer
	if len(path) > 0 {
		p = unsafe.Pointer(&path[0])
	}
	st := c_formbd_open(p, uint64(len(path)), unsafe.Pointer(&db), unsafe.Pointer(&errBuf))
	runtime.KeepAlive(path)
	return db, errBuf.buffer(), Status(st)
}

// DBClose implements API.
func (l *Library) DBClose(db uintptr) Status {
	return Status(c_formbd_close(db))
}

// TxnBegin implements API.
func (l *Library) TxnBegin(db uintptr, mode Mode) (uintptr, Status) {
	var txn uintptr
	st := c_formbd_txn_begin(db, uint32(mode), unsafe.Pointer(&txn))
	return txn, Status(st)
}

// TxnCommit implements API.
func (l *Library) TxnCommit(txn uintptr) Status {
	return Status(c_formbd_txn_commit(txn))
}

// TxnAbort implements API.
func (l *Library) TxnAbort(txn uintptr) Status {
	return Status(c_formbd_txn_abort(txn))
}

// Apply implements API.
func (l *Library) Apply(txn uintptr, op []byte) (Buffer, Buffer, Buffer, Status) {
	var result, provenance, errBuf c_formbd_buffer_t
	var p unsafe.Pointer
	if len(op) > 0 {
		p = unsafe.Pointer(&op[0])
	}
	st := c_formbd_apply(txn, p, uint64(len(op)),
		unsafe.Pointer(&result), unsafe.Pointer(&provenance), unsafe.Pointer(&errBuf))
	runtime.KeepAlive(op)
	return result.buffer(), provenance.buffer(), errBuf.buffer(), Status(st)
}

// Schema implements API.
func (l *Library) Schema(db uintptr) (Buffer, Status) {
	var out c_formbd_buffer_t
	st := c_formbd_schema(db, unsafe.Pointer(&out))
	return out.buffer(), Status(st)
}

// Journal implements API.
func (l *Library) Journal(db uintptr, since uint64) (Buffer, Status) {
	var out c_formbd_buffer_t
	st := c_formbd_journal(db, since, unsafe.Pointer(&out))
	return out.buffer(), Status(st)
}

// CopyOut implements API.
func (l *Library) CopyOut(b Buffer) []byte {
	return copyBytes(b.Data, b.Len)
}

// Release implements API.
func (l *Library) Release(b Buffer) {
	if b.IsZero() {
		return
	}
	c_formbd_buf_free(b.Data, b.Len)
}

func copyBytes(data uintptr, n uint64) []byte {
	if data == 0 || n == 0 {
		return nil
	}
	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(data)), n))
	return out
}
