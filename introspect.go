package formbd

import "github.com/hyperpolymath/formbd-go/internal/native"

// Schema returns the engine's schema introspection document for the
// database, typically a CBOR payload. Requires a live handle; fails with
// ErrDBClosed, without an engine call, otherwise.
func (db *DB) Schema() (Blob, error) {
	h := db.shared.handle.Load()
	if h == 0 {
		return Blob{}, ErrDBClosed
	}

	db.shared.stats.nativeCalls.Add(1)
	out, status := db.shared.api.Schema(h)
	if status != native.StatusOK {
		// On failure the out-parameter may carry a diagnostic instead of
		// a document; adopting it keeps the release contract either way.
		detail := adopt(db.shared.api, out)
		db.shared.stats.bytesAdopted.Add(uint64(len(detail)))
		return Blob{}, newError(translate(status), detail)
	}

	b := adoptBlob(db.shared.api, out)
	db.shared.stats.bytesAdopted.Add(uint64(len(b.Bytes)))
	return b, nil
}

// Journal renders the database's change journal starting at sequence
// number since. Same contract as Schema; neither call participates in the
// transaction state machine.
func (db *DB) Journal(since uint64) (Blob, error) {
	h := db.shared.handle.Load()
	if h == 0 {
		return Blob{}, ErrDBClosed
	}

	db.shared.stats.nativeCalls.Add(1)
	out, status := db.shared.api.Journal(h, since)
	if status != native.StatusOK {
		detail := adopt(db.shared.api, out)
		db.shared.stats.bytesAdopted.Add(uint64(len(detail)))
		return Blob{}, newError(translate(status), detail)
	}

	b := adoptBlob(db.shared.api, out)
	db.shared.stats.bytesAdopted.Add(uint64(len(b.Bytes)))
	return b, nil
}
