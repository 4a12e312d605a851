package formbd

import "github.com/hyperpolymath/formbd-go/internal/native"

// Encoding identifies how the engine declared a payload to be encoded. The
// bridge passes the tag through without interpreting the payload.
type Encoding uint8

const (
	// EncodingRaw marks an uninterpreted octet payload.
	EncodingRaw Encoding = Encoding(native.EncodingRaw)

	// EncodingCBOR marks a CBOR document, the engine's usual payload
	// encoding.
	EncodingCBOR Encoding = Encoding(native.EncodingCBOR)

	// EncodingText marks UTF-8 text, used by diagnostics and journal
	// renderings.
	EncodingText Encoding = Encoding(native.EncodingText)
)

func (e Encoding) String() string {
	switch e {
	case EncodingRaw:
		return "raw"
	case EncodingCBOR:
		return "cbor"
	case EncodingText:
		return "text"
	default:
		return "unknown"
	}
}

// Blob is a caller-owned payload adopted from the engine, paired with the
// encoding the engine declared for it.
type Blob struct {
	Bytes    []byte
	Encoding Encoding
}

// IsZero reports whether the blob is absent (the engine returned no
// buffer). A present-but-empty payload is not zero.
func (b Blob) IsZero() bool {
	return b.Bytes == nil
}

// adopt copies a native buffer into Go-owned memory and releases the native
// allocation. The release is deferred, so it runs on every exit path, and a
// zero descriptor maps to nil rather than an error. Together with adoptBlob
// this is the only code in the module allowed to consume a native buffer;
// descriptors must never outlive the call that produced them.
func adopt(api native.API, b native.Buffer) []byte {
	if b.IsZero() {
		return nil
	}
	defer api.Release(b)
	return api.CopyOut(b)
}

// adoptBlob is adopt plus the encoding tag. A present-but-empty buffer
// adopts to an empty, non-nil payload so absence stays observable.
func adoptBlob(api native.API, b native.Buffer) Blob {
	if b.IsZero() {
		return Blob{}
	}
	defer api.Release(b)
	out := api.CopyOut(b)
	if out == nil {
		out = []byte{}
	}
	return Blob{Bytes: out, Encoding: Encoding(b.Enc)}
}

// releaseAll frees descriptors that will not be adopted, keeping the
// release-exactly-once contract on paths that discard payloads.
func releaseAll(api native.API, bufs ...native.Buffer) {
	for _, b := range bufs {
		if !b.IsZero() {
			api.Release(b)
		}
	}
}
