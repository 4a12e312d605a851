package opformat

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	json "github.com/goccy/go-json"

	formbd "github.com/hyperpolymath/formbd-go"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("opformat: building CBOR encode mode: %v", err))
	}

	// Decode maps as map[string]any so the result is JSON-marshalable.
	// Non-string keys fail the decode, which is what we want: blobs that
	// cannot render as JSON should say so rather than render wrongly.
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("opformat: building CBOR decode mode: %v", err))
	}
}

// JSONToCBOR transcodes a single JSON document into canonical CBOR.
//
// Integral numbers are encoded as CBOR integers, everything else follows
// the natural JSON-to-CBOR mapping. Trailing content after the document
// is an error.
func JSONToCBOR(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	if dec.More() {
		return nil, errors.New("decoding json: trailing data after document")
	}

	out, err := encMode.Marshal(normalize(v))
	if err != nil {
		return nil, fmt.Errorf("encoding cbor: %w", err)
	}
	return out, nil
}

// CBORToJSON transcodes a CBOR document into compact JSON.
func CBORToJSON(data []byte) ([]byte, error) {
	var v any
	if err := decMode.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding cbor: %w", err)
	}

	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}
	return out, nil
}

// Render prepares an engine blob for display.
//
// CBOR blobs render as indented JSON. Text and raw blobs pass through
// unchanged, as do absent or empty blobs.
func Render(blob formbd.Blob) ([]byte, error) {
	return render(blob, true)
}

// RenderCompact is Render without indentation, for line-oriented output.
func RenderCompact(blob formbd.Blob) ([]byte, error) {
	return render(blob, false)
}

func render(blob formbd.Blob, indent bool) ([]byte, error) {
	if blob.Encoding != formbd.EncodingCBOR || len(blob.Bytes) == 0 {
		return blob.Bytes, nil
	}

	var v any
	if err := decMode.Unmarshal(blob.Bytes, &v); err != nil {
		return nil, fmt.Errorf("decoding cbor: %w", err)
	}

	var out []byte
	var err error
	if indent {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}
	return out, nil
}

// normalize rewrites json.Number values into int64 or float64 so the CBOR
// encoder picks the tighter integer representation where it can.
func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return string(t)
	case map[string]any:
		for k, vv := range t {
			t[k] = normalize(vv)
		}
		return t
	case []any:
		for i, vv := range t {
			t[i] = normalize(vv)
		}
		return t
	default:
		return v
	}
}
