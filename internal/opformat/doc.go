// Package opformat converts between the JSON that operators write and the
// CBOR that the formbd engine speaks.
//
// The engine's apply surface takes CBOR-encoded operations and returns CBOR
// result and provenance blobs. This package transcodes operation files from
// JSON to canonical CBOR on the way in, and renders engine blobs back to
// indented JSON on the way out. Text and raw blobs pass through untouched.
//
// JSON integers survive the round trip as CBOR integers; only values with a
// fractional part become floats.
package opformat
