// Package native is the only package that touches the formbd C ABI.
//
// It loads libformbd with purego, registers the formbd_* symbols, and exposes
// them through the API interface. Everything above this package works with
// plain Go values; raw pointers, unsafe conversions, and the mirrored C
// struct layouts never escape it.
//
// # Key Responsibilities
//
//   - Locate and load the engine shared library (dlopen on unix,
//     LoadLibrary on Windows)
//   - Register the formbd_* symbol table
//   - Mirror the C buffer descriptor and status/mode/encoding enumerations
//   - Copy native buffer payloads into Go memory and release the native
//     allocation via formbd_buf_free
//
// # Ownership
//
// A Buffer describes memory owned by the engine. It is valid only until
// released; the caller must copy the payload out (CopyOut) and release the
// descriptor (Release) before the producing call's result goes out of scope.
// The formbd package funnels every buffer through a single adoption helper
// that enforces this.
//
// # Thread Safety
//
// Load and Discover are safe for concurrent use and load at most one library
// per process. The registered call table is written once during Load; after
// that all API methods are plain blocking foreign calls with no state in this
// package.
package native
