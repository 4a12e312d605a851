package formbd

import "github.com/hyperpolymath/formbd-go/internal/native"

// LoadLibrary loads the engine shared library from an explicit path before
// any database is opened. Optional: Open and EngineVersion fall back to
// discovery via the FORMBD_LIBRARY environment variable and then the
// platform soname (libformbd.so, libformbd.dylib, formbd.dll) on the system
// library path.
//
// The symbol table is process-global, so at most one engine library can be
// loaded; a second LoadLibrary with a different path fails.
func LoadLibrary(path string) error {
	_, err := native.Load(path)
	return err
}

// engineAPI resolves the engine implementation for a call: an explicit
// path pins the library, otherwise the already-loaded library or discovery.
func engineAPI(path string) (native.API, error) {
	if path != "" {
		lib, err := native.Load(path)
		if err != nil {
			return nil, err
		}
		return lib, nil
	}
	lib, err := native.Discover()
	if err != nil {
		return nil, err
	}
	return lib, nil
}
