//go:build darwin || freebsd || linux

package native

import "github.com/ebitengine/purego"

// dlopen resolves the library through the system loader, so bare sonames
// honour the platform search path (LD_LIBRARY_PATH, rpath, defaults).
func dlopen(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}
