//go:build cgo && (linux || darwin)

package native

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// library is a dlopen handle.
type library struct {
	handle uintptr
}

func openLibrary(path string) (*library, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("dlopen %s: %w", path, err)
	}
	return &library{handle: h}, nil
}

// symbol returns the address of name, or 0 when the module does not export it.
func (l *library) symbol(name string) uintptr {
	sym, err := purego.Dlsym(l.handle, name)
	if err != nil {
		return 0
	}
	return sym
}

func (l *library) close() error {
	if err := purego.Dlclose(l.handle); err != nil {
		return fmt.Errorf("dlclose: %w", err)
	}
	return nil
}
