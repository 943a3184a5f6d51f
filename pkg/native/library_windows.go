//go:build cgo

package native

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// library is a LoadLibrary handle.
type library struct {
	handle windows.Handle
}

func openLibrary(path string) (*library, error) {
	h, err := windows.LoadLibraryEx(path, 0, windows.LOAD_WITH_ALTERED_SEARCH_PATH)
	if err != nil {
		return nil, fmt.Errorf("LoadLibrary %s: %w", path, err)
	}
	return &library{handle: h}, nil
}

// symbol returns the address of name, or 0 when the module does not export it.
func (l *library) symbol(name string) uintptr {
	addr, err := windows.GetProcAddress(l.handle, name)
	if err != nil {
		return 0
	}
	return addr
}

func (l *library) close() error {
	if err := windows.FreeLibrary(l.handle); err != nil {
		return fmt.Errorf("FreeLibrary: %w", err)
	}
	return nil
}
