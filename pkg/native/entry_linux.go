//go:build cgo

package native

// #include "abi.h"
import "C"

import "errors"

// enterModule runs ModuleEntry with the dlopen handle. Modules built before
// the entry point was mandatory may not export it.
func enterModule(lib *library, _ string) (func() error, error) {
	if entry := lib.symbol("ModuleEntry"); entry != 0 {
		if C.vh_call_entry(C.uintptr_t(entry), C.uintptr_t(lib.handle)) == 0 {
			return nil, errors.New("ModuleEntry returned false")
		}
	}
	exit := lib.symbol("ModuleExit")
	return func() error {
		if exit != 0 && C.vh_call_bool(C.uintptr_t(exit)) == 0 {
			return errors.New("ModuleExit returned false")
		}
		return nil
	}, nil
}
