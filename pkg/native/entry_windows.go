//go:build cgo

package native

// #include "abi.h"
import "C"

import "errors"

// enterModule runs the optional InitDll export.
func enterModule(lib *library, _ string) (func() error, error) {
	if entry := lib.symbol("InitDll"); entry != 0 {
		if C.vh_call_bool(C.uintptr_t(entry)) == 0 {
			return nil, errors.New("InitDll returned false")
		}
	}
	exit := lib.symbol("ExitDll")
	return func() error {
		if exit != 0 && C.vh_call_bool(C.uintptr_t(exit)) == 0 {
			return errors.New("ExitDll returned false")
		}
		return nil
	}, nil
}
