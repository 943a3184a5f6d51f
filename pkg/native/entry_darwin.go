//go:build cgo

package native

// #cgo LDFLAGS: -framework CoreFoundation
// #include <CoreFoundation/CoreFoundation.h>
// #include "abi.h"
//
// static inline void* vh_bundle_create(const char* path) {
//     CFURLRef url = CFURLCreateFromFileSystemRepresentation(kCFAllocatorDefault, (const UInt8*)path, (CFIndex)strlen(path), true);
//     CFBundleRef bundle;
//     if (!url) {
//         return NULL;
//     }
//     bundle = CFBundleCreate(kCFAllocatorDefault, url);
//     CFRelease(url);
//     return (void*)bundle;
// }
//
// static inline void vh_bundle_release(void* bundle) {
//     if (bundle) {
//         CFRelease((CFTypeRef)bundle);
//     }
// }
//
// static inline int vh_call_bundle_entry(uintptr_t fn, void* bundle) {
//     return ((uint8_t (*)(void*))fn)(bundle) != 0;
// }
import "C"

import (
	"errors"
	"path/filepath"
	"unsafe"
)

// enterModule runs bundleEntry with a CFBundleRef for the bundle that
// contains the module at Contents/MacOS/<name>.
func enterModule(lib *library, path string) (func() error, error) {
	entry := lib.symbol("bundleEntry")
	if entry == 0 {
		return nil, errors.New("module does not export bundleEntry")
	}

	root := filepath.Dir(filepath.Dir(filepath.Dir(path)))
	cpath := C.CString(root)
	defer C.free(unsafe.Pointer(cpath))

	bundle := C.vh_bundle_create(cpath)
	if bundle == nil {
		return nil, errors.New("CFBundleCreate failed for " + root)
	}
	if C.vh_call_bundle_entry(C.uintptr_t(entry), bundle) == 0 {
		C.vh_bundle_release(bundle)
		return nil, errors.New("bundleEntry returned false")
	}

	exit := lib.symbol("bundleExit")
	return func() error {
		defer C.vh_bundle_release(bundle)
		if exit != 0 && C.vh_call_bool(C.uintptr_t(exit)) == 0 {
			return errors.New("bundleExit returned false")
		}
		return nil
	}, nil
}
