//go:build cgo && (linux || darwin || windows)

package native

// #include "abi.h"
import "C"

import (
	"errors"
	"sync/atomic"
	"unsafe"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// object holds one reference to a native FUnknown. Release gives it back
// exactly once no matter how often it is called.
type object struct {
	ptr      unsafe.Pointer
	released atomic.Bool
}

func (o *object) Release() uint32 {
	if o.ptr == nil || !o.released.CompareAndSwap(false, true) {
		return 0
	}
	return uint32(C.vh_release(o.ptr))
}

func (o *object) query(iid vst3.TUID) (unsafe.Pointer, error) {
	if o.released.Load() {
		return nil, vst3.ResultNotInitialized
	}
	var out unsafe.Pointer
	if err := vst3.Result(C.vh_query(o.ptr, tuid(&iid), &out)).Err(); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, vst3.ResultNoInterface
	}
	return out, nil
}

// QueryInterface wraps the returned pointer in the matching Go type.
func (o *object) QueryInterface(iid vst3.TUID) (vst3.Unknown, error) {
	ptr, err := o.query(iid)
	if err != nil {
		return nil, err
	}
	switch iid {
	case vst3.IIDIAudioProcessor:
		return &processor{object: object{ptr: ptr}}, nil
	case vst3.IIDIEditController:
		return &controller{object: object{ptr: ptr}}, nil
	case vst3.IIDIConnectionPoint:
		return &connectionPoint{object: object{ptr: ptr}}, nil
	case vst3.IIDIComponent:
		return &component{object: object{ptr: ptr}}, nil
	default:
		return &object{ptr: ptr}, nil
	}
}

func (o *object) Initialize() error {
	return vst3.Result(C.vh_base_initialize(o.ptr, C.vh_host_application())).Err()
}

func (o *object) Terminate() error {
	return vst3.Result(C.vh_base_terminate(o.ptr)).Err()
}

func tuid(id *vst3.TUID) *C.char {
	return (*C.char)(unsafe.Pointer(&id[0]))
}

func boolInt(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

func charString(p *C.char, n int) string {
	return cString(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}

func char16String(p *C.uint16_t, n int) string {
	return string128(unsafe.Slice((*uint16)(unsafe.Pointer(p)), n))
}

// newStream copies b into a fresh memory IBStream.
func newStream(b []byte) (*C.vh_stream, error) {
	var data unsafe.Pointer
	if len(b) > 0 {
		data = unsafe.Pointer(&b[0])
	}
	s := C.vh_stream_new(data, C.int64_t(len(b)))
	if s == nil {
		return nil, vst3.ResultOutOfMemory
	}
	return s, nil
}

// withState passes a stream holding b to call.
func withState(b []byte, call func(stream unsafe.Pointer) C.int32_t) error {
	s, err := newStream(b)
	if err != nil {
		return err
	}
	defer C.vh_stream_free(s)
	return vst3.Result(call(unsafe.Pointer(s))).Err()
}

// readState returns what call writes into an empty stream.
func readState(call func(stream unsafe.Pointer) C.int32_t) ([]byte, error) {
	s, err := newStream(nil)
	if err != nil {
		return nil, err
	}
	defer C.vh_stream_free(s)
	if err := vst3.Result(call(unsafe.Pointer(s))).Err(); err != nil {
		return nil, err
	}
	size := C.vh_stream_size(s)
	if size == 0 {
		return []byte{}, nil
	}
	return C.GoBytes(C.vh_stream_data(s), C.int(size)), nil
}

var errForeignObject = errors.New("connection point was not created by this loader")
