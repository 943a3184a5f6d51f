//go:build cgo && (linux || darwin || windows)

package native

// #include "abi.h"
import "C"

import (
	"unsafe"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

type component struct {
	object
}

var _ vst3.IComponent = (*component)(nil)

func (c *component) ControllerClassID() (vst3.TUID, error) {
	var cid vst3.TUID
	if err := vst3.Result(C.vh_component_controller_cid(c.ptr, tuid(&cid))).Err(); err != nil {
		return vst3.TUID{}, err
	}
	return cid, nil
}

func (c *component) SetIOMode(mode int32) error {
	return vst3.Result(C.vh_component_set_io_mode(c.ptr, C.int32_t(mode))).Err()
}

func (c *component) BusCount(mediaType vst3.MediaType, dir vst3.BusDirection) int32 {
	return int32(C.vh_component_bus_count(c.ptr, C.int32_t(mediaType), C.int32_t(dir)))
}

func (c *component) BusInfo(mediaType vst3.MediaType, dir vst3.BusDirection, index int32) (vst3.BusInfo, error) {
	var bus C.vh_bus_info
	res := C.vh_component_bus_info(c.ptr, C.int32_t(mediaType), C.int32_t(dir), C.int32_t(index), &bus)
	if err := vst3.Result(res).Err(); err != nil {
		return vst3.BusInfo{}, err
	}
	return vst3.BusInfo{
		MediaType:    vst3.MediaType(bus.mediaType),
		Direction:    vst3.BusDirection(bus.direction),
		ChannelCount: int32(bus.channelCount),
		Name:         char16String(&bus.name[0], len(bus.name)),
		BusType:      vst3.BusType(bus.busType),
		Flags:        uint32(bus.flags),
	}, nil
}

func (c *component) ActivateBus(mediaType vst3.MediaType, dir vst3.BusDirection, index int32, state bool) error {
	res := C.vh_component_activate_bus(c.ptr, C.int32_t(mediaType), C.int32_t(dir), C.int32_t(index), boolInt(state))
	return vst3.Result(res).Err()
}

func (c *component) SetActive(state bool) error {
	return vst3.Result(C.vh_component_set_active(c.ptr, boolInt(state))).Err()
}

func (c *component) SetState(state []byte) error {
	return withState(state, func(stream unsafe.Pointer) C.int32_t {
		return C.vh_component_set_state(c.ptr, stream)
	})
}

func (c *component) State() ([]byte, error) {
	return readState(func(stream unsafe.Pointer) C.int32_t {
		return C.vh_component_get_state(c.ptr, stream)
	})
}

type connectionPoint struct {
	object
}

var _ vst3.IConnectionPoint = (*connectionPoint)(nil)

func (c *connectionPoint) Connect(other vst3.IConnectionPoint) error {
	o, ok := other.(*connectionPoint)
	if !ok {
		return errForeignObject
	}
	return vst3.Result(C.vh_connection_connect(c.ptr, o.ptr)).Err()
}

func (c *connectionPoint) Disconnect(other vst3.IConnectionPoint) error {
	o, ok := other.(*connectionPoint)
	if !ok {
		return errForeignObject
	}
	return vst3.Result(C.vh_connection_disconnect(c.ptr, o.ptr)).Err()
}
