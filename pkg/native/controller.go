//go:build cgo && (linux || darwin || windows)

package native

// #include "abi.h"
import "C"

import (
	"unsafe"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

type controller struct {
	object
}

var _ vst3.IEditController = (*controller)(nil)

func (c *controller) SetComponentState(state []byte) error {
	return withState(state, func(stream unsafe.Pointer) C.int32_t {
		return C.vh_controller_set_component_state(c.ptr, stream)
	})
}

func (c *controller) ParameterCount() int32 {
	return int32(C.vh_controller_parameter_count(c.ptr))
}

func (c *controller) ParameterInfo(index int32) (vst3.ParameterInfo, error) {
	var info C.vh_parameter_info
	if err := vst3.Result(C.vh_controller_parameter_info(c.ptr, C.int32_t(index), &info)).Err(); err != nil {
		return vst3.ParameterInfo{}, err
	}
	return vst3.ParameterInfo{
		ID:                vst3.ParamID(info.id),
		Title:             char16String(&info.title[0], len(info.title)),
		ShortTitle:        char16String(&info.shortTitle[0], len(info.shortTitle)),
		Units:             char16String(&info.units[0], len(info.units)),
		StepCount:         int32(info.stepCount),
		DefaultNormalized: float64(info.defaultNormalizedValue),
		UnitID:            int32(info.unitId),
		Flags:             int32(info.flags),
	}, nil
}

func (c *controller) ParamStringByValue(id vst3.ParamID, normalized float64) (string, error) {
	var buf [128]C.uint16_t
	res := C.vh_controller_string_by_value(c.ptr, C.uint32_t(id), C.double(normalized), &buf[0])
	if err := vst3.Result(res).Err(); err != nil {
		return "", err
	}
	return char16String(&buf[0], len(buf)), nil
}

func (c *controller) NormalizedParamToPlain(id vst3.ParamID, normalized float64) float64 {
	return float64(C.vh_controller_to_plain(c.ptr, C.uint32_t(id), C.double(normalized)))
}

func (c *controller) PlainParamToNormalized(id vst3.ParamID, plain float64) float64 {
	return float64(C.vh_controller_to_normalized(c.ptr, C.uint32_t(id), C.double(plain)))
}

func (c *controller) ParamNormalized(id vst3.ParamID) float64 {
	return float64(C.vh_controller_get_normalized(c.ptr, C.uint32_t(id)))
}

func (c *controller) SetParamNormalized(id vst3.ParamID, normalized float64) error {
	return vst3.Result(C.vh_controller_set_normalized(c.ptr, C.uint32_t(id), C.double(normalized))).Err()
}
