//go:build cgo && (linux || darwin || windows)

package nativetest

// #cgo CFLAGS: -I${SRCDIR}/..
// #include "fake.h"
import "C"

import "github.com/justyntemme/vst3host/pkg/vst3"

// GainParamID is the id of the plugin's only parameter. Its plain value is
// twice the normalized one.
const GainParamID vst3.ParamID = 7

var (
	// GainCID is the audio module class.
	GainCID = vst3.InlineUID(0x6E745F67, 0x61696E00, 0x00000000, 0x00000001)
	// GainControllerCID is listed by the factory as a controller class.
	GainControllerCID = vst3.InlineUID(0x6E745F67, 0x61696E00, 0x00000000, 0x00000002)
)

// Counters is what the plugin observed since the last Reset. ChangeQueues
// counts the parameter queues of the last block and AuxPeak is the largest
// sidechain sample that block saw.
type Counters struct {
	Live            int
	Created         int
	FactoryRefs     int
	Initialized     int
	Active          bool
	Processing      bool
	Blocks          int
	ChangeQueues    int
	LastChange      vst3.ParamChange
	AuxPeak         float64
	LastTime        int64
	MaxBlock        int32
	SampleRate      float64
	InputBusActive  bool
	OutputBusActive bool
}

// Entry returns the address of the plugin's GetPluginFactory.
func Entry() uintptr {
	return uintptr(C.nt_entry())
}

// Reset clears the counters. With factory2 false the factory does not
// offer IPluginFactory2.
func Reset(factory2 bool) {
	v := C.int(0)
	if factory2 {
		v = 1
	}
	C.nt_reset(v)
}

// Read returns the current counters.
func Read() Counters {
	c := C.nt_read()
	return Counters{
		Live:         int(c.live),
		Created:      int(c.created),
		FactoryRefs:  int(c.factoryRefs),
		Initialized:  int(c.initialized),
		Active:       c.active != 0,
		Processing:   c.processing != 0,
		Blocks:       int(c.blocks),
		ChangeQueues: int(c.changeQueues),
		LastChange: vst3.ParamChange{
			ID:    vst3.ParamID(c.lastChangeId),
			Value: float64(c.lastChangeValue),
		},
		AuxPeak:         float64(c.auxPeak),
		LastTime:        int64(c.lastTime),
		MaxBlock:        int32(c.maxBlock),
		SampleRate:      float64(c.sampleRate),
		InputBusActive:  c.busActive[0] != 0,
		OutputBusActive: c.busActive[1] != 0,
	}
}
