//go:build cgo && (linux || darwin || windows)

package native

// #include "abi.h"
import "C"

import (
	"unsafe"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// defaultBlockChanges is the number of distinct parameters one block can
// carry when the setup does not say.
const defaultBlockChanges = 256

type processor struct {
	object

	block   *C.vh_block
	frames  int
	inputs  [][]float32 // main input bus, views into block memory
	outputs [][]float32 // main output bus, views into block memory
}

var _ vst3.IAudioProcessor = (*processor)(nil)

func (p *processor) Release() uint32 {
	n := p.object.Release()
	p.ReleaseBuffers()
	return n
}

func (p *processor) ReleaseBuffers() {
	if p.block != nil {
		C.vh_block_free(p.block)
		p.block = nil
		p.inputs = nil
		p.outputs = nil
	}
}

func (p *processor) SetBusArrangements(inputs, outputs []vst3.SpeakerArrangement) error {
	var in, out *C.uint64_t
	if len(inputs) > 0 {
		in = (*C.uint64_t)(unsafe.Pointer(&inputs[0]))
	}
	if len(outputs) > 0 {
		out = (*C.uint64_t)(unsafe.Pointer(&outputs[0]))
	}
	res := C.vh_processor_set_arrangements(p.ptr, in, C.int32_t(len(inputs)), out, C.int32_t(len(outputs)))
	return vst3.Result(res).Err()
}

func (p *processor) BusArrangement(dir vst3.BusDirection, index int32) (vst3.SpeakerArrangement, error) {
	var arr C.uint64_t
	if err := vst3.Result(C.vh_processor_arrangement(p.ptr, C.int32_t(dir), C.int32_t(index), &arr)).Err(); err != nil {
		return vst3.SpeakerArrEmpty, err
	}
	return vst3.SpeakerArrangement(arr), nil
}

func (p *processor) CanProcessSampleSize(size vst3.SymbolicSampleSize) error {
	return vst3.Result(C.vh_processor_can_process(p.ptr, C.int32_t(size))).Err()
}

func (p *processor) LatencySamples() uint32 {
	return uint32(C.vh_processor_latency(p.ptr))
}

func (p *processor) TailSamples() uint32 {
	return uint32(C.vh_processor_tail(p.ptr))
}

// SetupProcessing forwards setup and allocates the native process block:
// one buffer per channel of every bus, sized to MaxSamplesPerBlock.
func (p *processor) SetupProcessing(setup vst3.ProcessSetup, inputs, outputs []int32) error {
	res := C.vh_processor_setup(p.ptr,
		C.int32_t(setup.ProcessMode),
		C.int32_t(setup.SymbolicSampleSize),
		C.int32_t(setup.MaxSamplesPerBlock),
		C.double(setup.SampleRate))
	if err := vst3.Result(res).Err(); err != nil {
		return err
	}

	p.ReleaseBuffers()
	changes := setup.MaxParamChanges
	if changes <= 0 {
		changes = defaultBlockChanges
	}
	var in, out *C.int32_t
	if len(inputs) > 0 {
		in = (*C.int32_t)(unsafe.Pointer(&inputs[0]))
	}
	if len(outputs) > 0 {
		out = (*C.int32_t)(unsafe.Pointer(&outputs[0]))
	}
	block := C.vh_block_new(
		C.int32_t(len(inputs)), in,
		C.int32_t(len(outputs)), out,
		C.int32_t(setup.MaxSamplesPerBlock),
		C.double(setup.SampleRate),
		C.int32_t(changes))
	if block == nil {
		return vst3.ResultOutOfMemory
	}

	p.block = block
	p.frames = int(setup.MaxSamplesPerBlock)
	index := 0
	for bus, n := range inputs {
		for ch := int32(0); ch < n; ch++ {
			if bus == 0 {
				p.inputs = append(p.inputs, p.channel(index))
			}
			index++
		}
	}
	for bus, n := range outputs {
		for ch := int32(0); ch < n; ch++ {
			if bus == 0 {
				p.outputs = append(p.outputs, p.channel(index))
			}
			index++
		}
	}
	return nil
}

func (p *processor) channel(index int) []float32 {
	ptr := C.vh_block_channel(p.block, C.int32_t(index))
	return unsafe.Slice((*float32)(unsafe.Pointer(ptr)), p.frames)
}

func (p *processor) SetProcessing(state bool) error {
	return vst3.Result(C.vh_processor_set_processing(p.ptr, boolInt(state))).Err()
}

// Process copies the main bus inputs into native memory, runs the plugin
// and copies the main bus outputs back. It does not allocate.
func (p *processor) Process(data *vst3.ProcessData) vst3.Result {
	if p.block == nil {
		return vst3.ResultNotInitialized
	}
	n := int(data.NumSamples)
	if n < 0 || n > p.frames {
		return vst3.ResultInvalidArgument
	}

	for i, src := range data.Inputs {
		if i < len(p.inputs) {
			copy(p.inputs[i][:n], src[:n])
		}
	}

	C.vh_block_begin(p.block, C.int32_t(n), C.int64_t(data.ContinuousTime))
	data.DroppedChanges = 0
	for _, change := range data.ParamChanges {
		if C.vh_block_add_change(p.block, C.uint32_t(change.ID), C.double(change.Value)) == 0 {
			data.DroppedChanges++
		}
	}

	res := vst3.Result(C.vh_block_process(p.ptr, p.block))

	for i, dst := range data.Outputs {
		if i < len(p.outputs) {
			copy(dst[:n], p.outputs[i][:n])
		}
	}
	return res
}
