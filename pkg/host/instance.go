package host

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// Errors returned by Process are allocated up front so the audio path never
// allocates.
var (
	processStateErrors = [...]*StateError{
		StateCreated:     {Op: "Process", State: StateCreated},
		StateInitialized: {Op: "Process", State: StateInitialized},
		StateProcessing:  {Op: "Process", State: StateProcessing},
		StateSuspended:   {Op: "Process", State: StateSuspended},
		StateTerminated:  {Op: "Process", State: StateTerminated},
	}

	errBufferShape = &ArgumentError{
		Op:     "Process",
		Arg:    "buffer",
		Reason: "shape does not match the negotiated channel count and block size",
	}
)

// PluginInstance is one loaded plugin. Control methods (Initialize,
// parameters, Suspend, Resume, Terminate) are safe for concurrent use.
// Process is meant for a single audio thread and must not run at the same
// time as Suspend, Resume or Terminate; draining the audio thread before
// those calls is the caller's job.
type PluginInstance struct {
	info    PluginInfo
	handle  *moduleHandle
	iface   *negotiated
	logger  *slog.Logger
	metrics *Metrics

	mu         sync.Mutex
	state      atomic.Int32
	paramCount int

	sampleRate  float64
	blockSize   int
	inChannels  int
	outChannels int
	latency     uint32

	// Changes reach the audio thread through params, or through latest
	// before Initialize and when params is full.
	params *paramQueue
	latest *paramSlots

	// Owned by the audio thread after Initialize.
	changes    []vst3.ParamChange
	data       vst3.ProcessData
	contTime   int64
	processErr ProcessError
}

func newInstance(info PluginInfo, handle *moduleHandle, iface *negotiated, o *options) *PluginInstance {
	p := &PluginInstance{
		info:    info,
		handle:  handle,
		iface:   iface,
		logger:  o.logger.With("plugin", info.Name),
		metrics: o.metrics,
		params:  newParamQueue(o.queueSize),
	}
	if iface.controller != nil {
		p.paramCount = max(int(iface.controller.ParameterCount()), 0)
	}
	p.latest = newParamSlots(p.paramCount)
	p.metrics.instanceCreated()
	runtime.SetFinalizer(p, func(p *PluginInstance) {
		if State(p.state.Load()) != StateTerminated {
			p.logger.Warn("plugin instance collected without Terminate; native resources leaked")
		}
	})
	return p
}

// Info returns the catalog entry the instance was loaded from.
func (p *PluginInstance) Info() PluginInfo {
	return p.info
}

// State returns the current lifecycle state.
func (p *PluginInstance) State() State {
	return State(p.state.Load())
}

// Capabilities returns the negotiated capability set.
func (p *PluginInstance) Capabilities() Capability {
	return p.iface.caps
}

// Categories returns the sub-category tags of the plugin class, sorted and
// without duplicates. A class without tags yields an empty slice.
func (p *PluginInstance) Categories() []string {
	return vst3.SplitSubCategories(p.info.SubCategories)
}

// Initialize prepares the plugin for processing blocks of blockSize frames
// at sampleRate. It is valid only once, from StateCreated.
func (p *PluginInstance) Initialize(sampleRate float64, blockSize int) error {
	if math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) || sampleRate <= 0 {
		return &ArgumentError{Op: "Initialize", Arg: "sample rate", Reason: fmt.Sprintf("%g is not a positive finite rate", sampleRate)}
	}
	if blockSize <= 0 || blockSize > math.MaxInt32 {
		return &ArgumentError{Op: "Initialize", Arg: "block size", Reason: fmt.Sprintf("%d is not a positive frame count", blockSize)}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if st := p.State(); st != StateCreated {
		return &StateError{Op: "Initialize", State: st}
	}
	proc := p.iface.processor
	if proc == nil {
		return &CapabilityError{Missing: CapProcessor}
	}
	comp := p.iface.component

	if err := proc.CanProcessSampleSize(vst3.Sample32); err != nil {
		return nativeErr("32-bit processing", err)
	}

	inArr, inCh, err := p.busLayout(vst3.BusDirectionInput)
	if err != nil {
		return err
	}
	outArr, outCh, err := p.busLayout(vst3.BusDirectionOutput)
	if err != nil {
		return err
	}
	if err := proc.SetBusArrangements(inArr, outArr); err != nil {
		// The plugin keeps its own arrangement.
		p.logger.Debug("bus arrangement refused", "error", err)
	}

	p.activateMainBuses(inCh, outCh, true)

	setup := vst3.ProcessSetup{
		ProcessMode:        vst3.ProcessModeRealtime,
		SymbolicSampleSize: vst3.Sample32,
		MaxSamplesPerBlock: int32(blockSize),
		SampleRate:         sampleRate,
		MaxParamChanges:    int32(p.params.capacity() + p.paramCount),
	}
	if err := proc.SetupProcessing(setup, inCh, outCh); err != nil {
		p.abandonSetup(inCh, outCh)
		return nativeErr("setup processing", err)
	}
	if err := comp.SetActive(true); err != nil {
		p.abandonSetup(inCh, outCh)
		return nativeErr("activate", err)
	}

	p.sampleRate = sampleRate
	p.blockSize = blockSize
	p.inChannels, p.outChannels = 0, 0
	if len(inCh) > 0 {
		p.inChannels = int(inCh[0])
	}
	if len(outCh) > 0 {
		p.outChannels = int(outCh[0])
	}
	p.latency = proc.LatencySamples()
	p.changes = make([]vst3.ParamChange, 0, p.params.capacity()+p.paramCount)
	p.contTime = 0
	p.state.Store(int32(StateInitialized))

	p.logger.Debug("initialized",
		"sampleRate", sampleRate,
		"blockSize", blockSize,
		"inputs", p.inChannels,
		"outputs", p.outChannels)
	return nil
}

// busLayout reads the audio buses of one direction and the arrangement the
// host asks for on each.
func (p *PluginInstance) busLayout(dir vst3.BusDirection) ([]vst3.SpeakerArrangement, []int32, error) {
	comp := p.iface.component
	n := max(int(comp.BusCount(vst3.MediaTypeAudio, dir)), 0)
	arrs := make([]vst3.SpeakerArrangement, n)
	channels := make([]int32, n)
	for i := range n {
		bus, err := comp.BusInfo(vst3.MediaTypeAudio, dir, int32(i))
		if err != nil {
			return nil, nil, nativeErr("bus info", err)
		}
		arr, err := p.iface.processor.BusArrangement(dir, int32(i))
		if err != nil || arr.ChannelCount() != int(bus.ChannelCount) {
			arr = arrangementFor(bus.ChannelCount)
		}
		arrs[i] = arr
		channels[i] = bus.ChannelCount
	}
	return arrs, channels, nil
}

func (p *PluginInstance) activateMainBuses(inCh, outCh []int32, state bool) {
	if len(inCh) > 0 {
		p.activateMainBus(vst3.BusDirectionInput, state)
	}
	if len(outCh) > 0 {
		p.activateMainBus(vst3.BusDirectionOutput, state)
	}
}

func (p *PluginInstance) activateMainBus(dir vst3.BusDirection, state bool) {
	if err := p.iface.component.ActivateBus(vst3.MediaTypeAudio, dir, 0, state); err != nil {
		p.logger.Debug("main bus activation failed", "direction", dir, "state", state, "error", err)
	}
}

// abandonSetup undoes a partial Initialize. The instance stays in
// StateCreated with no buses active and no processing buffers held.
func (p *PluginInstance) abandonSetup(inCh, outCh []int32) {
	p.activateMainBuses(inCh, outCh, false)
	p.iface.processor.ReleaseBuffers()
}

func arrangementFor(channels int32) vst3.SpeakerArrangement {
	switch {
	case channels <= 0:
		return vst3.SpeakerArrEmpty
	case channels == 1:
		return vst3.SpeakerArrMono
	case channels == 2:
		return vst3.SpeakerArrStereo
	case channels >= 64:
		return ^vst3.SpeakerArrEmpty
	default:
		return vst3.SpeakerArrangement(1)<<uint(channels) - 1
	}
}

// Process runs one block. in and out must have exactly the negotiated main
// bus channel counts and the block size given to Initialize; in may be nil
// for plugins without an input bus. Process does not allocate, lock or
// block. A failure reported by the plugin is returned as *ProcessError and
// leaves the instance usable.
func (p *PluginInstance) Process(in, out *AudioBuffer) error {
	st := State(p.state.Load())
	if st != StateInitialized && st != StateProcessing {
		return processStateErrors[st]
	}
	if out == nil || in.NumChannels() != p.inChannels || out.NumChannels() != p.outChannels ||
		(in != nil && in.NumFrames() != p.blockSize) || out.NumFrames() != p.blockSize {
		return errBufferShape
	}

	if st == StateInitialized {
		if err := p.iface.processor.SetProcessing(true); err != nil {
			res, ok := err.(vst3.Result)
			if !ok {
				res = vst3.ResultInternalError
			}
			if res != vst3.ResultNotImplemented {
				p.processErr.Code = res
				return &p.processErr
			}
		}
		p.state.Store(int32(StateProcessing))
	}

	p.changes = p.params.drain(p.changes[:0])
	if p.params.pending() == 0 {
		// Slots hold newer values than anything already drained.
		p.changes = p.latest.take(p.changes)
	}
	p.data.NumSamples = int32(p.blockSize)
	p.data.Inputs = nil
	if in != nil {
		p.data.Inputs = in.channels
	}
	p.data.Outputs = out.channels
	p.data.ParamChanges = p.changes
	p.data.ContinuousTime = p.contTime

	p.data.DroppedChanges = 0

	res := p.iface.processor.Process(&p.data)
	p.contTime += int64(p.blockSize)
	if p.data.DroppedChanges > 0 {
		p.metrics.paramChangesDropped(p.data.DroppedChanges)
	}
	if res != vst3.ResultOK {
		p.processErr.Code = res
		return &p.processErr
	}
	return nil
}

// NewInputBuffer returns a buffer shaped for Process's in argument.
func (p *PluginInstance) NewInputBuffer() (*AudioBuffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st := p.State(); st == StateCreated || st == StateTerminated {
		return nil, &StateError{Op: "NewInputBuffer", State: st}
	}
	return NewAudioBuffer(p.inChannels, p.blockSize), nil
}

// NewOutputBuffer returns a buffer shaped for Process's out argument.
func (p *PluginInstance) NewOutputBuffer() (*AudioBuffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st := p.State(); st == StateCreated || st == StateTerminated {
		return nil, &StateError{Op: "NewOutputBuffer", State: st}
	}
	return NewAudioBuffer(p.outChannels, p.blockSize), nil
}

// Suspend stops processing without deactivating the plugin.
func (p *PluginInstance) Suspend() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st := p.State(); st != StateProcessing {
		return &StateError{Op: "Suspend", State: st}
	}
	if err := p.iface.processor.SetProcessing(false); err != nil && !errors.Is(err, vst3.ResultNotImplemented) {
		return nativeErr("suspend", err)
	}
	p.state.Store(int32(StateSuspended))
	return nil
}

// Resume restarts processing after Suspend.
func (p *PluginInstance) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st := p.State(); st != StateSuspended {
		return &StateError{Op: "Resume", State: st}
	}
	if err := p.iface.processor.SetProcessing(true); err != nil && !errors.Is(err, vst3.ResultNotImplemented) {
		return nativeErr("resume", err)
	}
	p.state.Store(int32(StateProcessing))
	return nil
}

// LatencySamples is the processing delay the plugin reported at Initialize.
func (p *PluginInstance) LatencySamples() (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st := p.State(); st == StateCreated || st == StateTerminated {
		return 0, &StateError{Op: "LatencySamples", State: st}
	}
	return p.latency, nil
}

// TailSamples is how long the plugin keeps producing output after its
// input falls silent.
func (p *PluginInstance) TailSamples() (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st := p.State(); st == StateTerminated {
		return 0, &StateError{Op: "TailSamples", State: st}
	}
	if p.iface.processor == nil {
		return 0, &CapabilityError{Missing: CapProcessor}
	}
	return p.iface.processor.TailSamples(), nil
}

// Snapshot returns the component state as the plugin serializes it.
func (p *PluginInstance) Snapshot() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st := p.State(); st == StateTerminated {
		return nil, &StateError{Op: "Snapshot", State: st}
	}
	state, err := p.iface.component.State()
	if err != nil {
		return nil, nativeErr("get state", err)
	}
	return state, nil
}

// Restore loads a state produced by Snapshot into the component and, for
// separate controllers, the controller.
func (p *PluginInstance) Restore(state []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st := p.State(); st == StateTerminated {
		return &StateError{Op: "Restore", State: st}
	}
	if err := p.iface.component.SetState(state); err != nil {
		return nativeErr("set state", err)
	}
	if p.iface.separate {
		if err := p.iface.controller.SetComponentState(state); err != nil {
			return nativeErr("set controller state", err)
		}
	}
	return nil
}

// Terminate stops processing, releases every native interface and drops
// the module reference. Calling it again is a no-op.
func (p *PluginInstance) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := p.State()
	if st == StateTerminated {
		return nil
	}

	var errs []error
	if st == StateProcessing || st == StateSuspended {
		if err := p.iface.processor.SetProcessing(false); err != nil && !errors.Is(err, vst3.ResultNotImplemented) {
			errs = append(errs, nativeErr("stop processing", err))
		}
	}
	if st != StateCreated {
		errs = append(errs, nativeErr("deactivate", p.iface.component.SetActive(false)))
	}
	errs = append(errs, p.iface.release())
	p.state.Store(int32(StateTerminated))

	p.handle.releaseInstance(p.info.ID)
	p.handle.release()
	p.metrics.instanceTerminated()
	runtime.SetFinalizer(p, nil)

	err := errors.Join(errs...)
	if err != nil {
		p.logger.Warn("terminate reported errors", "error", err)
	}
	return err
}

// Close is Terminate, for use as an io.Closer.
func (p *PluginInstance) Close() error {
	return p.Terminate()
}
