package hosttest

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// Class describes one fake plugin class. The zero value of every field
// other than Info gives a working plugin with a combined controller and no
// parameters or buses.
type Class struct {
	Info vst3.ClassInfo

	// ControllerCID, when set, makes the controller a separate class that
	// is connected to the component through connection points.
	ControllerCID vst3.TUID

	NoProcessor  bool
	NoController bool

	// Main bus channel counts. Zero means no bus.
	Inputs  int32
	Outputs int32

	Latency uint32
	Tail    uint32
	Params  []Param

	// ProcessResult is returned by every Process call.
	ProcessResult vst3.Result

	// MaxChanges, when positive, caps the parameter changes one block
	// accepts. The rest are reported as dropped.
	MaxChanges int

	CreateErr   error
	InitErr     error
	SetupErr    error
	ActivateErr error

	Observer Observer
}

// Param is a linear parameter between Min and Max.
type Param struct {
	ID        vst3.ParamID
	Title     string
	Units     string
	Min       float64
	Max       float64
	Default   float64
	StepCount int32
	Flags     int32
}

func (p Param) toNormalized(plain float64) float64 {
	if p.Max == p.Min {
		return 0
	}
	return (plain - p.Min) / (p.Max - p.Min)
}

func (p Param) toPlain(norm float64) float64 {
	return p.Min + norm*(p.Max-p.Min)
}

// Observer exposes what the host did to a class's instances.
type Observer struct {
	Initialized atomic.Int32
	Active      atomic.Bool
	Processing  atomic.Bool
	Connected   atomic.Bool
	Blocks      atomic.Int64
	Changes     atomic.Int64
	Prepared    atomic.Bool

	inputBus  atomic.Bool
	outputBus atomic.Bool

	lastID       atomic.Uint32
	lastValue    atomic.Uint64
	setupRate    atomic.Uint64
	setupMax     atomic.Int32
	setupChanges atomic.Int32
}

// LastChange returns the most recent parameter change the processor saw.
func (p *Observer) LastChange() vst3.ParamChange {
	return vst3.ParamChange{
		ID:    vst3.ParamID(p.lastID.Load()),
		Value: math.Float64frombits(p.lastValue.Load()),
	}
}

// SetupChanges returns the change capacity the last SetupProcessing asked
// for.
func (p *Observer) SetupChanges() int32 {
	return p.setupChanges.Load()
}

// BusActive reports whether the main bus of dir is activated.
func (p *Observer) BusActive(dir vst3.BusDirection) bool {
	if dir == vst3.BusDirectionInput {
		return p.inputBus.Load()
	}
	return p.outputBus.Load()
}

// Setup returns the sample rate and maximum block size of the last
// SetupProcessing call.
func (p *Observer) Setup() (float64, int32) {
	return math.Float64frombits(p.setupRate.Load()), p.setupMax.Load()
}

func (c *Class) paramIndex(id vst3.ParamID) int {
	for i, p := range c.Params {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// plugin is the shared state behind one component or one separate
// controller.
type plugin struct {
	module *module
	class  *Class

	mu     sync.Mutex
	values []float64

	procValues []float64
}

func newPlugin(m *module, c *Class) *plugin {
	p := &plugin{
		module:     m,
		class:      c,
		values:     make([]float64, len(c.Params)),
		procValues: make([]float64, len(c.Params)),
	}
	for i, param := range c.Params {
		p.values[i] = param.toNormalized(param.Default)
		p.procValues[i] = p.values[i]
	}
	return p
}

func (p *plugin) newComponent() *component {
	c := &component{p: p}
	c.init(p.module, "component")
	return c
}

func (p *plugin) newProcessor() *processor {
	c := &processor{p: p}
	c.init(p.module, "processor")
	return c
}

func (p *plugin) newController(separate bool) *controller {
	c := &controller{p: p, separate: separate}
	c.init(p.module, "controller")
	return c
}

func (p *plugin) newConnectionPoint() *connectionPoint {
	c := &connectionPoint{p: p}
	c.init(p.module, "connection")
	return c
}

func (p *plugin) encodeState() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	buf := make([]byte, 8*len(p.values))
	for i, v := range p.values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func (p *plugin) decodeState(state []byte) error {
	if len(state) != 8*len(p.class.Params) {
		return vst3.ResultInvalidArgument
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.values {
		p.values[i] = math.Float64frombits(binary.LittleEndian.Uint64(state[i*8:]))
	}
	return nil
}

type component struct {
	ref
	p *plugin
}

func (c *component) QueryInterface(iid vst3.TUID) (vst3.Unknown, error) {
	class := c.p.class
	switch iid {
	case vst3.IIDIComponent:
		return c.p.newComponent(), nil
	case vst3.IIDIAudioProcessor:
		if !class.NoProcessor {
			return c.p.newProcessor(), nil
		}
	case vst3.IIDIEditController:
		if !class.NoController && class.ControllerCID.IsZero() {
			return c.p.newController(false), nil
		}
	case vst3.IIDIConnectionPoint:
		if !class.ControllerCID.IsZero() {
			return c.p.newConnectionPoint(), nil
		}
	}
	return nil, vst3.ResultNoInterface
}

func (c *component) Initialize() error {
	if c.p.class.InitErr != nil {
		return c.p.class.InitErr
	}
	c.p.class.Observer.Initialized.Add(1)
	return nil
}

func (c *component) Terminate() error {
	c.p.class.Observer.Initialized.Add(-1)
	return nil
}

func (c *component) ControllerClassID() (vst3.TUID, error) {
	return c.p.class.ControllerCID, nil
}

func (c *component) SetIOMode(int32) error { return nil }

func (c *component) BusCount(mediaType vst3.MediaType, dir vst3.BusDirection) int32 {
	if mediaType != vst3.MediaTypeAudio {
		return 0
	}
	if c.channels(dir) > 0 {
		return 1
	}
	return 0
}

func (c *component) channels(dir vst3.BusDirection) int32 {
	if dir == vst3.BusDirectionInput {
		return c.p.class.Inputs
	}
	return c.p.class.Outputs
}

func (c *component) BusInfo(mediaType vst3.MediaType, dir vst3.BusDirection, index int32) (vst3.BusInfo, error) {
	if index != 0 || c.BusCount(mediaType, dir) == 0 {
		return vst3.BusInfo{}, vst3.ResultInvalidArgument
	}
	return vst3.BusInfo{
		MediaType:    mediaType,
		Direction:    dir,
		ChannelCount: c.channels(dir),
		Name:         "Main",
		BusType:      vst3.BusTypeMain,
		Flags:        vst3.BusDefaultActive,
	}, nil
}

func (c *component) ActivateBus(mediaType vst3.MediaType, dir vst3.BusDirection, index int32, state bool) error {
	if mediaType != vst3.MediaTypeAudio || index != 0 || c.channels(dir) == 0 {
		return vst3.ResultInvalidArgument
	}
	obs := &c.p.class.Observer
	if dir == vst3.BusDirectionInput {
		obs.inputBus.Store(state)
	} else {
		obs.outputBus.Store(state)
	}
	return nil
}

func (c *component) SetActive(state bool) error {
	if state && c.p.class.ActivateErr != nil {
		return c.p.class.ActivateErr
	}
	c.p.class.Observer.Active.Store(state)
	return nil
}

func (c *component) SetState(state []byte) error {
	return c.p.decodeState(state)
}

func (c *component) State() ([]byte, error) {
	return c.p.encodeState(), nil
}

type processor struct {
	ref
	p *plugin
}

func (p *processor) SetBusArrangements(inputs, outputs []vst3.SpeakerArrangement) error {
	class := p.p.class
	if !matches(inputs, class.Inputs) || !matches(outputs, class.Outputs) {
		return vst3.ResultFalse
	}
	return nil
}

func matches(arrs []vst3.SpeakerArrangement, channels int32) bool {
	if channels == 0 {
		return len(arrs) == 0
	}
	return len(arrs) == 1 && arrs[0].ChannelCount() == int(channels)
}

func (p *processor) BusArrangement(dir vst3.BusDirection, index int32) (vst3.SpeakerArrangement, error) {
	channels := p.p.class.Outputs
	if dir == vst3.BusDirectionInput {
		channels = p.p.class.Inputs
	}
	switch {
	case index != 0 || channels == 0:
		return 0, vst3.ResultInvalidArgument
	case channels == 1:
		return vst3.SpeakerArrMono, nil
	case channels == 2:
		return vst3.SpeakerArrStereo, nil
	default:
		return 0, vst3.ResultNotImplemented
	}
}

func (p *processor) CanProcessSampleSize(size vst3.SymbolicSampleSize) error {
	if size != vst3.Sample32 {
		return vst3.ResultNotImplemented
	}
	return nil
}

func (p *processor) LatencySamples() uint32 { return p.p.class.Latency }

func (p *processor) TailSamples() uint32 { return p.p.class.Tail }

func (p *processor) SetupProcessing(setup vst3.ProcessSetup, inputs, outputs []int32) error {
	if setup.SampleRate <= 0 || setup.MaxSamplesPerBlock <= 0 {
		return vst3.ResultInvalidArgument
	}
	if p.p.class.SetupErr != nil {
		return p.p.class.SetupErr
	}
	obs := &p.p.class.Observer
	obs.setupRate.Store(math.Float64bits(setup.SampleRate))
	obs.setupMax.Store(setup.MaxSamplesPerBlock)
	obs.setupChanges.Store(setup.MaxParamChanges)
	obs.Prepared.Store(true)
	return nil
}

func (p *processor) ReleaseBuffers() {
	p.p.class.Observer.Prepared.Store(false)
}

func (p *processor) SetProcessing(state bool) error {
	p.p.class.Observer.Processing.Store(state)
	return nil
}

// Process copies each input channel to the output channel of the same
// index and silences the rest.
func (p *processor) Process(data *vst3.ProcessData) vst3.Result {
	class := p.p.class
	obs := &class.Observer
	if !obs.Active.Load() || !obs.Prepared.Load() {
		return vst3.ResultNotInitialized
	}
	changes := data.ParamChanges
	if class.MaxChanges > 0 && len(changes) > class.MaxChanges {
		data.DroppedChanges = int32(len(changes) - class.MaxChanges)
		changes = changes[:class.MaxChanges]
	}
	for _, ch := range changes {
		if i := class.paramIndex(ch.ID); i >= 0 {
			p.p.procValues[i] = ch.Value
		}
		obs.lastID.Store(uint32(ch.ID))
		obs.lastValue.Store(math.Float64bits(ch.Value))
		obs.Changes.Add(1)
	}
	n := int(data.NumSamples)
	for i, out := range data.Outputs {
		if i < len(data.Inputs) {
			copy(out[:n], data.Inputs[i][:n])
		} else {
			clear(out[:n])
		}
	}
	obs.Blocks.Add(1)
	return class.ProcessResult
}

type controller struct {
	ref
	p        *plugin
	separate bool
}

func (c *controller) QueryInterface(iid vst3.TUID) (vst3.Unknown, error) {
	if iid == vst3.IIDIConnectionPoint && c.separate {
		return c.p.newConnectionPoint(), nil
	}
	return nil, vst3.ResultNoInterface
}

func (c *controller) Initialize() error { return nil }

func (c *controller) Terminate() error { return nil }

func (c *controller) SetComponentState(state []byte) error {
	return c.p.decodeState(state)
}

func (c *controller) ParameterCount() int32 {
	return int32(len(c.p.class.Params))
}

func (c *controller) ParameterInfo(index int32) (vst3.ParameterInfo, error) {
	params := c.p.class.Params
	if index < 0 || int(index) >= len(params) {
		return vst3.ParameterInfo{}, vst3.ResultInvalidArgument
	}
	param := params[index]
	return vst3.ParameterInfo{
		ID:                param.ID,
		Title:             param.Title,
		ShortTitle:        param.Title,
		Units:             param.Units,
		StepCount:         param.StepCount,
		DefaultNormalized: param.toNormalized(param.Default),
		Flags:             param.Flags,
	}, nil
}

func (c *controller) param(id vst3.ParamID) (Param, int, bool) {
	i := c.p.class.paramIndex(id)
	if i < 0 {
		return Param{}, -1, false
	}
	return c.p.class.Params[i], i, true
}

func (c *controller) ParamStringByValue(id vst3.ParamID, normalized float64) (string, error) {
	param, _, ok := c.param(id)
	if !ok {
		return "", vst3.ResultInvalidArgument
	}
	if param.Units == "" {
		return fmt.Sprintf("%.2f", param.toPlain(normalized)), nil
	}
	return fmt.Sprintf("%.2f %s", param.toPlain(normalized), param.Units), nil
}

func (c *controller) NormalizedParamToPlain(id vst3.ParamID, normalized float64) float64 {
	param, _, ok := c.param(id)
	if !ok {
		return 0
	}
	return param.toPlain(normalized)
}

func (c *controller) PlainParamToNormalized(id vst3.ParamID, plain float64) float64 {
	param, _, ok := c.param(id)
	if !ok {
		return 0
	}
	return param.toNormalized(plain)
}

func (c *controller) ParamNormalized(id vst3.ParamID) float64 {
	_, i, ok := c.param(id)
	if !ok {
		return 0
	}
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	return c.p.values[i]
}

func (c *controller) SetParamNormalized(id vst3.ParamID, normalized float64) error {
	_, i, ok := c.param(id)
	if !ok {
		return vst3.ResultInvalidArgument
	}
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	c.p.values[i] = normalized
	return nil
}

type connectionPoint struct {
	ref
	p *plugin
}

func (c *connectionPoint) Connect(other vst3.IConnectionPoint) error {
	if other == nil {
		return vst3.ResultInvalidArgument
	}
	c.p.class.Observer.Connected.Store(true)
	return nil
}

func (c *connectionPoint) Disconnect(vst3.IConnectionPoint) error {
	c.p.class.Observer.Connected.Store(false)
	return nil
}

var (
	_ vst3.IComponent       = (*component)(nil)
	_ vst3.IAudioProcessor  = (*processor)(nil)
	_ vst3.IEditController  = (*controller)(nil)
	_ vst3.IConnectionPoint = (*connectionPoint)(nil)
	_ vst3.IPluginFactory   = (*factory)(nil)
)
