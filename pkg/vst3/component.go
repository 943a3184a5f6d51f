package vst3

// Unknown is the root of every native object reference the host holds.
// Release drops the reference the host acquired; calling it more than once
// must be harmless.
type Unknown interface {
	Release() uint32
}

// Queryable objects can be asked for additional interfaces. A missing
// interface is reported as ResultNoInterface.
type Queryable interface {
	QueryInterface(iid TUID) (Unknown, error)
}

// Loader opens native modules.
type Loader interface {
	Open(path string) (Module, error)
}

// Module is an opened native module. Close runs the module's exit entry
// point and unloads it; it must only be called once nothing created from
// the factory is alive.
type Module interface {
	Path() string
	Factory() (IPluginFactory, error)
	Close() error
}

// IPluginFactory enumerates and instantiates the classes of a module.
type IPluginFactory interface {
	Unknown

	Info() (FactoryInfo, error)
	CountClasses() int32
	// ClassInfo uses IPluginFactory2 when the factory supports it.
	ClassInfo(index int32) (ClassInfo, error)
	CreateComponent(cid TUID) (IComponent, error)
	CreateController(cid TUID) (IEditController, error)
}

// PluginBase is the initialize/terminate pair shared by components and
// controllers. Initialize passes the host application context.
type PluginBase interface {
	Initialize() error
	Terminate() error
}

// IComponent represents the main plugin component interface
type IComponent interface {
	Unknown
	Queryable
	PluginBase

	ControllerClassID() (TUID, error)
	SetIOMode(mode int32) error
	BusCount(mediaType MediaType, dir BusDirection) int32
	BusInfo(mediaType MediaType, dir BusDirection, index int32) (BusInfo, error)
	ActivateBus(mediaType MediaType, dir BusDirection, index int32, state bool) error
	SetActive(state bool) error
	SetState(state []byte) error
	State() ([]byte, error)
}

// IAudioProcessor represents the audio processing interface
type IAudioProcessor interface {
	Unknown

	SetBusArrangements(inputs, outputs []SpeakerArrangement) error
	BusArrangement(dir BusDirection, index int32) (SpeakerArrangement, error)
	CanProcessSampleSize(size SymbolicSampleSize) error
	LatencySamples() uint32
	TailSamples() uint32

	// SetupProcessing forwards setup to the plugin and prepares host-side
	// buffers for the given per-bus channel counts.
	SetupProcessing(setup ProcessSetup, inputs, outputs []int32) error
	SetProcessing(state bool) error

	// ReleaseBuffers frees what SetupProcessing prepared. Process fails
	// until the next successful SetupProcessing.
	ReleaseBuffers()

	// Process runs one block. It must not allocate or block.
	Process(data *ProcessData) Result
}

// IEditController represents the parameter control interface
type IEditController interface {
	Unknown
	Queryable
	PluginBase

	SetComponentState(state []byte) error
	ParameterCount() int32
	ParameterInfo(index int32) (ParameterInfo, error)
	ParamStringByValue(id ParamID, normalized float64) (string, error)
	NormalizedParamToPlain(id ParamID, normalized float64) float64
	PlainParamToNormalized(id ParamID, plain float64) float64
	ParamNormalized(id ParamID) float64
	SetParamNormalized(id ParamID, normalized float64) error
}

// IConnectionPoint links a component to a separate controller.
type IConnectionPoint interface {
	Unknown

	Connect(other IConnectionPoint) error
	Disconnect(other IConnectionPoint) error
}
