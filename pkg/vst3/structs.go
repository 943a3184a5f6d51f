package vst3

// ParamID identifies a parameter within an edit controller.
type ParamID uint32

// SpeakerArrangement is a bit set of speakers, one bit per channel.
type SpeakerArrangement uint64

// Common speaker arrangements
const (
	SpeakerArrEmpty  SpeakerArrangement = 0
	SpeakerArrMono   SpeakerArrangement = 1 << 19 // kSpeakerM
	SpeakerArrStereo SpeakerArrangement = 0x3     // kSpeakerL | kSpeakerR
)

// ChannelCount returns the number of speakers in the arrangement.
func (a SpeakerArrangement) ChannelCount() int {
	n := 0
	for a != 0 {
		a &= a - 1
		n++
	}
	return n
}

// MediaType selects audio or event buses.
type MediaType int32

const (
	MediaTypeAudio MediaType = 0
	MediaTypeEvent MediaType = 1
)

// BusDirection selects input or output buses.
type BusDirection int32

const (
	BusDirectionInput  BusDirection = 0
	BusDirectionOutput BusDirection = 1
)

// BusType distinguishes main buses from auxiliary (side chain) buses.
type BusType int32

const (
	BusTypeMain BusType = 0
	BusTypeAux  BusType = 1
)

// Bus flags
const (
	BusDefaultActive    uint32 = 1 << 0
	BusIsControlVoltage uint32 = 1 << 1
)

// BusInfo describes one bus of a component.
type BusInfo struct {
	MediaType    MediaType
	Direction    BusDirection
	ChannelCount int32
	Name         string
	BusType      BusType
	Flags        uint32
}

// SymbolicSampleSize is the sample format negotiated for processing.
type SymbolicSampleSize int32

const (
	Sample32 SymbolicSampleSize = 0
	Sample64 SymbolicSampleSize = 1
)

// ProcessMode tells the plugin how it is being driven.
type ProcessMode int32

const (
	ProcessModeRealtime ProcessMode = 0
	ProcessModePrefetch ProcessMode = 1
	ProcessModeOffline  ProcessMode = 2
)

// ProcessSetup contains audio processing configuration
type ProcessSetup struct {
	ProcessMode        ProcessMode
	SymbolicSampleSize SymbolicSampleSize
	MaxSamplesPerBlock int32
	SampleRate         float64

	// MaxParamChanges is the number of distinct parameters the host may
	// change in one block. It is not passed to the plugin; bridges size
	// their per-block change lists from it. Zero leaves the choice to the
	// bridge.
	MaxParamChanges int32
}

// ParameterInfo describes a parameter as the edit controller reports it.
// DefaultNormalized is in the normalized [0, 1] domain.
type ParameterInfo struct {
	ID                ParamID
	Title             string
	ShortTitle        string
	Units             string
	StepCount         int32
	DefaultNormalized float64
	UnitID            int32
	Flags             int32
}

// Parameter flags
const (
	ParameterCanAutomate     int32 = 1 << 0
	ParameterIsReadOnly      int32 = 1 << 1
	ParameterIsWrapAround    int32 = 1 << 2
	ParameterIsList          int32 = 1 << 3
	ParameterIsHidden        int32 = 1 << 4
	ParameterIsProgramChange int32 = 1 << 15
	ParameterIsBypass        int32 = 1 << 16
)

// FactoryInfo is the vendor information of a module's factory.
type FactoryInfo struct {
	Vendor string
	URL    string
	Email  string
	Flags  int32
}

// Class categories
const (
	CategoryAudioEffect         = "Audio Module Class"
	CategoryComponentController = "Component Controller Class"
)

// ManyInstances is the cardinality of classes without an instance limit.
const ManyInstances int32 = 0x7FFFFFFF

// ClassInfo describes one class exported by a factory. The fields after
// Name are only filled when the factory implements IPluginFactory2 or the
// metadata came from moduleinfo.json.
type ClassInfo struct {
	CID           TUID
	Cardinality   int32
	Category      string
	Name          string
	ClassFlags    uint32
	SubCategories string
	Vendor        string
	Version       string
	SDKVersion    string
}
