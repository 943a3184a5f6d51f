package host

import (
	"fmt"
	"strings"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// PluginType classifies a plugin class by its sub-categories.
type PluginType int

const (
	PluginTypeOther PluginType = iota
	PluginTypeEffect
	PluginTypeInstrument
)

func (t PluginType) String() string {
	switch t {
	case PluginTypeEffect:
		return "Effect"
	case PluginTypeInstrument:
		return "Instrument"
	default:
		return "Other"
	}
}

// MarshalText lets catalogs be written as JSON or YAML.
func (t PluginType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses the names produced by String, case-insensitively.
func (t *PluginType) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "effect":
		*t = PluginTypeEffect
	case "instrument":
		*t = PluginTypeInstrument
	case "other":
		*t = PluginTypeOther
	default:
		return fmt.Errorf("unknown plugin type %q", text)
	}
	return nil
}

// Classify maps sub-category tags to a plugin type. "Instrument" wins over
// "Fx"; a class with neither is Other.
func Classify(tags []string) PluginType {
	effect := false
	for _, tag := range tags {
		switch tag {
		case vst3.SubCategoryInstrument:
			return PluginTypeInstrument
		case vst3.SubCategoryFx:
			effect = true
		}
	}
	if effect {
		return PluginTypeEffect
	}
	return PluginTypeOther
}

// Source records where the scanner read a class's metadata from.
type Source string

const (
	SourceModuleInfo Source = "moduleinfo"
	SourceFactory    Source = "factory"
)

// UnknownManufacturer is reported when neither the class nor the factory
// names a vendor.
const UnknownManufacturer = "Unknown"

// PluginInfo describes one plugin class found by the scanner. It holds no
// native resource and can be copied freely.
type PluginInfo struct {
	ID            vst3.TUID  `json:"id" yaml:"id"`
	Name          string     `json:"name" yaml:"name"`
	Manufacturer  string     `json:"manufacturer" yaml:"manufacturer"`
	Type          PluginType `json:"type" yaml:"type"`
	SubCategories string     `json:"subCategories" yaml:"subCategories"`
	Version       string     `json:"version,omitempty" yaml:"version,omitempty"`
	SDKVersion    string     `json:"sdkVersion,omitempty" yaml:"sdkVersion,omitempty"`
	Cardinality   int32      `json:"cardinality" yaml:"cardinality"`
	ClassFlags    uint32     `json:"classFlags" yaml:"classFlags"`
	BundlePath    string     `json:"bundlePath" yaml:"bundlePath"`
	ModulePath    string     `json:"modulePath" yaml:"modulePath"`
	ClassIndex    int32      `json:"classIndex" yaml:"classIndex"`
	Source        Source     `json:"source" yaml:"source"`
}

// Key identifies a plugin across scans: the bundle and the class id.
func (p PluginInfo) Key() string {
	return p.BundlePath + "#" + p.ID.String()
}

// Categories returns the sorted, de-duplicated sub-category tags.
func (p PluginInfo) Categories() []string {
	return vst3.SplitSubCategories(p.SubCategories)
}

// SingleInstance reports whether the class allows only one live instance.
func (p PluginInfo) SingleInstance() bool {
	return p.Cardinality == 1
}

func newPluginInfo(ci vst3.ClassInfo, index int32, vendor string, bundlePath, modulePath string, src Source) PluginInfo {
	manufacturer := strings.TrimSpace(ci.Vendor)
	if manufacturer == "" {
		manufacturer = strings.TrimSpace(vendor)
	}
	if manufacturer == "" {
		manufacturer = UnknownManufacturer
	}
	return PluginInfo{
		ID:            ci.CID,
		Name:          strings.TrimSpace(ci.Name),
		Manufacturer:  manufacturer,
		Type:          Classify(vst3.SplitSubCategories(ci.SubCategories)),
		SubCategories: ci.SubCategories,
		Version:       ci.Version,
		SDKVersion:    ci.SDKVersion,
		Cardinality:   ci.Cardinality,
		ClassFlags:    ci.ClassFlags,
		BundlePath:    bundlePath,
		ModulePath:    modulePath,
		ClassIndex:    index,
		Source:        src,
	}
}

// State is the lifecycle state of a PluginInstance.
type State int32

const (
	StateCreated State = iota
	StateInitialized
	StateProcessing
	StateSuspended
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateInitialized:
		return "Initialized"
	case StateProcessing:
		return "Processing"
	case StateSuspended:
		return "Suspended"
	case StateTerminated:
		return "Terminated"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Capability is a set of interfaces an instance was negotiated with.
type Capability uint8

const (
	// CapProcessor is IAudioProcessor on the component.
	CapProcessor Capability = 1 << iota
	// CapController is an IEditController, on the component or separate.
	CapController
	// CapParameterAccess means the controller exposes at least one parameter.
	CapParameterAccess
)

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{CapProcessor, "processor"},
	{CapController, "controller"},
	{CapParameterAccess, "parameters"},
}

// Has reports whether every capability in c2 is in c.
func (c Capability) Has(c2 Capability) bool {
	return c&c2 == c2
}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var names []string
	for _, n := range capabilityNames {
		if c.Has(n.cap) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// ParseCapabilities parses names as printed by Capability.String.
func ParseCapabilities(names []string) (Capability, error) {
	var c Capability
	for _, name := range names {
		found := false
		for _, n := range capabilityNames {
			if strings.EqualFold(strings.TrimSpace(name), n.name) {
				c |= n.cap
				found = true
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown capability %q", name)
		}
	}
	return c, nil
}

// ParameterInfo is a snapshot of one parameter. Min, Max, Default and
// Value are plain values, the unit the plugin displays.
type ParameterInfo struct {
	Index     int
	ID        vst3.ParamID
	Name      string
	ShortName string
	Unit      string
	Min       float64
	Max       float64
	Default   float64
	Value     float64
	Display   string
	StepCount int
	Flags     int32
}

// ReadOnly reports whether the plugin rejects host edits of the parameter.
func (p ParameterInfo) ReadOnly() bool {
	return p.Flags&vst3.ParameterIsReadOnly != 0
}

// Automatable reports whether the parameter may be automated.
func (p ParameterInfo) Automatable() bool {
	return p.Flags&vst3.ParameterCanAutomate != 0
}
