package hosttest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justyntemme/vst3host/pkg/bundle"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

// WriteBundle creates an empty bundle named name.vst3 under dir, laid out
// for the running platform, and returns the bundle and module paths.
func WriteBundle(t testing.TB, dir, name string) (bundlePath, modulePath string) {
	t.Helper()
	bundlePath = filepath.Join(dir, name+bundle.Extension)
	modulePath = filepath.Join(bundlePath, bundle.ModuleRelPath(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(modulePath), 0o755))
	require.NoError(t, os.WriteFile(modulePath, []byte("not a real module"), 0o644))
	return bundlePath, modulePath
}

// AddBundle writes a bundle and registers spec as its module.
func (l *Loader) AddBundle(t testing.TB, dir, name string, spec *ModuleSpec) string {
	t.Helper()
	bundlePath, modulePath := WriteBundle(t, dir, name)
	l.Add(modulePath, spec)
	return bundlePath
}

// WriteModuleInfo stores info as the bundle's moduleinfo.json.
func WriteModuleInfo(t testing.TB, bundlePath string, info *bundle.ModuleInfo) {
	t.Helper()
	data, err := json.MarshalIndent(info, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(bundlePath, "Contents", "Resources", "moduleinfo.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// Effect returns a stereo effect class with gain and mix parameters and a
// read-only meter.
func Effect(id byte, name string) *Class {
	return &Class{
		Info:    audioClass(id, name, "Fx|Delay"),
		Inputs:  2,
		Outputs: 2,
		Params: []Param{
			{ID: 0, Title: "Gain", Units: "dB", Min: -12, Max: 12, Default: 0, Flags: vst3.ParameterCanAutomate},
			{ID: 1, Title: "Mix", Units: "%", Min: 0, Max: 100, Default: 50, Flags: vst3.ParameterCanAutomate},
			{ID: 2, Title: "Meter", Min: 0, Max: 1, Flags: vst3.ParameterIsReadOnly},
		},
	}
}

// Instrument returns a stereo instrument class without inputs.
func Instrument(id byte, name string) *Class {
	return &Class{
		Info:    audioClass(id, name, "Instrument|Synth"),
		Outputs: 2,
		Params: []Param{
			{ID: 10, Title: "Cutoff", Units: "Hz", Min: 20, Max: 20020, Default: 1020, Flags: vst3.ParameterCanAutomate},
		},
	}
}

func audioClass(id byte, name, subCategories string) vst3.ClassInfo {
	return vst3.ClassInfo{
		CID:           CID(id),
		Cardinality:   0x7FFFFFFF,
		Category:      vst3.CategoryAudioEffect,
		Name:          name,
		SubCategories: subCategories,
		Version:       "1.0.0",
		SDKVersion:    "VST 3.7.9",
	}
}
