package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/vst3host/pkg/host"
	"github.com/justyntemme/vst3host/pkg/host/hosttest"
)

var catalog = []host.PluginInfo{
	{
		ID:            hosttest.CID(1),
		Name:          "Delay",
		Manufacturer:  "Acme Audio",
		Type:          host.PluginTypeEffect,
		SubCategories: "Fx|Delay",
		Version:       "1.2.0",
		Cardinality:   0x7FFFFFFF,
		BundlePath:    "/plugins/Delay.vst3",
		Source:        host.SourceModuleInfo,
	},
	{
		ID:            hosttest.CID(2),
		Name:          "Synth",
		Manufacturer:  "Other Co",
		Type:          host.PluginTypeInstrument,
		SubCategories: "Instrument|Synth",
		Version:       "0.9.0",
		Cardinality:   1,
		BundlePath:    "/plugins/Synth.vst3",
		Source:        host.SourceFactory,
	},
	{
		ID:           hosttest.CID(3),
		Name:         "Scope",
		Manufacturer: host.UnknownManufacturer,
		Type:         host.PluginTypeOther,
		BundlePath:   "/plugins/Scope.vst3",
		Source:       host.SourceFactory,
	},
}

func names(infos []host.PluginInfo) []string {
	out := []string{}
	for _, info := range infos {
		out = append(out, info.Name)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{`true`, []string{"Delay", "Synth", "Scope"}},
		{`kind == "Instrument"`, []string{"Synth"}},
		{`"Delay" in categories`, []string{"Delay"}},
		{`size(categories) == 0`, []string{"Scope"}},
		{`manufacturer.startsWith("Acme")`, []string{"Delay"}},
		{`name.lowerAscii().contains("syn")`, []string{"Synth"}},
		{`cardinality == 1`, []string{"Synth"}},
		{`source == "factory" && bundle.endsWith("Scope.vst3")`, []string{"Scope"}},
		{`id == "` + hosttest.CID(2).String() + `"`, []string{"Synth"}},
		{`version != "" && sdkVersion == ""`, []string{"Delay", "Synth"}},
		{`kind == "Sampler"`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := Compile(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, f.String())

			got, err := f.Apply(context.Background(), catalog)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestEveryVariableCompiles(t *testing.T) {
	for name := range Vars(catalog[0]) {
		t.Run(name, func(t *testing.T) {
			_, err := Compile(name + " == " + name)
			require.NoError(t, err)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"syntax", `kind ==`},
		{"unknown variable", `vendor == "Acme"`},
		{"type mismatch", `cardinality == "one"`},
		{"not bool", `name`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.expr)
			assert.Error(t, err)
		})
	}
}

func TestMatchRuntimeError(t *testing.T) {
	f, err := Compile(`categories[5] == "Fx"`)
	require.NoError(t, err)

	_, err = f.Match(context.Background(), catalog[0])
	assert.Error(t, err)

	_, err = f.Apply(context.Background(), catalog)
	assert.Error(t, err)
}

func TestVars(t *testing.T) {
	vars := Vars(catalog[0])
	assert.Equal(t, "Effect", vars[VarKind])
	assert.Equal(t, []string{"Delay", "Fx"}, vars[VarCategories])
	assert.Equal(t, int64(0x7FFFFFFF), vars[VarCardinality])
	assert.Equal(t, "moduleinfo", vars[VarSource])
}
