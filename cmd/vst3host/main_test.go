package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/vst3host/pkg/bundle"
	"github.com/justyntemme/vst3host/pkg/config"
	"github.com/justyntemme/vst3host/pkg/host"
	"github.com/justyntemme/vst3host/pkg/host/hosttest"
)

// plugins writes a Delay effect and a Synth instrument bundle.
func plugins(t *testing.T) (*hosttest.Loader, string) {
	t.Helper()
	t.Setenv(config.EnvSearchPath, "")
	dir := t.TempDir()
	loader := hosttest.NewLoader()
	loader.AddBundle(t, dir, "Delay", &hosttest.ModuleSpec{
		Vendor:  "Acme",
		Classes: []*hosttest.Class{hosttest.Effect(1, "Delay")},
	})
	loader.AddBundle(t, dir, "Synth", &hosttest.ModuleSpec{
		Vendor:  "Other Co",
		Classes: []*hosttest.Class{hosttest.Instrument(2, "Synth")},
	})
	return loader, dir
}

func run(ctx context.Context, loader *hosttest.Loader, out io.Writer, args ...string) error {
	cmd := newRootCommand(host.WithLoader(loader))
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--log-level", "off"}, args...))
	return cmd.ExecuteContext(ctx)
}

func runOutput(t *testing.T, loader *hosttest.Loader, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), loader, &out, args...)
	return out.String(), err
}

func TestScanCommand(t *testing.T) {
	loader, dir := plugins(t)

	t.Run("json", func(t *testing.T) {
		out, err := runOutput(t, loader, "scan", "--path", dir, "-o", "json")
		require.NoError(t, err)

		var infos []host.PluginInfo
		require.NoError(t, json.Unmarshal([]byte(out), &infos))
		require.Len(t, infos, 2)
		assert.Equal(t, "Delay", infos[0].Name)
		assert.Equal(t, host.PluginTypeInstrument, infos[1].Type)
	})

	t.Run("filter", func(t *testing.T) {
		out, err := runOutput(t, loader, "scan", "--path", dir, "-o", "yaml", "--filter", `kind == "Instrument"`)
		require.NoError(t, err)
		assert.Contains(t, out, "name: Synth")
		assert.NotContains(t, out, "Delay")
	})

	t.Run("table", func(t *testing.T) {
		out, err := runOutput(t, loader, "scan", "--path", dir, "--latest")
		require.NoError(t, err)
		assert.Contains(t, out, "VENDOR")
		assert.Contains(t, out, "Acme")
		assert.Contains(t, out, "Delay, Fx")
	})

	t.Run("empty", func(t *testing.T) {
		out, err := runOutput(t, loader, "scan", "--path", t.TempDir(), "-o", "json")
		require.NoError(t, err)
		assert.JSONEq(t, "[]", out)
	})

	errs := []struct {
		name string
		args []string
	}{
		{"output format", []string{"scan", "--path", dir, "-o", "xml"}},
		{"filter", []string{"scan", "--path", dir, "--filter", "vendor =="}},
		{"log level", []string{"scan", "--path", dir, "--log-level", "loud"}},
		{"config file", []string{"scan", "--config", filepath.Join(dir, "missing.yaml")}},
	}
	for _, tt := range errs {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runOutput(t, loader, tt.args...)
			assert.Error(t, err)
		})
	}
	assert.Zero(t, loader.Ledger.Live())
}

func TestInfoCommand(t *testing.T) {
	loader, dir := plugins(t)

	out, err := runOutput(t, loader, "info", "--path", dir, "delay")
	require.NoError(t, err)
	assert.Contains(t, out, "3 parameters")
	assert.Contains(t, out, "Gain")
	assert.Contains(t, out, "read-only")
	assert.Contains(t, out, "processor|controller|parameters")

	out, err = runOutput(t, loader, "info", "--path", dir, hosttest.CID(2).String())
	require.NoError(t, err)
	assert.Contains(t, out, "Cutoff")

	_, err = runOutput(t, loader, "info", "--path", dir, "Reverb")
	assert.ErrorContains(t, err, `no plugin named "Reverb"`)

	assert.Zero(t, loader.Ledger.Live())
	assert.Zero(t, loader.Ledger.OpenModules())
}

func TestProcessCommand(t *testing.T) {
	loader, dir := plugins(t)

	out, err := runOutput(t, loader, "process", "--path", dir, "Delay", "--blocks", "10", "--set", "Gain=-6", "--set", "mix = 100")
	require.NoError(t, err)
	assert.Contains(t, out, "10 x 512 frames")
	assert.Contains(t, out, "0 / 0")

	out, err = runOutput(t, loader, "process", "--path", dir, "Delay", "--signal", "impulse", "--blocks", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "impulse")

	_, err = runOutput(t, loader, "process", "--path", dir, "Synth", "--blocks", "3")
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown parameter", []string{"--set", "Bogus=1"}},
		{"malformed assignment", []string{"--set", "Gain"}},
		{"out of range", []string{"--set", "Gain=40"}},
		{"read-only", []string{"--set", "Meter=0.5"}},
		{"no blocks", []string{"--blocks", "0"}},
		{"unknown signal", []string{"--signal", "triangle"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"process", "--path", dir, "Delay"}, tt.args...)
			_, err := runOutput(t, loader, args...)
			assert.Error(t, err)
		})
	}
	assert.Zero(t, loader.Ledger.Live())
}

// syncBuffer is written by the watch command while the test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchCommand(t *testing.T) {
	loader, dir := plugins(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, loader, &out, "watch", "--path", dir, "--debounce", "20ms")
	}()

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("2 plugins"))
	}, 5*time.Second, 10*time.Millisecond)

	late := filepath.Join(dir, "Late"+bundle.Extension)
	loader.Add(filepath.Join(late, bundle.ModuleRelPath("Late")), &hosttest.ModuleSpec{
		Vendor:  "Acme",
		Classes: []*hosttest.Class{hosttest.Effect(3, "Late")},
	})
	hosttest.WriteBundle(t, dir, "Late")

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("+ Late (Acme, Effect)"))
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestFindPlugin(t *testing.T) {
	infos := []host.PluginInfo{
		{ID: hosttest.CID(1), Name: "Delay"},
		{ID: hosttest.CID(2), Name: "Delay"},
		{ID: hosttest.CID(3), Name: "Synth"},
	}

	got, err := findPlugin(infos, "synth")
	require.NoError(t, err)
	assert.Equal(t, hosttest.CID(3), got.ID)

	got, err = findPlugin(infos, hosttest.CID(2).String())
	require.NoError(t, err)
	assert.Equal(t, hosttest.CID(2), got.ID)

	_, err = findPlugin(infos, "Delay")
	assert.ErrorContains(t, err, "2 plugins")
}
