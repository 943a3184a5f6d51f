//go:build cgo && (linux || darwin || windows)

package native_test

import (
	"context"
	"encoding/binary"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/vst3host/pkg/host"
	"github.com/justyntemme/vst3host/pkg/host/hosttest"
	"github.com/justyntemme/vst3host/pkg/native"
	"github.com/justyntemme/vst3host/pkg/native/nativetest"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

const gainPath = "/static/NativeGain.vst3"

func openFactory(t *testing.T, factory2 bool) vst3.IPluginFactory {
	t.Helper()
	nativetest.Reset(factory2)
	loader, err := native.NewLoader(
		native.WithLogger(slog.New(slog.DiscardHandler)),
		native.WithStaticModule(gainPath, nativetest.Entry()))
	require.NoError(t, err)

	m, err := loader.Open(gainPath)
	require.NoError(t, err)
	assert.Equal(t, gainPath, m.Path())
	f, err := m.Factory()
	require.NoError(t, err)
	t.Cleanup(func() {
		f.Release()
		assert.NoError(t, m.Close())
		assert.NoError(t, m.Close(), "close is idempotent")
		assert.Zero(t, nativetest.Read().FactoryRefs, "factory references leaked")
	})
	return f
}

func createGain(t *testing.T, f vst3.IPluginFactory) (vst3.IComponent, vst3.IAudioProcessor, vst3.IEditController) {
	t.Helper()
	comp, err := f.CreateComponent(nativetest.GainCID)
	require.NoError(t, err)
	require.NoError(t, comp.Initialize())

	u, err := comp.QueryInterface(vst3.IIDIAudioProcessor)
	require.NoError(t, err)
	proc, ok := u.(vst3.IAudioProcessor)
	require.True(t, ok)

	u, err = comp.QueryInterface(vst3.IIDIEditController)
	require.NoError(t, err)
	ctrl, ok := u.(vst3.IEditController)
	require.True(t, ok)

	t.Cleanup(func() {
		proc.Release()
		ctrl.Release()
		assert.NoError(t, comp.Terminate())
		comp.Release()
		assert.Zero(t, nativetest.Read().Live, "plugin objects leaked")
	})
	return comp, proc, ctrl
}

func TestStaticModuleFactory(t *testing.T) {
	f := openFactory(t, true)

	info, err := f.Info()
	require.NoError(t, err)
	assert.Equal(t, vst3.FactoryInfo{
		Vendor: "Native Test",
		URL:    "https://example.invalid",
		Email:  "plugins@example.invalid",
		Flags:  1 << 4,
	}, info)

	require.Equal(t, int32(2), f.CountClasses())
	ci, err := f.ClassInfo(0)
	require.NoError(t, err)
	assert.Equal(t, vst3.ClassInfo{
		CID:           nativetest.GainCID,
		Cardinality:   0x7FFFFFFF,
		Category:      vst3.CategoryAudioEffect,
		Name:          "Native Gain",
		ClassFlags:    1,
		SubCategories: "Fx|Dynamics",
		Vendor:        "Native Test Labs",
		Version:       "1.2.3",
		SDKVersion:    "VST 3.7.9",
	}, ci)

	ci, err = f.ClassInfo(1)
	require.NoError(t, err)
	assert.Equal(t, nativetest.GainControllerCID, ci.CID)
	assert.Equal(t, vst3.CategoryComponentController, ci.Category)

	_, err = f.ClassInfo(2)
	assert.ErrorIs(t, err, vst3.ResultInvalidArgument)
	assert.Equal(t, 2, nativetest.Read().FactoryRefs, "GetPluginFactory and IPluginFactory2")
}

func TestFactoryWithoutClassInfo2(t *testing.T) {
	f := openFactory(t, false)
	assert.Equal(t, 1, nativetest.Read().FactoryRefs)

	ci, err := f.ClassInfo(0)
	require.NoError(t, err)
	assert.Equal(t, nativetest.GainCID, ci.CID)
	assert.Equal(t, "Native Gain", ci.Name)
	assert.Equal(t, vst3.CategoryAudioEffect, ci.Category)
	assert.Empty(t, ci.SubCategories)
	assert.Empty(t, ci.Vendor)
	assert.Empty(t, ci.Version)
}

func TestObjectsReleasedOnce(t *testing.T) {
	f := openFactory(t, true)

	_, err := f.CreateComponent(vst3.InlineUID(1, 2, 3, 4))
	assert.ErrorIs(t, err, vst3.ResultFalse)
	assert.Zero(t, nativetest.Read().Created)

	comp, err := f.CreateComponent(nativetest.GainCID)
	require.NoError(t, err)
	assert.Equal(t, 1, nativetest.Read().Live)

	_, err = comp.QueryInterface(vst3.IIDIConnectionPoint)
	assert.ErrorIs(t, err, vst3.ResultNoInterface)

	u, err := comp.QueryInterface(vst3.IIDIAudioProcessor)
	require.NoError(t, err)
	u.Release()
	assert.Zero(t, u.Release(), "second release is a no-op")
	assert.Equal(t, 1, nativetest.Read().Live)

	comp.Release()
	assert.Zero(t, comp.Release())
	assert.Zero(t, nativetest.Read().Live)
	assert.Equal(t, 1, nativetest.Read().Created)

	_, err = comp.QueryInterface(vst3.IIDIAudioProcessor)
	assert.ErrorIs(t, err, vst3.ResultNotInitialized, "released objects are not queried")
}

func TestComponentBuses(t *testing.T) {
	f := openFactory(t, true)
	comp, proc, _ := createGain(t, f)
	assert.Equal(t, 1, nativetest.Read().Initialized, "initialized with a host context")

	require.Equal(t, int32(2), comp.BusCount(vst3.MediaTypeAudio, vst3.BusDirectionInput))
	require.Equal(t, int32(1), comp.BusCount(vst3.MediaTypeAudio, vst3.BusDirectionOutput))
	assert.Zero(t, comp.BusCount(vst3.MediaTypeEvent, vst3.BusDirectionInput))

	mainIn, err := comp.BusInfo(vst3.MediaTypeAudio, vst3.BusDirectionInput, 0)
	require.NoError(t, err)
	assert.Equal(t, "Main In", mainIn.Name)
	assert.Equal(t, int32(2), mainIn.ChannelCount)

	side, err := comp.BusInfo(vst3.MediaTypeAudio, vst3.BusDirectionInput, 1)
	require.NoError(t, err)
	assert.Equal(t, "Sidechain", side.Name)
	assert.Equal(t, int32(1), side.ChannelCount)
	assert.Equal(t, vst3.BusType(1), side.BusType)

	_, err = comp.BusInfo(vst3.MediaTypeAudio, vst3.BusDirectionOutput, 3)
	assert.ErrorIs(t, err, vst3.ResultInvalidArgument)

	require.NoError(t, comp.ActivateBus(vst3.MediaTypeAudio, vst3.BusDirectionInput, 0, true))
	assert.True(t, nativetest.Read().InputBusActive)

	arr, err := proc.BusArrangement(vst3.BusDirectionInput, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, arr.ChannelCount())
	assert.NoError(t, proc.SetBusArrangements(
		[]vst3.SpeakerArrangement{vst3.SpeakerArrStereo, arr},
		[]vst3.SpeakerArrangement{vst3.SpeakerArrStereo}))
	assert.ErrorIs(t, proc.SetBusArrangements(
		[]vst3.SpeakerArrangement{vst3.SpeakerArrMono},
		[]vst3.SpeakerArrangement{vst3.SpeakerArrStereo}), vst3.ResultFalse)

	assert.NoError(t, proc.CanProcessSampleSize(vst3.Sample32))
	assert.Error(t, proc.CanProcessSampleSize(vst3.Sample64))
	assert.Equal(t, uint32(32), proc.LatencySamples())
	assert.Equal(t, uint32(64), proc.TailSamples())
}

func TestProcessCopiesMainBuses(t *testing.T) {
	const frames = 64
	f := openFactory(t, true)
	comp, proc, _ := createGain(t, f)

	setup := vst3.ProcessSetup{
		ProcessMode:        vst3.ProcessModeRealtime,
		SymbolicSampleSize: vst3.Sample32,
		MaxSamplesPerBlock: frames,
		SampleRate:         44100,
		MaxParamChanges:    4,
	}
	require.NoError(t, proc.SetupProcessing(setup, []int32{2, 1}, []int32{2}))
	require.NoError(t, comp.SetActive(true))
	c := nativetest.Read()
	assert.Equal(t, int32(frames), c.MaxBlock)
	assert.Equal(t, 44100.0, c.SampleRate)

	in := [][]float32{make([]float32, frames), make([]float32, frames)}
	out := [][]float32{make([]float32, frames), make([]float32, frames)}
	for i := range frames {
		in[0][i] = float32(i) / frames
		in[1][i] = -float32(i) / frames
	}

	data := vst3.ProcessData{
		NumSamples:     frames,
		Inputs:         in,
		Outputs:        out,
		ParamChanges:   []vst3.ParamChange{{ID: nativetest.GainParamID, Value: 0.25}},
		ContinuousTime: 128,
	}
	require.Equal(t, vst3.ResultOK, proc.Process(&data))
	assert.Zero(t, data.DroppedChanges)

	c = nativetest.Read()
	assert.Equal(t, 1, c.Blocks)
	assert.Equal(t, 1, c.ChangeQueues)
	assert.Equal(t, vst3.ParamChange{ID: nativetest.GainParamID, Value: 0.25}, c.LastChange)
	assert.Equal(t, int64(128), c.LastTime)
	assert.Zero(t, c.AuxPeak)
	for ch := range out {
		for i := range frames {
			assert.InDelta(t, in[ch][i]*0.5, out[ch][i], 1e-6, "channel %d frame %d", ch, i)
		}
	}

	data.ParamChanges = nil
	data.NumSamples = frames / 2
	clear(out[0])
	require.Equal(t, vst3.ResultOK, proc.Process(&data))
	c = nativetest.Read()
	assert.Zero(t, c.ChangeQueues, "changes are per block")
	assert.Zero(t, c.AuxPeak, "the sidechain is cleared every block")
	assert.InDelta(t, in[0][frames/2-1]*0.5, out[0][frames/2-1], 1e-6)
	assert.Zero(t, out[0][frames/2], "frames past NumSamples are untouched")

	data.NumSamples = frames + 1
	assert.Equal(t, vst3.ResultInvalidArgument, proc.Process(&data))

	proc.ReleaseBuffers()
	data.NumSamples = frames
	assert.Equal(t, vst3.ResultNotInitialized, proc.Process(&data))
	require.NoError(t, comp.SetActive(false))
}

func TestProcessReportsDroppedChanges(t *testing.T) {
	f := openFactory(t, true)
	comp, proc, _ := createGain(t, f)

	setup := vst3.ProcessSetup{MaxSamplesPerBlock: 16, SampleRate: 48000, MaxParamChanges: 2}
	require.NoError(t, proc.SetupProcessing(setup, []int32{2, 1}, []int32{2}))
	require.NoError(t, comp.SetActive(true))

	out := [][]float32{make([]float32, 16), make([]float32, 16)}
	data := vst3.ProcessData{
		NumSamples: 16,
		Outputs:    out,
		ParamChanges: []vst3.ParamChange{
			{ID: nativetest.GainParamID, Value: 0.1},
			{ID: 100, Value: 0.2},
			{ID: nativetest.GainParamID, Value: 0.3},
			{ID: 101, Value: 0.4},
			{ID: 102, Value: 0.5},
		},
	}
	require.Equal(t, vst3.ResultOK, proc.Process(&data))
	assert.Equal(t, int32(2), data.DroppedChanges, "two distinct ids fit, a repeated id reuses its queue")
	assert.Equal(t, 2, nativetest.Read().ChangeQueues)
	require.NoError(t, comp.SetActive(false))
}

func TestStateRoundTrip(t *testing.T) {
	f := openFactory(t, true)
	comp, _, ctrl := createGain(t, f)

	state, err := comp.State()
	require.NoError(t, err)
	require.Len(t, state, 8)
	assert.Equal(t, 0.5, math.Float64frombits(binary.NativeEndian.Uint64(state)), "default value")

	want := binary.NativeEndian.AppendUint64(nil, math.Float64bits(0.8))
	require.NoError(t, comp.SetState(want))
	got, err := comp.State()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, ctrl.SetComponentState(got))
	assert.Equal(t, 0.8, ctrl.ParamNormalized(nativetest.GainParamID))

	assert.ErrorIs(t, comp.SetState([]byte{1, 2, 3}), vst3.ResultFalse, "short state is refused")
	assert.ErrorIs(t, comp.SetState(nil), vst3.ResultFalse)
}

func TestControllerParameters(t *testing.T) {
	f := openFactory(t, true)
	_, _, ctrl := createGain(t, f)

	require.Equal(t, int32(1), ctrl.ParameterCount())
	pi, err := ctrl.ParameterInfo(0)
	require.NoError(t, err)
	assert.Equal(t, vst3.ParameterInfo{
		ID:                nativetest.GainParamID,
		Title:             "Gain",
		ShortTitle:        "Gn",
		Units:             "x",
		DefaultNormalized: 0.5,
		Flags:             vst3.ParameterCanAutomate,
	}, pi)

	_, err = ctrl.ParameterInfo(1)
	assert.ErrorIs(t, err, vst3.ResultInvalidArgument)

	s, err := ctrl.ParamStringByValue(nativetest.GainParamID, 0.25)
	require.NoError(t, err)
	assert.Equal(t, "0.50", s)

	assert.Equal(t, 2.0, ctrl.NormalizedParamToPlain(nativetest.GainParamID, 1))
	assert.Equal(t, 0.25, ctrl.PlainParamToNormalized(nativetest.GainParamID, 0.5))
	require.NoError(t, ctrl.SetParamNormalized(nativetest.GainParamID, 0.6))
	assert.Equal(t, 0.6, ctrl.ParamNormalized(nativetest.GainParamID))
	assert.ErrorIs(t, ctrl.SetParamNormalized(99, 0.1), vst3.ResultInvalidArgument)
}

func TestHostOverNativeBridge(t *testing.T) {
	nativetest.Reset(true)
	dir := t.TempDir()
	_, modulePath := hosttest.WriteBundle(t, dir, "NativeGain")
	logger := slog.New(slog.DiscardHandler)
	loader, err := native.NewLoader(native.WithLogger(logger), native.WithStaticModule(modulePath, nativetest.Entry()))
	require.NoError(t, err)

	s, err := host.NewScanner(host.WithLoader(loader), host.WithSearchPaths(dir), host.WithLogger(logger))
	require.NoError(t, err)
	infos, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1, "controller classes are not listed")
	info := infos[0]
	assert.Equal(t, "Native Gain", info.Name)
	assert.Equal(t, "Native Test Labs", info.Manufacturer)
	assert.Equal(t, host.PluginTypeEffect, info.Type)

	inst, err := s.Load(context.Background(), info)
	require.NoError(t, err)
	require.NoError(t, inst.Initialize(48000, 32))
	c := nativetest.Read()
	assert.True(t, c.Active)
	assert.True(t, c.InputBusActive)
	assert.True(t, c.OutputBusActive)

	p, err := inst.ParameterInfo(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Min)
	assert.Equal(t, 2.0, p.Max)
	require.NoError(t, inst.SetParameter(0, 1.5))

	in, err := inst.NewInputBuffer()
	require.NoError(t, err)
	out, err := inst.NewOutputBuffer()
	require.NoError(t, err)
	for _, ch := range in.Channels() {
		for i := range ch {
			ch[i] = 0.25
		}
	}
	require.NoError(t, inst.Process(in, out))
	assert.Equal(t, vst3.ParamChange{ID: nativetest.GainParamID, Value: 0.75}, nativetest.Read().LastChange)
	for _, ch := range out.Channels() {
		for _, v := range ch {
			assert.InDelta(t, 0.375, v, 1e-6)
		}
	}

	state, err := inst.Snapshot()
	require.NoError(t, err)
	require.NoError(t, inst.Restore(state))

	require.NoError(t, inst.Terminate())
	c = nativetest.Read()
	assert.Zero(t, c.Live)
	assert.Zero(t, c.FactoryRefs)
	assert.Zero(t, c.Initialized)
	assert.Zero(t, s.OpenModules())
}
