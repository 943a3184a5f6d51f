package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/justyntemme/vst3host/pkg/debug"
	"github.com/justyntemme/vst3host/pkg/host"
)

const (
	flagBlocks    = "blocks"
	flagFrequency = "frequency"
	flagAmplitude = "amplitude"
	flagSet       = "set"
	flagSignal    = "signal"
)

var errNonFinite = errors.New("plugin produced non-finite samples")

type processOptions struct {
	signal    string
	blocks    int
	frequency float64
	amplitude float64
	set       []string
}

func newProcessCommand(a *app) *cobra.Command {
	var o processOptions
	cmd := &cobra.Command{
		Use:   "process {plugin}",
		Short: "Run a test signal through a plugin and analyze the output",
		Long: `Run a test signal through a plugin for a number of blocks and report
the output level, non-finite samples and how much of the real-time budget
processing took. Instruments get no input.`,
		Example: `vst3host process Delay --blocks 1000
vst3host process Delay --set Gain=-6 --set Mix=100`,
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := a.loadPlugin(cmd, args[0])
			if err != nil {
				return err
			}
			defer inst.Terminate()
			return a.process(cmd.OutOrStdout(), inst, o)
		},
	}

	cmd.Flags().StringVar(&o.signal, flagSignal, "sine", "test signal (sine, saw, square, noise, impulse, silence)")
	cmd.Flags().IntVar(&o.blocks, flagBlocks, 100, "number of blocks to process")
	cmd.Flags().Float64Var(&o.frequency, flagFrequency, 440, "test tone frequency in Hz")
	cmd.Flags().Float64Var(&o.amplitude, flagAmplitude, 0.5, "test tone amplitude")
	cmd.Flags().StringArrayVar(&o.set, flagSet, nil, "set a parameter before processing, as name=value in plain units")
	return cmd
}

func (a *app) process(w io.Writer, inst *host.PluginInstance, o processOptions) error {
	if o.blocks <= 0 {
		return fmt.Errorf("--%s must be positive, got %d", flagBlocks, o.blocks)
	}
	wave, err := debug.ParseWaveform(o.signal)
	if err != nil {
		return err
	}
	for _, s := range o.set {
		if err := setParameter(inst, s); err != nil {
			return err
		}
	}

	in, err := inst.NewInputBuffer()
	if err != nil {
		return err
	}
	out, err := inst.NewOutputBuffer()
	if err != nil {
		return err
	}

	sampleRate := a.cfg.Audio.SampleRate
	gen := debug.NewSignalGenerator(wave, sampleRate, o.frequency, float32(o.amplitude))
	profiler := debug.NewBlockProfiler(sampleRate, out.NumFrames())
	analyzer := debug.NewAudioAnalyzer()
	var total debug.AnalysisResult
	var issues []string

	for block := range o.blocks {
		gen.Fill(in.Channels())

		stop := profiler.Start(debug.BlockSection)
		err := inst.Process(in, out)
		stop()
		if err != nil {
			return fmt.Errorf("block %d: %w", block, err)
		}

		r := analyzer.AnalyzeChannels(out.Channels())
		total.Samples += r.Samples
		total.Peak = max(total.Peak, r.Peak)
		total.ClippedSamples += r.ClippedSamples
		total.NaNCount += r.NaNCount
		total.InfCount += r.InfCount
		if len(issues) == 0 {
			issues = analyzer.Issues(r, fmt.Sprintf("block %d", block))
		}
		if block == o.blocks-1 {
			total.RMS, total.DC = r.RMS, r.DC
		}
	}

	m, _ := profiler.Measurement(debug.BlockSection)
	t := newTable(w)
	t.AppendRows([]table.Row{
		{"Plugin", inst.Info().Name},
		{"Signal", fmt.Sprintf("%s %g Hz", wave, o.frequency)},
		{"Blocks", fmt.Sprintf("%d x %d frames", o.blocks, out.NumFrames())},
		{"Peak", fmt.Sprintf("%.4f", total.Peak)},
		{"RMS (last block)", fmt.Sprintf("%.4f", total.RMS)},
		{"Clipped samples", total.ClippedSamples},
		{"NaN / Inf", fmt.Sprintf("%d / %d", total.NaNCount, total.InfCount)},
		{"Average block", m.Average()},
		{"P99 block", m.Percentile(99)},
		{"CPU load", fmt.Sprintf("%.1f%%", profiler.Load())},
		{"Overruns", profiler.Overruns()},
	})
	t.Render()

	for _, issue := range issues {
		fmt.Fprintln(w, "warning:", issue)
	}
	if !total.Finite() {
		return errNonFinite
	}
	return nil
}

// setParameter applies one name=value assignment.
func setParameter(inst *host.PluginInstance, assignment string) error {
	name, raw, ok := strings.Cut(assignment, "=")
	if !ok {
		return fmt.Errorf("parameter assignment %q is not name=value", assignment)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("parameter %s: %w", name, err)
	}
	name = strings.TrimSpace(name)
	for i := range inst.ParameterCount() {
		pi, err := inst.ParameterInfo(i)
		if err != nil {
			return err
		}
		if strings.EqualFold(pi.Name, name) || strings.EqualFold(pi.ShortName, name) {
			return inst.SetParameter(i, value)
		}
	}
	return fmt.Errorf("plugin has no parameter named %q", name)
}
