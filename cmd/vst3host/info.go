package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/justyntemme/vst3host/pkg/host"
)

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info {plugin}",
		Short: "Load a plugin and show its details and parameters",
		Long: `Load a plugin, initialize it with the configured sample rate and block
size, and show its details and parameters. The plugin is named by its
class id or, when unique, by its name.`,
		Example:           `vst3host info "Tape Delay"`,
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := a.loadPlugin(cmd, args[0])
			if err != nil {
				return err
			}
			defer inst.Terminate()
			return writeInfo(cmd.OutOrStdout(), inst)
		},
	}
}

func writeInfo(w io.Writer, inst *host.PluginInstance) error {
	info := inst.Info()
	latency, err := inst.LatencySamples()
	if err != nil {
		return err
	}
	tail, err := inst.TailSamples()
	if err != nil {
		return err
	}

	t := newTable(w)
	t.AppendRows([]table.Row{
		{"Name", info.Name},
		{"Vendor", info.Manufacturer},
		{"Type", info.Type},
		{"Categories", strings.Join(inst.Categories(), ", ")},
		{"Version", info.Version},
		{"SDK", info.SDKVersion},
		{"Class ID", info.ID},
		{"Bundle", info.BundlePath},
		{"Capabilities", inst.Capabilities()},
		{"Latency", fmt.Sprintf("%d samples", latency)},
		{"Tail", fmt.Sprintf("%d samples", tail)},
	})
	t.Render()

	n := inst.ParameterCount()
	fmt.Fprintf(w, "\n%d parameters\n", n)
	if n == 0 {
		return nil
	}

	p := newTable(w)
	p.AppendHeader(table.Row{"#", "Name", "Value", "Min", "Max", "Default", "Unit", "Flags"})
	for i := range n {
		pi, err := inst.ParameterInfo(i)
		if err != nil {
			return err
		}
		p.AppendRow(table.Row{i, pi.Name, pi.Display, pi.Min, pi.Max, pi.Default, pi.Unit, paramFlags(pi)})
	}
	p.Render()
	return nil
}

func paramFlags(pi host.ParameterInfo) string {
	var flags []string
	if pi.ReadOnly() {
		flags = append(flags, "read-only")
	}
	if pi.Automatable() {
		flags = append(flags, "automate")
	}
	if pi.StepCount > 0 {
		flags = append(flags, fmt.Sprintf("%d steps", pi.StepCount))
	}
	return strings.Join(flags, ", ")
}
