package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/justyntemme/vst3host/pkg/host"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var outputFormats = []string{outputTable, outputJSON, outputYAML}

func checkOutput(format string) error {
	for _, f := range outputFormats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("unknown output format %q, want one of %s", format, strings.Join(outputFormats, "|"))
}

func encodePlugins(w io.Writer, format string, infos []host.PluginInfo) error {
	if infos == nil {
		infos = []host.PluginInfo{}
	}
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(infos); err != nil {
			return err
		}
		return enc.Close()
	case outputTable:
		t := newTable(w)
		t.AppendHeader(table.Row{"Name", "Vendor", "Type", "Version", "Categories", "ID", "Bundle"})
		for _, info := range infos {
			t.AppendRow(table.Row{
				info.Name, info.Manufacturer, info.Type, info.Version,
				strings.Join(info.Categories(), ", "), info.ID, info.BundlePath,
			})
		}
		t.Render()
		return nil
	default:
		return checkOutput(format)
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	return t
}
