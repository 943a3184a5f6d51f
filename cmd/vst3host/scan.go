package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justyntemme/vst3host/pkg/host"
	"github.com/justyntemme/vst3host/pkg/query"
)

const (
	flagOutput = "output"
	flagFilter = "filter"
	flagLatest = "latest"
)

func newScanCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List the plugins found in the search paths",
		Long: `List the plugins found in the search paths.

Bundles that cannot be read are skipped and reported in the log. The
--filter flag takes a CEL expression over the variables id, name,
manufacturer, kind (Effect, Instrument or Other), categories, version,
sdkVersion, cardinality, bundle and source.`,
		Example: `vst3host scan
vst3host scan --filter 'kind == "Instrument"' -o json
vst3host scan --path ./plugins --latest -oyaml`,
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, _ := cmd.Flags().GetString(flagOutput)
			expr, _ := cmd.Flags().GetString(flagFilter)
			latest, _ := cmd.Flags().GetBool(flagLatest)
			return a.scan(cmd, output, expr, latest)
		},
	}

	cmd.Flags().StringP(flagOutput, "o", outputTable, "output format (table, json, yaml)")
	cmd.Flags().String(flagFilter, "", "CEL expression selecting plugins")
	cmd.Flags().Bool(flagLatest, false, "keep only the newest version of each class id")
	return cmd
}

func (a *app) scan(cmd *cobra.Command, output, expr string, latest bool) error {
	if err := checkOutput(output); err != nil {
		return err
	}
	var filter *query.Filter
	if expr != "" {
		f, err := query.Compile(expr)
		if err != nil {
			return err
		}
		filter = f
	}

	s, err := a.scanner()
	if err != nil {
		return err
	}
	infos, err := s.Scan(cmd.Context())
	if err != nil {
		return err
	}
	if latest {
		infos = host.Latest(infos)
	}
	if filter != nil {
		if infos, err = filter.Apply(cmd.Context(), infos); err != nil {
			return err
		}
	}

	if err := encodePlugins(cmd.OutOrStdout(), output, infos); err != nil {
		return fmt.Errorf("writing plugins failed: %w", err)
	}
	return nil
}
