package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/justyntemme/vst3host/pkg/bundle"
)

const flagDebounce = "debounce"

func newWatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Report plugins as bundles are installed, replaced or removed",
		Long: `Scan once, then watch the search paths and rescan every bundle that
changes until interrupted.`,
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			debounce, _ := cmd.Flags().GetDuration(flagDebounce)
			return a.watch(cmd, debounce)
		},
	}
	cmd.Flags().Duration(flagDebounce, bundle.DefaultDebounce, "quiet period before a changed bundle is rescanned")
	return cmd
}

func (a *app) watch(cmd *cobra.Command, debounce time.Duration) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	roots := a.cfg.SearchPaths
	if len(roots) == 0 {
		roots = bundle.DefaultPaths()
	}
	watcher, err := bundle.NewWatcher(roots, debounce, a.logger)
	if err != nil {
		return err
	}

	s, err := a.scanner()
	if err != nil {
		return err
	}
	infos, err := s.Scan(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d plugins, watching %d paths\n", len(infos), len(roots))

	for change := range watcher.Run(ctx) {
		for _, path := range change.Bundles {
			found, err := s.ScanBundle(ctx, path)
			if err != nil {
				fmt.Fprintf(w, "- %s: %v\n", path, err)
				continue
			}
			for _, info := range found {
				fmt.Fprintf(w, "+ %s (%s, %s) %s\n", info.Name, info.Manufacturer, info.Type, path)
			}
		}
	}
	return nil
}
