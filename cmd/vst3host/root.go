package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justyntemme/vst3host/pkg/config"
	"github.com/justyntemme/vst3host/pkg/host"
)

const (
	flagConfig    = "config"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
	flagPath      = "path"
)

// app is the state shared by all sub-commands, filled in before they run.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	extra  []host.Option
}

// newRootCommand builds the command tree. extra is appended to the scanner
// options derived from the configuration.
func newRootCommand(extra ...host.Option) *cobra.Command {
	a := &app{extra: extra}

	cmd := &cobra.Command{
		Use:   "vst3host [sub-command]",
		Short: "Scan, inspect and exercise VST3 plugins",
		Long: `vst3host finds VST3 bundles in the platform search paths, lists the
plugins they contain, and loads plugins to inspect their parameters or
run audio through them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: a.setup,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	cmd.PersistentFlags().String(flagConfig, "", "path of a vst3host.yaml configuration file")
	cmd.PersistentFlags().String(flagLogLevel, "", "log level (debug, info, warn, error, off)")
	cmd.PersistentFlags().String(flagLogFormat, "", "log format (text, json)")
	cmd.PersistentFlags().StringSlice(flagPath, nil, "bundle search directory, repeatable; replaces the configured paths")

	cmd.AddCommand(newScanCommand(a))
	cmd.AddCommand(newInfoCommand(a))
	cmd.AddCommand(newProcessCommand(a))
	cmd.AddCommand(newWatchCommand(a))
	return cmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	path, err := flags.GetString(flagConfig)
	if err != nil {
		return fmt.Errorf("getting config flag failed: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if flags.Changed(flagLogLevel) {
		cfg.Log.Level, _ = flags.GetString(flagLogLevel)
	}
	if flags.Changed(flagLogFormat) {
		cfg.Log.Format, _ = flags.GetString(flagLogFormat)
	}
	if flags.Changed(flagPath) {
		cfg.SearchPaths, _ = flags.GetStringSlice(flagPath)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

func (a *app) scanner() (*host.Scanner, error) {
	opts, err := a.cfg.ScannerOptions(a.logger)
	if err != nil {
		return nil, err
	}
	return host.NewScanner(append(opts, a.extra...)...)
}

// findPlugin picks the plugin named by ref, a class id or a plugin name.
// Names are compared ignoring case and must be unique.
func findPlugin(infos []host.PluginInfo, ref string) (host.PluginInfo, error) {
	var matches []host.PluginInfo
	for _, info := range infos {
		if strings.EqualFold(info.ID.String(), ref) {
			return info, nil
		}
		if strings.EqualFold(info.Name, ref) {
			matches = append(matches, info)
		}
	}
	switch len(matches) {
	case 0:
		return host.PluginInfo{}, fmt.Errorf("no plugin named %q", ref)
	case 1:
		return matches[0], nil
	default:
		return host.PluginInfo{}, fmt.Errorf("%d plugins are named %q, use the class id", len(matches), ref)
	}
}

// loadPlugin scans, loads the plugin named by ref and initializes it with
// the configured audio setup.
func (a *app) loadPlugin(cmd *cobra.Command, ref string) (*host.PluginInstance, error) {
	s, err := a.scanner()
	if err != nil {
		return nil, err
	}
	infos, err := s.Scan(cmd.Context())
	if err != nil {
		return nil, err
	}
	info, err := findPlugin(infos, ref)
	if err != nil {
		return nil, err
	}
	inst, err := s.Load(cmd.Context(), info)
	if err != nil {
		return nil, err
	}
	if err := inst.Initialize(a.cfg.Audio.SampleRate, a.cfg.Audio.BlockSize); err != nil {
		_ = inst.Terminate()
		return nil, err
	}
	return inst, nil
}
