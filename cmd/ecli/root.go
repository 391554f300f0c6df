package main

import (
	"fmt"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"ecli/internal/catalog"
	"ecli/internal/config"
	"ecli/internal/core"
	"ecli/pkg/types"
)

// options collects global flags and the loaded configuration.
type options struct {
	configPath string
	logLevel   string
	cfg        config.Config
	exitCode   int
}

func buildRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "ecli",
		Short:         "Run and manage eBPF trackers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (.yaml, .yml, .json, .toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return opts.load()
	}

	root.AddCommand(newRunCmd(opts), newServerCmd(opts), newClientCmd())
	return root
}

// load reads the config file (if any), applies flag overrides and defaults,
// then installs the logger.
func (o *options) load() error {
	if o.configPath != "" {
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		o.cfg = cfg
	}
	if o.logLevel != "" {
		o.cfg.LogLevel = o.logLevel
	}
	o.cfg.ApplyDefaults()
	if err := o.cfg.Validate(); err != nil {
		return err
	}
	return setupLogging(o.cfg.LogLevel)
}

// enabledTrackers returns the configured trackers plus any discovered in
// trackers_dir.
func (o *options) enabledTrackers() ([]types.TrackerConfig, error) {
	trackers := o.cfg.EnabledTrackers
	if o.cfg.TrackersDir == "" {
		return trackers, nil
	}
	found, err := catalog.LoadDir(o.cfg.TrackersDir)
	if err != nil {
		return nil, fmt.Errorf("scan trackers_dir: %w", err)
	}
	return catalog.Merge(trackers, found), nil
}

func (o *options) newCore(trackers []types.TrackerConfig) *core.Core {
	return core.New(core.Config{
		EnabledTrackers: trackers,
		ExitAfter:       o.cfg.ExitAfterDuration(),
		Server:          o.cfg.ServerMode(),
	})
}

// splitArgs tokenizes a shell-style argument string.
func splitArgs(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	args, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("parse args %q: %w", s, err)
	}
	return args, nil
}
