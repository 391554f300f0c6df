package main

import (
	"github.com/spf13/cobra"

	"ecli/internal/catalog"
	"ecli/internal/config"
	"ecli/pkg/types"
)

func newRunCmd(opts *options) *cobra.Command {
	var (
		argStr    string
		exitAfter int
		handlers  string
	)
	cmd := &cobra.Command{
		Use:   "run [url|file] [-- program args...]",
		Short: "Run trackers in the foreground until interrupted",
		Example: "  ecli run ./opensnoop.json\n" +
			"  ecli run https://example.com/execsnoop.json --args '--pid 1' --exit-after 10\n" +
			"  ecli run --config ecli.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.cfg.RunSelected = config.ModeRun
			if cmd.Flags().Changed("exit-after") {
				opts.cfg.ExitAfter = exitAfter
				if err := opts.cfg.Validate(); err != nil {
					return err
				}
			}
			trackers, err := opts.enabledTrackers()
			if err != nil {
				return err
			}
			if len(args) > 0 {
				extra, err := splitArgs(argStr)
				if err != nil {
					return err
				}
				tc := types.TrackerConfig{
					URL:  args[0],
					Args: append(extra, args[1:]...),
				}
				for _, h := range splitCSV(handlers) {
					tc.ExportHandlers = append(tc.ExportHandlers, types.HandlerConfig{Name: h})
				}
				trackers = catalog.Merge([]types.TrackerConfig{tc}, trackers)
			}
			c := opts.newCore(trackers)
			defer c.Close()
			opts.exitCode = c.StartEunomia()
			return nil
		},
	}
	cmd.Flags().StringVar(&argStr, "args", "", "Program arguments, shell-quoted (e.g. \"--pid 1 --verbose\")")
	cmd.Flags().IntVar(&exitAfter, "exit-after", 0, "Exit after N seconds (0 waits for Ctrl+C)")
	cmd.Flags().StringVar(&handlers, "handlers", catalog.DefaultHandler, "Comma-separated event handlers for the tracker")
	return cmd
}
