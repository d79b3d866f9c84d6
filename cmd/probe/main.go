package main

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/profrate/internal/probe"
	"github.com/okian/profrate/pkg/logger"
)

// Default configuration constants.
const (
	defaultRepeat    = 5
	defaultWorkers   = 2 // multiplier for runtime.NumCPU()
	defaultTimeout   = 30 * time.Second
	defaultRunBudget = 10 * time.Minute
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &probe.Config{}

	cmd := &cobra.Command{
		Use:   "probe [flags] NAME...",
		Short: "Probe a running profrate instance for stable professor scores",
		Long: `probe resolves each NAME through the overview route several times in
parallel, fetches its comments once, prints a summary table and exits
non-zero if any name returned differing overviews.`,
		Example: `  probe "Jane Doe" "John Smith"
  probe --url http://localhost:8080 --repeat 20 --course MATH101 "Jane Doe"`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init(); err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultRunBudget)
			defer cancel()

			cfg.Names = args
			cfg.Logger = logger.Get()
			_, err := probe.Run(ctx, cfg, cmd.OutOrStdout())
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.BaseURL, "url", "http://localhost:8000", "Base URL of the service")
	flags.IntVar(&cfg.Repeat, "repeat", defaultRepeat, "Overview requests per name")
	flags.StringVar(&cfg.Course, "course", "", "Course filter for the comments request")
	flags.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
	flags.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log every request")

	return cmd
}
