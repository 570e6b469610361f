package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/foodielens/dishbook/internal/config"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Config  string
	Verbose bool
}

func (o *rootOptions) load() (config.Config, error) {
	return config.Load(o.Config)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "dishbook",
		Short: "Collect photos and metadata of traditional dishes",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "path to config.yaml (defaults apply when empty)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newExportCommand(opts))

	return cmd
}
