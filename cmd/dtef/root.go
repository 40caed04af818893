package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	dir string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "dtef",
		Short: "DTEF - demographic evaluation aggregation",
		Long: `DTEF aggregates stored evaluation runs of language models predicting how
demographic segments answered survey questions.

It reports per-model accuracy across segments, fairness gaps between the best
and worst segment of each demographic category, and how accuracy responds to
the number of context questions shown to the model.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.dir, "dir", ".", "Project directory used to find .dtef.yaml and resolve relative paths")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newAggregateCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newValidateCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
