package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/weval-org/dtef/internal/aggregation"
	"github.com/weval-org/dtef/internal/reporting"
	"github.com/weval-org/dtef/internal/source"
)

func newAggregateCommand(root *rootOptions) *cobra.Command {
	var (
		overrides sourceOverrides
		format    string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate stored evaluation runs into a demographic report",
		Long: `Load every stored evaluation run from the configured source and print the
demographic aggregation: per-model scores across segments, fairness gaps per
category, and context responsiveness when runs cover two or more context levels.

Records come from the results directory (or Azure Blob Storage when
source.kind is azblob in .dtef.yaml). Use --results to read a different
directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := reporting.ParseFormat(format)
			if err != nil {
				return err
			}

			cfg, err := loadProjectConfig(root.dir)
			if err != nil {
				return err
			}
			aggOpts, err := aggregationOptions(cfg)
			if err != nil {
				return err
			}
			src, err := source.New(sourceOptions(cfg, root.dir, overrides))
			if err != nil {
				return fmt.Errorf("creating record source: %w", err)
			}

			records, err := src.Records(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading records: %w", err)
			}
			agg := aggregation.New(aggOpts).Aggregate(records)
			slog.Debug("aggregated",
				"records", len(records),
				"results", agg.ResultCount,
				"models", len(agg.ModelResults))

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer file.Close() //nolint:errcheck
				w = file
			}
			if err := reporting.Write(w, agg, f); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			if output != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", output) //nolint:errcheck
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&overrides.results, "results", "", "Results directory (overrides .dtef.yaml)")
	cmd.Flags().BoolVar(&overrides.strict, "strict", false, "Skip files that fail schema validation")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, markdown, or html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to a file instead of stdout")

	return cmd
}
