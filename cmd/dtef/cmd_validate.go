package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/weval-org/dtef/internal/source"
	"github.com/weval-org/dtef/internal/validation"
)

func newValidateCommand() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "validate <file-or-dir> [file-or-dir ...]",
		Short: "Check results files against the evaluation record schema",
		Long: `Validate stored evaluation run files against the record JSON schema.

Each argument may be a results file (.json, .json.gz, .json.zst) or a
directory, which is searched recursively. Exits with status 1 when any file
has problems.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectRecordFiles(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no results files found in %v", args)
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range files {
				problems := validateFile(path)
				if len(problems) == 0 {
					if !quiet {
						fmt.Fprintf(out, "✓ %s\n", path) //nolint:errcheck
					}
					continue
				}
				failed++
				printProblems(out, path, problems)
			}

			fmt.Fprintf(out, "\n%d file(s) checked, %d with problems\n", len(files), failed) //nolint:errcheck
			if failed > 0 {
				return &ValidationFailedError{Files: failed}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only list files with problems")

	return cmd
}

func collectRecordFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := source.NewDirSource(arg, source.Options{}).Files()
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func validateFile(path string) []string {
	data, err := source.ReadRecordFile(path)
	if err != nil {
		return []string{err.Error()}
	}
	return validation.ValidateRecordBytes(data)
}

func printProblems(w io.Writer, path string, problems []string) {
	fmt.Fprintf(w, "✗ %s\n", path) //nolint:errcheck
	for _, p := range problems {
		fmt.Fprintf(w, "    %s\n", p) //nolint:errcheck
	}
}
