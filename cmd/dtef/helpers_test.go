package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func recordJSON(configID, segmentID string, score float64) string {
	return fmt.Sprintf(`{
  "configId": %q,
  "runLabel": "r1",
  "timestamp": "2025-05-01T10:00:00Z",
  "dtefContext": {"surveyId": "gd4", "segmentId": %q},
  "evaluationResults": {"llmCoverageScores": {"p1": {"openai:gpt-4o": {"avgCoverageExtent": %g}}}}
}`, configID, segmentID, score)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// runCLI executes the root command with args and returns its combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return output.String(), err
}
