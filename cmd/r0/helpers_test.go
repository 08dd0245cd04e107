package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/spf13/cobra"

	"github.com/r0-loop/r0/internal/config"
)

// chdirTemp moves into a fresh temp dir with an isolated HOME and a clean
// R0_* environment, and resets global flag state.
func chdirTemp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })

	t.Setenv("HOME", t.TempDir())
	for _, key := range configEnvVars {
		t.Setenv(key, "")
	}
	t.Setenv(config.EnvIterationDelay, "0s")

	verbose = false
	output = ""
	cfgFile = ""
	dirFlag = ""
	runAgent = ""
	runHourlyBudget = ""
	runDailyBudget = ""
	runMaxIterations = 0
	configShow = false
	return tmp
}

// captureOutput points cmd at a buffer for the duration of the test.
func captureOutput(t *testing.T, cmd *cobra.Command) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetErr(nil)
	})
	return &buf
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
