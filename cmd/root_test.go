package cmd

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Re-execs the test binary so the fatal path can call os.Exit without taking
// the test process down with it.
func TestGenerateExitsNonzeroWithoutFqbn(t *testing.T) {
	if dir := os.Getenv("SKETCHGEN_TEST_DIR"); dir != "" {
		rootCmd.SetArgs([]string{
			"--sketch", filepath.Join(dir, "blink", "blink.ino"),
			"--config", filepath.Join(dir, "sketch.yaml"),
			"--makefile", filepath.Join(dir, "blink", "Makefile"),
		})
		rootCmd.Execute()
		return
	}

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "blink"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blink", "blink.ino"), []byte("void setup() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sketch.yaml"), []byte("cflags: [-Wall]\n"), 0o644))

	cmd := exec.Command(os.Args[0], "-test.run=TestGenerateExitsNonzeroWithoutFqbn")
	cmd.Env = append(os.Environ(), "SKETCHGEN_TEST_DIR="+dir)
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr, "output: %s", out)
	assert.NotEqual(t, 0, exitErr.ExitCode())
	assert.Contains(t, string(out), "fqbn")

	// nothing was generated before the abort
	_, statErr := os.Stat(filepath.Join(dir, "blink", "Makefile"))
	assert.True(t, os.IsNotExist(statErr))
}
