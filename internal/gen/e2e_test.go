package gen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchgen-build/sketchgen/internal/config"
)

// Full run over a real configuration document: load, merge, render, write.
func TestGenerateFromConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "blink"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blink", "blink.ino"), []byte("void setup() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sketch.yaml"), []byte(`fqbn: arduino:sam:arduino_due_x
cflags:
  - -Wall
`), 0o644))

	cfg, err := config.Load([]string{"sketch.yaml"}, dir)
	require.NoError(t, err)

	mk := NewMakefile(cfg,
		mustPath(t, "blink/Makefile", dir),
		mustPath(t, "blink/blink.ino", dir), "")
	f, err := mk.Render()
	require.NoError(t, err)
	require.NoError(t, WriteAll([]File{f}))

	data, err := os.ReadFile(filepath.Join(dir, "blink", "Makefile"))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "FQBN := arduino:sam:arduino_due_x")
	assert.Contains(t, content, "compiler.cpp.extra_flags=-Wall")
	assert.Contains(t, content, "compiler.c.extra_flags=-Wall")
	assert.NotContains(t, content, "--library")
}

func TestGenerateAbortsWithoutFqbn(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sketch.yaml"), []byte("cflags: [-Wall]\n"), 0o644))

	_, err := config.Load([]string{"sketch.yaml"}, dir)
	require.Error(t, err)

	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)

	// loading fails before anything could be rendered or written
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
	assert.Equal(t, "sketch.yaml", entries[0].Name())
}
