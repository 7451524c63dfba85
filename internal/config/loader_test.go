package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSingleDocument(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "sketch.yaml", `fqbn: arduino:sam:arduino_due_x
cflags:
  - -Wall
`)

	cfg, err := Load([]string{"sketch.yaml"}, dir)
	require.NoError(t, err)

	assert.Equal(t, "arduino:sam:arduino_due_x", cfg.Fqbn)
	assert.Equal(t, []string{"-Wall"}, cfg.CflagValues())
	assert.Empty(t, cfg.Libs)

	// unspecified options keep their defaults
	assert.Equal(t, DefaultBaudrate, cfg.Baudrate)
	assert.Equal(t, DefaultDebugCommand, cfg.DebugCommand)
}

func TestScalarLastWins(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "first.yaml", `fqbn: arduino:avr:uno
baudrate: 9600
`)
	writeDoc(t, dir, "second.yaml", `fqbn: arduino:sam:arduino_due_x
`)

	cfg, err := Load([]string{"first.yaml", "second.yaml"}, dir)
	require.NoError(t, err)

	assert.Equal(t, "arduino:sam:arduino_due_x", cfg.Fqbn)
	// untouched by the second document
	assert.Equal(t, "9600", cfg.Baudrate)
}

func TestArraysAppendWithoutDeduplication(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "first.yaml", `fqbn: arduino:avr:uno
cflags: [-Wall, -Os]
`)
	writeDoc(t, dir, "second.yaml", `cflags: [-Wall, -DDEBUG]
`)

	cfg, err := Load([]string{"first.yaml", "second.yaml"}, dir)
	require.NoError(t, err)

	// duplicate flags survive in order: later duplicates may override earlier
	// ones in the consumer
	assert.Equal(t, []string{"-Wall", "-Os", "-Wall", "-DDEBUG"}, cfg.CflagValues())
}

func TestIncludesExpandBeforeTheIncluder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "x"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "y"), 0o755))

	writeDoc(t, dir, "a.yaml", `fqbn: arduino:avr:uno
baudrate: 57600
configs:
  - b.yaml
libs:
  - x
`)
	writeDoc(t, dir, "b.yaml", `baudrate: 9600
libs:
  - y
`)

	cfg, err := Load([]string{"a.yaml"}, dir)
	require.NoError(t, err)

	// b expands before a: a's arrays come after b's, a's scalars win
	require.Len(t, cfg.Libs, 2)
	assert.Equal(t, filepath.Join(dir, "y"), cfg.Libs[0].Abs)
	assert.Equal(t, filepath.Join(dir, "x"), cfg.Libs[1].Abs)
	assert.Equal(t, "57600", cfg.Baudrate)

	// document order is recorded for the IDE file list
	require.Len(t, cfg.Documents, 2)
	assert.Equal(t, filepath.Join(dir, "b.yaml"), cfg.Documents[0].Abs)
	assert.Equal(t, filepath.Join(dir, "a.yaml"), cfg.Documents[1].Abs)
}

func TestArrayElementsResolveAgainstTheirOwnDocument(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "main/sketch.yaml", `fqbn: arduino:avr:uno
configs:
  - ../shared/common.yaml
libs:
  - lib
`)
	writeDoc(t, dir, "shared/common.yaml", `libs:
  - lib
`)

	cfg, err := Load([]string{filepath.Join("main", "sketch.yaml")}, dir)
	require.NoError(t, err)

	// identical strings, different declaring files, different resolutions
	require.Len(t, cfg.Libs, 2)
	assert.Equal(t, filepath.Join(dir, "shared", "lib"), cfg.Libs[0].Abs)
	assert.Equal(t, filepath.Join(dir, "main", "lib"), cfg.Libs[1].Abs)
}

func TestMissingFqbn(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "sketch.yaml", `cflags: [-Wall]
`)

	_, err := Load([]string{"sketch.yaml"}, dir)
	require.Error(t, err)

	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "fqbn", cfgErr.Field)
}

func TestMissingIncludeFile(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "sketch.yaml", `fqbn: arduino:avr:uno
configs:
  - nowhere.yaml
`)

	_, err := Load([]string{"sketch.yaml"}, dir)
	require.Error(t, err)

	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.File, "nowhere.yaml")
}

func TestMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "sketch.yaml", "fqbn: \"unterminated\ncflags: [broken")

	_, err := Load([]string{"sketch.yaml"}, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestCircularInclusion(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.yaml", `fqbn: arduino:avr:uno
configs: [b.yaml]
`)
	writeDoc(t, dir, "b.yaml", `configs: [a.yaml]
`)

	_, err := Load([]string{"a.yaml"}, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular")
}

func TestTomlDocument(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "sketch.toml", `fqbn = "arduino:avr:uno"
cflags = ["-Wall"]
baudrate = "115200"
`)

	cfg, err := Load([]string{"sketch.toml"}, dir)
	require.NoError(t, err)

	assert.Equal(t, "arduino:avr:uno", cfg.Fqbn)
	assert.Equal(t, []string{"-Wall"}, cfg.CflagValues())
}

func TestNumericBaudrateScalar(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "sketch.yaml", `fqbn: arduino:avr:uno
baudrate: 9600
`)

	cfg, err := Load([]string{"sketch.yaml"}, dir)
	require.NoError(t, err)
	assert.Equal(t, "9600", cfg.Baudrate)
}

func TestNonNumericBaudrateRejected(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "sketch.yaml", `fqbn: arduino:avr:uno
baudrate: fast
`)

	_, err := Load([]string{"sketch.yaml"}, dir)
	require.Error(t, err)

	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "baudrate", cfgErr.Field)
}

func TestExpressionInterpolation(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "sketch.yaml", `fqbn: arduino:avr:uno
cflags:
  - -DTARGET_OS={{ target_os }}
`)

	cfg, err := Load([]string{"sketch.yaml"}, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"-DTARGET_OS=" + runtime.GOOS}, cfg.CflagValues())
}

func TestConfigString(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.yaml", `fqbn: arduino:avr:uno
configs: [b.yaml]
`)
	writeDoc(t, dir, "b.yaml", `cflags: [-Wall]
`)

	cfg, err := Load([]string{"a.yaml"}, dir)
	require.NoError(t, err)

	s := cfg.String()
	assert.Contains(t, s, "a.yaml")
	assert.Contains(t, s, "b.yaml")
	assert.Contains(t, s, "arduino:avr:uno")
	assert.Contains(t, s, "-Wall")
}
