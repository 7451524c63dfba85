// Package gen renders the generated build artifacts: the Makefile, the
// optional qmake project pair and its run script. Rendering is pure text
// substitution over line-oriented templates; every artifact is rendered in
// memory before anything is written, and writes are atomic.
package gen

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sketchgen-build/sketchgen/internal/gitinfo"
)

//go:embed templates
var templates embed.FS

// Marker is the first header line of every generated file.
const Marker = "# Generated by sketchgen"

// headerLines returns the comment header stamped onto every artifact.
func headerLines() []string {
	cmdline := append([]string(nil), os.Args...)
	if len(cmdline) > 0 {
		cmdline[0] = filepath.Base(cmdline[0])
	}

	lines := []string{
		Marker,
		"#",
		"# Command line:",
		"# " + strings.Join(cmdline, " "),
	}

	if cwd, err := os.Getwd(); err == nil {
		if desc, ok := gitinfo.Describe(cwd); ok {
			lines = append(lines, "# Repository: "+desc)
		}
	}

	return append(lines, "")
}

// loadTemplate returns the template's lines, from override when given, else
// from the embedded default named name.
func loadTemplate(override, name string) ([]string, error) {
	var (
		data []byte
		err  error
	)
	if override != "" {
		data, err = os.ReadFile(override)
	} else {
		data, err = templates.ReadFile("templates/" + name)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read template: %w", err)
	}
	return strings.Split(string(data), "\n"), nil
}

// expandLines runs the emitter's token replacement over every template line.
// A replacement may expand one line into many (or none, for list tokens with
// no entries).
func expandLines(templateLines []string, replace func(line string) ([]string, error)) (string, error) {
	out := headerLines()
	for _, line := range templateLines {
		expanded, err := replace(line)
		if err != nil {
			return "", err
		}
		out = append(out, expanded...)
	}
	return strings.Join(out, "\n"), nil
}

// File is a fully rendered artifact awaiting its write.
type File struct {
	Path    string
	Content string
	Mode    fs.FileMode
}

// WriteAll writes every rendered artifact, replacing any file already at the
// target path. Each write lands through a temp file and rename, so a crash
// never leaves a half-emitted artifact behind.
func WriteAll(files []File) error {
	for _, f := range files {
		if err := atomicWrite(f); err != nil {
			return err
		}
	}
	return nil
}

func atomicWrite(f File) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	mode := f.Mode
	if mode == 0 {
		mode = 0o644
	}

	tmp := filepath.Join(dir, "."+filepath.Base(f.Path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, []byte(f.Content), mode); err != nil {
		return err
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
