// Package defines recovers the preprocessor definitions active for a sketch
// by rebuilding it through the generated Makefile and scraping -D flags out
// of the compiler command lines. The result is IDE convenience only: any
// failure here degrades editor metadata and never blocks generation.
package defines

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sketchgen-build/sketchgen/internal/msg"
)

// Define is a single preprocessor definition, deduplicated by name.
type Define struct {
	Name  string
	Value string // empty when the flag had no value
}

// Raw returns the definition in -D form, without the -D prefix.
func (d Define) Raw() string {
	if d.Value == "" {
		return d.Name
	}
	return d.Name + "=" + d.Value
}

// Extract runs `make clean`, `make build`, `make clean` against the given
// Makefile and parses the build output. On any invocation failure it warns
// and returns nil.
func Extract(makefilePath string) []Define {
	msg.Step("Building", "sketch to check preprocessor defines")

	if _, err := makeRule(makefilePath, "clean"); err != nil {
		return extractionFailed(err)
	}
	output, err := makeRule(makefilePath, "build")
	if err != nil {
		return extractionFailed(err)
	}
	if _, err := makeRule(makefilePath, "clean"); err != nil {
		return extractionFailed(err)
	}

	return Parse(output)
}

func extractionFailed(err error) []Define {
	msg.Warn("building the sketch failed, DEFINES will not be set in the qmake project")
	if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
		w := &msg.IndentWriter{Indent: "    ", W: os.Stderr}
		w.Write(exitErr.Stderr)
	} else {
		msg.Warn("%v", err)
	}
	return nil
}

func makeRule(makefilePath, rule string) (string, error) {
	cmd := exec.Command("make", "-C", filepath.Dir(makefilePath), "-f", makefilePath, rule)
	out, err := cmd.Output()
	return string(out), err
}

// Parse scans verbose build output for -D flags on compiler command lines.
// Later occurrences of a name win over earlier ones, since a later compile
// stage's view of a redefined macro is the authoritative one.
func Parse(output string) []Define {
	var order []string
	byName := make(map[string]Define)

	add := func(raw string) {
		raw = strings.TrimPrefix(raw, "-D")
		if raw == "" {
			return
		}
		name, value, _ := strings.Cut(raw, "=")
		if _, ok := byName[name]; !ok {
			order = append(order, name)
		}
		byName[name] = Define{Name: name, Value: value}
	}

	for _, cmd := range joinContinuations(output) {
		fields := strings.Fields(cmd)
		if len(fields) == 0 {
			continue
		}
		// the arduino-cli driver line echoes config, not compiler flags
		if strings.HasSuffix(fields[0], "arduino-cli") {
			continue
		}

		// quoted flags may contain spaces: "-DNAME=\"a b\""
		masked := strings.ReplaceAll(cmd, `\"`, "\x00")
		for {
			start := strings.IndexByte(masked, '"')
			if start < 0 {
				break
			}
			end := strings.IndexByte(masked[start+1:], '"')
			if end < 0 {
				break
			}
			quoted := masked[start+1 : start+1+end]
			if strings.HasPrefix(quoted, "-D") {
				add(strings.ReplaceAll(quoted, "\x00", `\"`))
			}
			masked = masked[start+1+end+1:]
		}

		for _, token := range fields {
			trimmed := strings.Trim(token, `"'`)
			if strings.HasPrefix(trimmed, "-D") && !strings.Contains(token, `\"`) {
				add(trimmed)
			}
		}
	}

	result := make([]Define, 0, len(order))
	for _, name := range order {
		result = append(result, byName[name])
	}
	return result
}

// joinContinuations folds backslash-continued lines into whole command lines.
func joinContinuations(output string) []string {
	var cmds []string
	var cmd string
	for _, line := range strings.Split(output, "\n") {
		cmd += strings.TrimRight(line, "\r")
		if strings.HasSuffix(cmd, "\\") {
			cmd = strings.TrimSuffix(cmd, "\\")
			continue
		}
		if cmd != "" {
			cmds = append(cmds, cmd)
		}
		cmd = ""
	}
	if cmd != "" {
		cmds = append(cmds, cmd)
	}
	return cmds
}
