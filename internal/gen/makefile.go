package gen

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sketchgen-build/sketchgen/internal/config"
	"github.com/sketchgen-build/sketchgen/internal/pathutil"
	"github.com/sketchgen-build/sketchgen/internal/scan"
)

// Makefile renders the generated Makefile from its template.
type Makefile struct {
	cfg          *config.Config
	path         pathutil.Path
	sketch       pathutil.Path
	templatePath string // empty for the embedded default
}

func NewMakefile(cfg *config.Config, path, sketch pathutil.Path, templatePath string) *Makefile {
	return &Makefile{cfg: cfg, path: path, sketch: sketch, templatePath: templatePath}
}

func (m *Makefile) Path() pathutil.Path { return m.path }

func (m *Makefile) Render() (File, error) {
	for _, lib := range m.cfg.Libs {
		if !scan.IsDir(lib.Abs) {
			return File{}, fmt.Errorf("library directory %s does not exist", lib.Abs)
		}
	}

	lines, err := loadTemplate(m.templatePath, "Makefile")
	if err != nil {
		return File{}, err
	}

	content, err := expandLines(lines, m.replaceTokens)
	if err != nil {
		return File{}, err
	}
	return File{Path: m.path.Abs, Content: content}, nil
}

func (m *Makefile) replaceTokens(line string) ([]string, error) {
	outDir := m.path.Dir().Abs

	switch {
	case strings.Contains(line, "LIBS_PLACEHOLDER"):
		out := make([]string, 0, len(m.cfg.Libs))
		for _, lib := range m.cfg.Libs {
			s, err := m.libString(lib)
			if err != nil {
				return nil, err
			}
			out = append(out, "\t\t--library \""+s+"\" \\")
		}
		return out, nil

	case strings.Contains(line, "FQBN_PLACEHOLDER"):
		return []string{strings.ReplaceAll(line, "FQBN_PLACEHOLDER", m.cfg.Fqbn)}, nil

	case strings.Contains(line, "BINDIR_PLACEHOLDER"):
		bindir := "bin"
		if suffix := strings.TrimPrefix(m.path.Basename(), "Makefile"); suffix != m.path.Basename() {
			bindir += suffix
		}
		return []string{strings.ReplaceAll(line, "BINDIR_PLACEHOLDER", bindir)}, nil

	case strings.Contains(line, "BINFILE_PLACEHOLDER"):
		binfile := m.sketch.WithExt(".ino.bin").Basename()
		return []string{strings.ReplaceAll(line, "BINFILE_PLACEHOLDER", binfile)}, nil

	case strings.Contains(line, "CFLAGS_PLACEHOLDER"):
		flags := strings.Join(m.cfg.CflagValues(), " ")
		return []string{strings.ReplaceAll(line, "CFLAGS_PLACEHOLDER", flags)}, nil

	case strings.Contains(line, "SKETCH_NOEXT_PLACEHOLDER"):
		rel, err := m.sketch.WithExt("").Rel(outDir)
		if err != nil {
			return nil, err
		}
		return []string{strings.ReplaceAll(line, "SKETCH_NOEXT_PLACEHOLDER", rel)}, nil

	case strings.Contains(line, "DEBUG_COMMAND_PLACEHOLDER"):
		return []string{strings.ReplaceAll(line, "DEBUG_COMMAND_PLACEHOLDER", m.cfg.DebugCommand)}, nil

	case strings.Contains(line, "BAUDRATE_PLACEHOLDER"):
		return []string{strings.ReplaceAll(line, "BAUDRATE_PLACEHOLDER", m.cfg.Baudrate)}, nil
	}

	return []string{line}, nil
}

// libString renders a library directory for the --library flag: home paths
// through $(HOME), relative ones through $(MAKEFILE_DIR), absolute ones
// verbatim.
func (m *Makefile) libString(lib pathutil.Path) (string, error) {
	switch lib.Kind {
	case pathutil.Home:
		rel, err := lib.HomeRel()
		if err != nil {
			return "", err
		}
		// join by hand: filepath.Join would fold ".." into the make variable
		return "$(HOME)/" + filepath.ToSlash(rel), nil
	case pathutil.Relative:
		rel, err := lib.Rel(m.path.Dir().Abs)
		if err != nil {
			// on another volume: keep absolute
			return lib.Abs, nil
		}
		return "$(MAKEFILE_DIR)/" + filepath.ToSlash(rel), nil
	default:
		return lib.Abs, nil
	}
}
