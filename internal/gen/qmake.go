package gen

import (
	"strings"

	"github.com/sketchgen-build/sketchgen/internal/config"
	"github.com/sketchgen-build/sketchgen/internal/defines"
	"github.com/sketchgen-build/sketchgen/internal/pathutil"
	"github.com/sketchgen-build/sketchgen/internal/scan"
)

// Qmake renders the IDE project pair and its run script: the portable .pro
// file holds relative paths only, the machine-local .pri file holds absolute
// and home-relative ones and is included by the .pro.
type Qmake struct {
	cfg      *config.Config
	path     pathutil.Path // the .pro file
	prifile  pathutil.Path
	script   pathutil.Path // run script invoked by the IDE's run target
	sketch   pathutil.Path
	makefile pathutil.Path
	// .pro template override; the .pri template sits next to it with the
	// extension swapped. Empty for the embedded defaults.
	templatePath string
}

func NewQmake(cfg *config.Config, path, sketch, makefile pathutil.Path, templatePath string) *Qmake {
	return &Qmake{
		cfg:          cfg,
		path:         path,
		prifile:      path.WithExt(".pri"),
		script:       path.WithExt(""),
		sketch:       sketch,
		makefile:     makefile,
		templatePath: templatePath,
	}
}

// IncludeRoots returns the directories to scan for IDE indexing: the sketch's
// own directory, every library, and the configured qmake_dirs.
func (q *Qmake) IncludeRoots() []pathutil.Path {
	roots := []pathutil.Path{q.sketch.Dir()}
	roots = append(roots, q.cfg.Libs...)
	return append(roots, q.cfg.QmakeDirs...)
}

func (q *Qmake) ExcludeRoots() []pathutil.Path {
	return q.cfg.QmakeExcludeDirs
}

// pathFilter selects which declaration kinds a rendered file accepts.
type pathFilter struct {
	rel, abs, home bool
}

func (f pathFilter) accepts(p pathutil.Path) bool {
	switch p.Kind {
	case pathutil.Home:
		return f.home
	case pathutil.Absolute:
		return f.abs
	default:
		return f.rel
	}
}

// Render produces the .pro, .pri and run script contents.
func (q *Qmake) Render(cls scan.Classification, defs []defines.Define) ([]File, error) {
	// the sketch itself leads the source list
	sources := append([]pathutil.Path{q.sketch}, cls.Sources...)

	// non-source files worth having in the IDE's file tree
	otherFiles := append([]pathutil.Path{q.makefile}, q.cfg.Documents...)

	data := &renderData{
		otherFiles:  otherFiles,
		headers:     cls.Headers,
		sources:     sources,
		includeDirs: cls.IncludeDirs,
		defines:     defs,
	}

	proLines, err := loadTemplate(q.templatePath, "qmake.pro")
	if err != nil {
		return nil, err
	}
	priOverride := ""
	if q.templatePath != "" {
		priOverride = strings.TrimSuffix(q.templatePath, ".pro") + ".pri"
	}
	priLines, err := loadTemplate(priOverride, "qmake.pri")
	if err != nil {
		return nil, err
	}

	pro, err := expandLines(proLines, func(line string) ([]string, error) {
		return q.replaceTokens(line, data, pathFilter{rel: true})
	})
	if err != nil {
		return nil, err
	}

	pri, err := expandLines(priLines, func(line string) ([]string, error) {
		return q.replaceTokens(line, data, pathFilter{abs: true, home: true})
	})
	if err != nil {
		return nil, err
	}

	script, err := q.renderScript()
	if err != nil {
		return nil, err
	}

	return []File{
		{Path: q.path.Abs, Content: pro},
		{Path: q.prifile.Abs, Content: pri},
		{Path: q.script.Abs, Content: script, Mode: 0o755},
	}, nil
}

type renderData struct {
	otherFiles  []pathutil.Path
	headers     []pathutil.Path
	sources     []pathutil.Path
	includeDirs []pathutil.Path
	defines     []defines.Define
}

func (q *Qmake) replaceTokens(line string, data *renderData, f pathFilter) ([]string, error) {
	outDir := q.path.Dir().Abs

	switch {
	case strings.Contains(line, "TARGET_PLACEHOLDER"):
		rel, err := q.script.Rel(outDir)
		if err != nil {
			return nil, err
		}
		return []string{strings.ReplaceAll(line, "TARGET_PLACEHOLDER", rel)}, nil

	case strings.Contains(line, "MAKEFILE_PLACEHOLDER"):
		rel, err := q.makefile.Rel(outDir)
		if err != nil {
			return nil, err
		}
		return []string{strings.ReplaceAll(line, "MAKEFILE_PLACEHOLDER", rel)}, nil

	case strings.Contains(line, "PRIFILE_PLACEHOLDER"):
		rel, err := q.prifile.Rel(outDir)
		if err != nil {
			return nil, err
		}
		return []string{strings.ReplaceAll(line, "PRIFILE_PLACEHOLDER", rel)}, nil

	case strings.Contains(line, "DEFINES_PLACEHOLDER"):
		out := make([]string, 0, len(data.defines))
		for _, d := range data.defines {
			out = append(out, "\t"+qmakeDefine(d)+" \\")
		}
		return out, nil
	}

	var paths []pathutil.Path
	switch {
	case strings.Contains(line, "OTHER_FILES_PLACEHOLDER"):
		paths = data.otherFiles
	case strings.Contains(line, "SOURCES_PLACEHOLDER"):
		paths = data.sources
	case strings.Contains(line, "HEADERS_PLACEHOLDER"):
		paths = data.headers
	case strings.Contains(line, "INCLUDEPATH_PLACEHOLDER"):
		paths = data.includeDirs
	default:
		return []string{line}, nil
	}

	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !f.accepts(p) {
			continue
		}
		directive, err := q.fileDirective(p)
		if err != nil {
			return nil, err
		}
		out = append(out, directive)
	}
	return out, nil
}

// fileDirective renders one path entry: home paths through the portable
// $$HOME token, absolute paths verbatim, relative paths relative to the .pro
// file's own directory.
func (q *Qmake) fileDirective(p pathutil.Path) (string, error) {
	var s string
	switch p.Kind {
	case pathutil.Home:
		rel, err := p.HomeRel()
		if err != nil {
			return "", err
		}
		s = "$$HOME/" + rel
	case pathutil.Absolute:
		s = p.Abs
	default:
		rel, err := p.Rel(q.path.Dir().Abs)
		if err != nil {
			s = p.Abs
		} else {
			s = rel
		}
	}
	return "\t" + s + " \\", nil
}

// qmakeDefine escapes a definition for a qmake DEFINES entry.
func qmakeDefine(d defines.Define) string {
	return strings.ReplaceAll(d.Raw(), `\"`, `\\\"`)
}

// renderScript produces the shell script the IDE runs as the project target.
func (q *Qmake) renderScript() (string, error) {
	rel, err := q.makefile.Rel(q.script.Dir().Abs)
	if err != nil {
		return "", err
	}

	lines := []string{"#!/bin/sh"}
	lines = append(lines, headerLines()...)
	lines = append(lines, "make -f "+rel+" run", "")
	return strings.Join(lines, "\n"), nil
}
