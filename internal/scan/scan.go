// Package scan walks configured directory trees and buckets the files it
// finds into headers, sources and include directories for IDE indexing.
// The result only affects editor metadata, never compilation.
package scan

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sketchgen-build/sketchgen/internal/msg"
	"github.com/sketchgen-build/sketchgen/internal/pathutil"
)

var (
	headerExts = []string{".h", ".hpp"}
	sourceExts = []string{".c", ".cpp"}
)

// Classification is the result of scanning the include roots.
type Classification struct {
	Headers []pathutil.Path
	Sources []pathutil.Path
	// IncludeDirs are the directories that contain at least one header.
	IncludeDirs []pathutil.Path
}

// Classify enumerates every file under the include roots, skipping anything
// under an exclude root, and classifies the rest by filename suffix. Files
// with unrecognized suffixes are ignored. Each result path keeps the
// declaration kind of the root it was found under, so that home-rooted and
// absolute trees stay out of the portable project file later on.
func Classify(include, exclude []pathutil.Path) Classification {
	s := scanner{
		exclude: resolveRoots(exclude),
		seen:    make(map[string]struct{}),
	}

	for _, root := range pathutil.Dedup(include) {
		s.walkRoot(root)
	}

	return Classification{
		Headers:     s.headers,
		Sources:     s.sources,
		IncludeDirs: pathutil.Dedup(s.includeDirs),
	}
}

type scanner struct {
	exclude []string
	// real paths already classified, so duplicate and symlinked trees only
	// contribute once
	seen        map[string]struct{}
	headers     []pathutil.Path
	sources     []pathutil.Path
	includeDirs []pathutil.Path
}

// resolveRoots maps exclude roots to their symlink-resolved form, since
// exclusion is checked against resolved file paths.
func resolveRoots(roots []pathutil.Path) []string {
	resolved := make([]string, 0, len(roots))
	for _, root := range roots {
		real, err := filepath.EvalSymlinks(root.Abs)
		if err != nil {
			real = root.Abs
		}
		resolved = append(resolved, real)
	}
	return resolved
}

func (s *scanner) walkRoot(root pathutil.Path) {
	fsys := os.DirFS(root.Abs)
	matches, err := doublestar.Glob(fsys, "**", doublestar.WithFilesOnly(), doublestar.WithNoFollow())
	if err != nil {
		if _, statErr := os.Stat(root.Abs); statErr != nil {
			msg.Warn("skipping unreadable directory %s: %v", root.Abs, statErr)
		} else {
			msg.Warn("skipping directory %s: %v", root.Abs, err)
		}
		return
	}

	for _, match := range matches {
		s.visit(root, filepath.Join(root.Abs, filepath.FromSlash(match)))
	}
}

func (s *scanner) visit(root pathutil.Path, path string) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		msg.Warn("skipping %s: %v", path, err)
		return
	}
	if s.excluded(real) {
		return
	}
	if info, err := os.Stat(real); err != nil || !info.Mode().IsRegular() {
		return
	}
	if _, ok := s.seen[real]; ok {
		return
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case hasExt(ext, headerExts):
		s.seen[real] = struct{}{}
		file := fileUnderRoot(root, path)
		s.headers = append(s.headers, file)
		s.includeDirs = append(s.includeDirs, file.Dir())
	case hasExt(ext, sourceExts):
		s.seen[real] = struct{}{}
		s.sources = append(s.sources, fileUnderRoot(root, path))
	}
	// anything else is a foreign file, not an error
}

func (s *scanner) excluded(real string) bool {
	for _, ex := range s.exclude {
		if real == ex || strings.HasPrefix(real, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func hasExt(ext string, exts []string) bool {
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// fileUnderRoot builds the result path for a discovered file, inheriting the
// root's declaration kind: files under a home-declared root stay
// home-relative, files under an absolute root stay absolute, and files under
// a relative root stay relative to the root's own base.
func fileUnderRoot(root pathutil.Path, path string) pathutil.Path {
	base := root.Base
	if root.Kind == pathutil.Absolute {
		base = ""
	}
	return pathutil.Path{Abs: filepath.Clean(path), Base: base, Kind: root.Kind}
}

// IsFile reports whether path exists and is a regular file.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
