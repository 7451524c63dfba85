// Package pathutil resolves configuration path strings against the directory
// of the document that declared them, and relativizes resolved paths for
// emission into generated project files.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind records how a path was originally declared. It decides whether a path
// ends up in the portable project file (relative) or the machine-local one
// (absolute, home).
type Kind int

const (
	Relative Kind = iota
	Absolute
	Home
)

// Path is a resolved filesystem path that remembers where it was declared.
type Path struct {
	// Abs is the cleaned absolute form.
	Abs string
	// Base is the directory the path was resolved against: the declaring
	// document's directory for relative paths, the home directory for
	// home-relative ones. Empty for absolute paths.
	Base string
	Kind Kind
}

// New resolves raw against base. Paths starting with "~/" expand to the
// user's home directory, absolute paths are kept as-is, anything else is
// joined with base, which must itself be absolute.
func New(raw, base string) (Path, error) {
	switch {
	case raw == "~" || strings.HasPrefix(raw, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return Path{}, fmt.Errorf("cannot expand %q: %w", raw, err)
		}
		return Path{
			Abs:  filepath.Clean(filepath.Join(home, strings.TrimPrefix(raw, "~"))),
			Base: home,
			Kind: Home,
		}, nil
	case filepath.IsAbs(raw):
		return Path{Abs: filepath.Clean(raw), Kind: Absolute}, nil
	default:
		if !filepath.IsAbs(base) {
			return Path{}, fmt.Errorf("base dir %q for %q is not absolute", base, raw)
		}
		return Path{
			Abs:  filepath.Clean(filepath.Join(base, raw)),
			Base: filepath.Clean(base),
			Kind: Relative,
		}, nil
	}
}

// MustAbs wraps an already-absolute path. It panics on a relative argument,
// which would indicate a caller bug rather than bad user input.
func MustAbs(abs string) Path {
	if !filepath.IsAbs(abs) {
		panic("pathutil.MustAbs: " + abs + " is not absolute")
	}
	return Path{Abs: filepath.Clean(abs), Kind: Absolute}
}

// NewList resolves each element of raw against base.
func NewList(raw []string, base string) ([]Path, error) {
	paths := make([]Path, 0, len(raw))
	for _, r := range raw {
		p, err := New(r, base)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Rel expresses the path relative to base. Any distance is accepted as long
// as a relative form exists; an error means the caller should fall back to
// the absolute form.
func (p Path) Rel(base string) (string, error) {
	rel, err := filepath.Rel(base, p.Abs)
	if err != nil {
		return "", fmt.Errorf("%s is not relatable to %s: %w", p.Abs, base, err)
	}
	return rel, nil
}

// HomeRel returns the path relative to the home directory it was declared
// under. Only meaningful for Kind == Home.
func (p Path) HomeRel() (string, error) {
	if p.Kind != Home {
		return "", fmt.Errorf("%s was not declared home-relative", p.Abs)
	}
	return filepath.Rel(p.Base, p.Abs)
}

// Dir returns the containing directory, keeping the declaration kind.
func (p Path) Dir() Path {
	return Path{Abs: filepath.Dir(p.Abs), Base: p.Base, Kind: p.Kind}
}

// WithExt replaces the filename extension. ext may be empty to strip it.
func (p Path) WithExt(ext string) Path {
	abs := strings.TrimSuffix(p.Abs, filepath.Ext(p.Abs)) + ext
	return Path{Abs: abs, Base: p.Base, Kind: p.Kind}
}

// Basename returns the last path element.
func (p Path) Basename() string {
	return filepath.Base(p.Abs)
}

func (p Path) String() string { return p.Abs }

// Dedup removes repeated absolute forms, keeping first occurrences in order.
func Dedup(paths []Path) []Path {
	seen := make(map[string]struct{}, len(paths))
	out := paths[:0:0]
	for _, p := range paths {
		if _, ok := seen[p.Abs]; ok {
			continue
		}
		seen[p.Abs] = struct{}{}
		out = append(out, p)
	}
	return out
}
