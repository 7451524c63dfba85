// Package config loads layered sketch configuration documents and merges
// them into a single resolved configuration.
//
// Documents are YAML (or TOML, by extension) files with a fixed set of
// recognized keys. A document may include further documents through its
// "configs" key; includes expand depth-first before the including document
// itself, so the includer's scalar values override those of its includes.
// Scalar options follow last-seen-wins across the expanded document order;
// array options concatenate in that order, without deduplication, and every
// array element keeps the directory of the document that declared it so that
// relative paths resolve against their own file.
package config

import (
	"fmt"
	"strings"

	"github.com/sketchgen-build/sketchgen/internal/pathutil"
)

const (
	DefaultDebugCommand = "cat $$SERIALPORT"
	DefaultBaudrate     = "115200"
)

// Entry is a single array element together with the absolute directory of
// the document that declared it.
type Entry struct {
	Value string
	Dir   string
}

// Config is the merged result of one generation run. Downstream packages
// treat it as read-only.
type Config struct {
	Fqbn         string
	DebugCommand string
	Baudrate     string

	Cflags           []Entry
	Libs             []pathutil.Path
	QmakeDirs        []pathutil.Path
	QmakeExcludeDirs []pathutil.Path

	// Mains are the documents named on the command line, Documents the full
	// expanded list including every include, in processing order.
	Mains     []pathutil.Path
	Documents []pathutil.Path
}

// CflagValues returns the bare flag strings in merge order.
func (c *Config) CflagValues() []string {
	vals := make([]string, len(c.Cflags))
	for i, e := range c.Cflags {
		vals[i] = e.Value
	}
	return vals
}

func (c *Config) String() string {
	var sb strings.Builder
	title := func(s string) { fmt.Fprintf(&sb, " * %s:\n", s) }
	item := func(s string) { fmt.Fprintf(&sb, "   - %s\n", s) }

	title("main configuration paths")
	for _, p := range c.Mains {
		item(p.Abs)
	}

	title("sub configurations")
	mains := make(map[string]struct{}, len(c.Mains))
	for _, p := range c.Mains {
		mains[p.Abs] = struct{}{}
	}
	for _, p := range c.Documents {
		if _, ok := mains[p.Abs]; !ok {
			item(p.Abs)
		}
	}

	title("fqbn")
	item(c.Fqbn)

	title("libs")
	for _, p := range c.Libs {
		item(p.Abs)
	}

	title("cflags")
	for _, e := range c.Cflags {
		item(e.Value)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// Error is a fatal configuration error. It carries enough context to locate
// the offending document and option.
type Error struct {
	File  string // offending document, empty when not tied to one
	Field string // offending option, empty when not tied to one
	Err   error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration error")
	if e.File != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.File)
	}
	if e.Field != "" {
		fmt.Fprintf(&sb, " (option %q)", e.Field)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }
