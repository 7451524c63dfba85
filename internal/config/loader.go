package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/sketchgen-build/sketchgen/internal/msg"
	"github.com/sketchgen-build/sketchgen/internal/pathutil"
)

type loader struct {
	env Env
	// documents decode once even when included from several places
	cache map[string]map[string]any
	// inclusion stack for cycle detection
	stack []pathutil.Path
}

// Load reads the documents named in rawPaths (resolved against cwd), expands
// their includes and merges everything into a single Config.
func Load(rawPaths []string, cwd string) (*Config, error) {
	l := &loader{env: NewEnv(), cache: make(map[string]map[string]any)}

	mains, err := pathutil.NewList(rawPaths, cwd)
	if err != nil {
		return nil, &Error{Err: err}
	}

	var docs []pathutil.Path
	for _, main := range mains {
		expanded, err := l.expand(main)
		if err != nil {
			return nil, err
		}
		docs = append(docs, expanded...)
	}

	cfg := &Config{
		DebugCommand: DefaultDebugCommand,
		Baudrate:     DefaultBaudrate,
		Mains:        mains,
		Documents:    docs,
	}

	for _, doc := range docs {
		if err := l.apply(cfg, doc); err != nil {
			return nil, err
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// expand returns doc's include closure in processing order: includes expand
// depth-first before the document itself, so a document's own values override
// the documents it includes.
func (l *loader) expand(doc pathutil.Path) ([]pathutil.Path, error) {
	for _, open := range l.stack {
		if open.Abs == doc.Abs {
			var lines []string
			for _, s := range l.stack {
				lines = append(lines, " - "+s.Abs)
			}
			return nil, &Error{
				File:  doc.Abs,
				Field: "configs",
				Err:   fmt.Errorf("circular inclusion, stack:\n%s", strings.Join(lines, "\n")),
			}
		}
	}
	l.stack = append(l.stack, doc)
	defer func() { l.stack = l.stack[:len(l.stack)-1] }()

	data, err := l.decode(doc)
	if err != nil {
		return nil, err
	}

	var docs []pathutil.Path
	if rawConfigs, ok := data["configs"]; ok {
		includes, err := toStringSlice(rawConfigs)
		if err != nil {
			return nil, &Error{File: doc.Abs, Field: "configs", Err: err}
		}
		for _, include := range includes {
			child, err := pathutil.New(include, doc.Dir().Abs)
			if err != nil {
				return nil, &Error{File: doc.Abs, Field: "configs", Err: err}
			}
			expanded, err := l.expand(child)
			if err != nil {
				return nil, err
			}
			docs = append(docs, expanded...)
		}
	}

	return append(docs, doc), nil
}

// decode reads and parses a single document, evaluating {{...}} expressions
// in every string value.
func (l *loader) decode(doc pathutil.Path) (map[string]any, error) {
	if data, ok := l.cache[doc.Abs]; ok {
		return data, nil
	}

	raw, err := os.ReadFile(doc.Abs)
	if err != nil {
		return nil, &Error{File: doc.Abs, Err: err}
	}

	var data map[string]any
	switch filepath.Ext(doc.Abs) {
	case ".toml":
		err = toml.Unmarshal(raw, &data)
	default:
		err = yaml.Unmarshal(raw, &data)
	}
	if err != nil {
		return nil, &Error{File: doc.Abs, Err: fmt.Errorf("malformed document: %w", err)}
	}

	processed, err := processExpressions(data, l.env)
	if err != nil {
		return nil, &Error{File: doc.Abs, Err: err}
	}
	data = processed.(map[string]any)

	l.cache[doc.Abs] = data
	return data, nil
}

// apply merges one document into cfg: scalars overwrite, arrays append with
// each element tagged with the document's directory.
func (l *loader) apply(cfg *Config, doc pathutil.Path) error {
	data, err := l.decode(doc)
	if err != nil {
		return err
	}
	dir := doc.Dir().Abs

	for key, value := range data {
		var err error
		switch key {
		case "fqbn":
			cfg.Fqbn, err = toString(value)
		case "debug_command":
			cfg.DebugCommand, err = toString(value)
		case "baudrate":
			cfg.Baudrate, err = toString(value)
		case "cflags":
			var flags []string
			if flags, err = toStringSlice(value); err == nil {
				for _, f := range flags {
					cfg.Cflags = append(cfg.Cflags, Entry{Value: f, Dir: dir})
				}
			}
		case "libs":
			cfg.Libs, err = appendPaths(cfg.Libs, value, dir)
		case "qmake_dirs":
			cfg.QmakeDirs, err = appendPaths(cfg.QmakeDirs, value, dir)
		case "qmake_exclude_dirs":
			cfg.QmakeExcludeDirs, err = appendPaths(cfg.QmakeExcludeDirs, value, dir)
		case "configs":
			// handled by expand
		default:
			msg.Warn("unhandled key %q in configuration file %s", key, doc.Abs)
		}
		if err != nil {
			return &Error{File: doc.Abs, Field: key, Err: err}
		}
	}

	return nil
}

func appendPaths(dst []pathutil.Path, value any, dir string) ([]pathutil.Path, error) {
	raw, err := toStringSlice(value)
	if err != nil {
		return dst, err
	}
	paths, err := pathutil.NewList(raw, dir)
	if err != nil {
		return dst, err
	}
	return append(dst, paths...), nil
}

func toString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int, int64, uint64, float64:
		return fmt.Sprintf("%v", v), nil
	default:
		return "", fmt.Errorf("expected a scalar, got %T", value)
	}
}

func toStringSlice(value any) ([]string, error) {
	items, ok := value.([]any)
	if !ok {
		// toml decodes homogeneous arrays as []any too, so this covers both
		if strs, ok := value.([]string); ok {
			return strs, nil
		}
		return nil, fmt.Errorf("expected an array, got %T", value)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, err := toString(item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// mergedOptions is the post-merge scalar view checked by the validator.
type mergedOptions struct {
	Fqbn     string `validate:"required"`
	Baudrate string `validate:"required,numeric"`
}

var check = validator.New(validator.WithRequiredStructEnabled())

func validate(cfg *Config) error {
	err := check.Struct(mergedOptions{Fqbn: cfg.Fqbn, Baudrate: cfg.Baudrate})
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Fqbn":
			return &Error{Field: "fqbn", Err: errors.New("missing fqbn field in configuration")}
		case "Baudrate":
			return &Error{Field: "baudrate", Err: fmt.Errorf("baudrate %q is not numeric", cfg.Baudrate)}
		}
	}
	return &Error{Err: err}
}
