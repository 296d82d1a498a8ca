// Package template renders session manifests before they are parsed.
package template

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/reglet-dev/fuzzbridge/domain/ports"
)

// GoTemplateEngine renders manifests with text/template. Variables are
// reachable as {{.config.key}}.
type GoTemplateEngine struct {
	funcs  template.FuncMap
	strict bool
}

// TemplateOption configures a GoTemplateEngine.
type TemplateOption func(*GoTemplateEngine)

// WithStrict controls whether a reference to a missing variable fails the
// render (the default) or renders as "<no value>".
func WithStrict(enabled bool) TemplateOption {
	return func(e *GoTemplateEngine) { e.strict = enabled }
}

// WithEnvLookup replaces os.Getenv behind the env helper.
func WithEnvLookup(fn func(string) string) TemplateOption {
	return func(e *GoTemplateEngine) {
		if fn != nil {
			e.funcs["env"] = fn
		}
	}
}

// NewGoTemplateEngine returns an engine with these helpers:
//
//	env "NAME"          environment variable
//	quote s             Go-quoted string, safe inside YAML
//	default d v         v, or d when v is empty
//	hex n               0x-prefixed hexadecimal, for emulator addresses
//	join sep list       list joined by sep
func NewGoTemplateEngine(opts ...TemplateOption) ports.TemplateEngine {
	e := &GoTemplateEngine{
		strict: true,
		funcs: template.FuncMap{
			"env":     os.Getenv,
			"quote":   strconv.Quote,
			"default": defaultValue,
			"hex":     hexValue,
			"join":    joinValues,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render executes raw as a template over {"config": config}.
func (e *GoTemplateEngine) Render(raw []byte, config map[string]interface{}) ([]byte, error) {
	missing := "missingkey=default"
	if e.strict {
		missing = "missingkey=error"
	}
	tmpl, err := template.New("session").Funcs(e.funcs).Option(missing).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse session template: %w", err)
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, map[string]interface{}{"config": config}); err != nil {
		return nil, fmt.Errorf("failed to execute session template: %w", err)
	}
	return out.Bytes(), nil
}

func defaultValue(def, v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return def
	case string:
		if x == "" {
			return def
		}
	}
	return v
}

func hexValue(v interface{}) (string, error) {
	switch n := v.(type) {
	case int:
		return fmt.Sprintf("%#x", n), nil
	case int64:
		return fmt.Sprintf("%#x", n), nil
	case uint64:
		return fmt.Sprintf("%#x", n), nil
	case string:
		u, err := strconv.ParseUint(n, 0, 64)
		if err != nil {
			return "", fmt.Errorf("hex: %q is not a number", n)
		}
		return fmt.Sprintf("%#x", u), nil
	default:
		return "", fmt.Errorf("hex: unsupported value %T", v)
	}
}

func joinValues(sep string, v interface{}) (string, error) {
	switch list := v.(type) {
	case []string:
		return strings.Join(list, sep), nil
	case []interface{}:
		parts := make([]string, len(list))
		for i, p := range list {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, sep), nil
	case string:
		return list, nil
	default:
		return "", fmt.Errorf("join: unsupported value %T", v)
	}
}
