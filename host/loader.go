package host

import (
	"fmt"
	"os"

	apptemplate "github.com/reglet-dev/fuzzbridge/application/template"
	"github.com/reglet-dev/fuzzbridge/application/validation"
	"github.com/reglet-dev/fuzzbridge/domain/entities"
	"github.com/reglet-dev/fuzzbridge/domain/ports"
	"github.com/reglet-dev/fuzzbridge/infrastructure/parser"
)

// Loader turns a session manifest file into a validated SessionManifest.
// The manifest is rendered as a template first, so it may refer to
// variables as {{.config.key}}.
type Loader struct {
	templates ports.TemplateEngine
	parser    ports.SessionParser
	validator ports.SessionValidator
	presets   ports.PresetValidator
	lenient   bool
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithParser replaces the YAML parser.
func WithParser(p ports.SessionParser) LoaderOption {
	return func(l *Loader) { l.parser = p }
}

// WithTemplateEngine replaces the text/template engine.
func WithTemplateEngine(t ports.TemplateEngine) LoaderOption {
	return func(l *Loader) { l.templates = t }
}

// WithStrictTemplates controls whether a missing template variable fails
// loading. It is on by default.
func WithStrictTemplates(enabled bool) LoaderOption {
	return func(l *Loader) { l.lenient = !enabled }
}

// WithValidator replaces the session validator.
func WithValidator(v ports.SessionValidator) LoaderOption {
	return func(l *Loader) { l.validator = v }
}

// WithPresetValidator checks an embedded preset with v, typically
// Runtime.PresetValidator so the registered schemas apply.
func WithPresetValidator(v ports.PresetValidator) LoaderOption {
	return func(l *Loader) { l.presets = v }
}

// NewLoader returns a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{parser: parser.NewYamlSessionParser()}
	for _, opt := range opts {
		opt(l)
	}
	if l.templates == nil {
		l.templates = apptemplate.NewGoTemplateEngine(apptemplate.WithStrict(!l.lenient))
	}
	if l.validator == nil {
		l.validator = validation.NewSessionValidator(l.presets)
	}
	return l
}

// LoadManifest renders raw with vars, parses it and validates the result.
func (l *Loader) LoadManifest(raw []byte, vars map[string]interface{}) (*entities.SessionManifest, error) {
	rendered, err := l.templates.Render(raw, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to render session manifest: %w", err)
	}
	manifest, err := l.parser.Parse(rendered)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session manifest: %w", err)
	}

	res, err := l.validator.Validate(manifest)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if err := res.Err("session manifest"); err != nil {
		return nil, err
	}
	return manifest, nil
}

// LoadFile loads the manifest at path.
func (l *Loader) LoadFile(path string, vars map[string]interface{}) (*entities.SessionManifest, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // G304: the path is chosen by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read session manifest: %w", err)
	}
	return l.LoadManifest(raw, vars)
}
