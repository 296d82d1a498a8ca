// Package validation validates presets and session manifests.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	"github.com/reglet-dev/fuzzbridge/domain/ports"
)

// newStructValidator returns a validator reporting fields by their json names.
func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// structErrors runs struct-tag validation and converts failures into
// ValidationErrors keyed by dotted json path.
func structErrors(v *validator.Validate, s interface{}, prefix string) ([]entities.ValidationError, error) {
	err := v.Struct(s)
	if err == nil {
		return nil, nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, fmt.Errorf("struct validation: %w", err)
	}
	out := make([]entities.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		if prefix != "" {
			field = prefix + "." + field
		}
		out = append(out, entities.ValidationError{Field: field, Message: describe(fe)})
	}
	return out, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// PresetValidator implements ports.PresetValidator. Struct tags and the
// kind-specific rules always apply; with a schema registry, the configuration
// is also checked against the preset's registered JSON schema.
type PresetValidator struct {
	registry ports.SchemaRegistry
	validate *validator.Validate
	compiled sync.Map // map[string]*jsonschema.Schema
}

// NewPresetValidator creates a preset validator. registry may be nil.
func NewPresetValidator(registry ports.SchemaRegistry) *PresetValidator {
	return &PresetValidator{registry: registry, validate: newStructValidator()}
}

// Validate checks a PresetSpec.
func (v *PresetValidator) Validate(spec *entities.PresetSpec) (*entities.ValidationResult, error) {
	result := &entities.ValidationResult{}
	if spec == nil {
		result.Addf("preset", "is required")
		return result.Done(), nil
	}

	errs, err := structErrors(v.validate, spec, "")
	if err != nil {
		return nil, err
	}
	result.Merge("", errs...)

	if len(errs) == 0 {
		if err := spec.Config.CheckKind(spec.Kind); err != nil {
			result.Addf("config", "%v", err)
		}
		result.Merge("", v.schemaErrors(spec)...)
	}
	return result.Done(), nil
}

func (v *PresetValidator) schemaErrors(spec *entities.PresetSpec) []entities.ValidationError {
	if v.registry == nil {
		return nil
	}
	kind := string(spec.Kind)
	sch, err := v.compile(kind)
	if err != nil {
		return []entities.ValidationError{{Field: kind, Message: err.Error()}}
	}

	// Validate the JSON form so the schema sees what a guest would send.
	b, err := json.Marshal(spec.Config)
	if err != nil {
		return []entities.ValidationError{{Field: "config", Message: fmt.Sprintf("failed to prepare validation object: %v", err)}}
	}
	var obj interface{}
	if err := json.Unmarshal(b, &obj); err != nil {
		return []entities.ValidationError{{Field: "config", Message: fmt.Sprintf("failed to prepare validation object: %v", err)}}
	}

	if err := sch.Validate(obj); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return []entities.ValidationError{{Field: "config", Message: ve.Error()}}
		}
		return []entities.ValidationError{{Field: "config", Message: err.Error()}}
	}
	return nil
}

func (v *PresetValidator) compile(kind string) (*jsonschema.Schema, error) {
	if cached, ok := v.compiled.Load(kind); ok {
		return cached.(*jsonschema.Schema), nil
	}

	schemaStr, ok := v.registry.GetSchema(kind)
	if !ok {
		return nil, fmt.Errorf("no schema registered for preset %s", kind)
	}
	url := "mem://presets/" + kind + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(schemaStr)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource for %s: %w", kind, err)
	}
	sch, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("invalid schema for %s: %w", kind, err)
	}
	v.compiled.Store(kind, sch)
	return sch, nil
}

// SessionValidator implements ports.SessionValidator.
type SessionValidator struct {
	presets  ports.PresetValidator
	validate *validator.Validate
}

// NewSessionValidator creates a session validator. An embedded preset is
// checked with presets, or with a schema-less PresetValidator when nil.
func NewSessionValidator(presets ports.PresetValidator) *SessionValidator {
	if presets == nil {
		presets = NewPresetValidator(nil)
	}
	return &SessionValidator{presets: presets, validate: newStructValidator()}
}

// Validate checks struct tags and the references between guests:
// guest names are unique, an executor's observers name guests of the
// session, and a callable export is only given to stage guests.
func (v *SessionValidator) Validate(manifest *entities.SessionManifest) (*entities.ValidationResult, error) {
	result := &entities.ValidationResult{}
	if manifest == nil {
		result.Addf("session", "is required")
		return result.Done(), nil
	}

	errs, err := structErrors(v.validate, manifest, "")
	if err != nil {
		return nil, err
	}
	result.Merge("", errs...)

	seen := make(map[string]bool)
	for i, g := range manifest.Guests {
		field := fmt.Sprintf("guests[%d]", i)
		if g.Name != "" && seen[g.Name] {
			result.Addf(field+".name", "duplicate guest %q", g.Name)
		}
		seen[g.Name] = true
		if g.Callable != "" && !hasCapability(g, entities.CapabilityStage) {
			result.Addf(field+".callable", "only stage guests take a callable export")
		}
		if len(g.Observers) > 0 && !hasCapability(g, entities.CapabilityExecutor) {
			result.Addf(field+".observers", "only executor guests report observers")
		}
	}
	for i, g := range manifest.Guests {
		for _, name := range g.Observers {
			if !seen[name] {
				result.Addf(fmt.Sprintf("guests[%d].observers", i), "observer %q is not a guest of this session", name)
			}
		}
	}

	if manifest.Preset != nil {
		res, err := v.presets.Validate(manifest.Preset)
		if err != nil {
			return nil, err
		}
		result.Merge("preset", res.Errors...)
	}
	return result.Done(), nil
}

func hasCapability(g entities.GuestSpec, c entities.Capability) bool {
	for _, a := range g.Attach {
		if a == c {
			return true
		}
	}
	return false
}

var (
	_ ports.PresetValidator  = (*PresetValidator)(nil)
	_ ports.SessionValidator = (*SessionValidator)(nil)
)
