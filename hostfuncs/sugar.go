package hostfuncs

import (
	"context"
	"fmt"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
	"github.com/reglet-dev/fuzzbridge/domain/ports"
)

// PresetsResponse lists the preset kinds.
type PresetsResponse struct {
	Kinds []entities.PresetKind `json:"kinds"`
}

// PresetSchemaRequest selects a preset kind.
type PresetSchemaRequest struct {
	Kind entities.PresetKind `json:"kind"`
}

// PresetSchemaResponse carries the JSON schema of a preset configuration.
type PresetSchemaResponse struct {
	Error  *entities.ErrorDetail `json:"error,omitempty"`
	Schema string                `json:"schema,omitempty"`
}

// ValidatePresetResponse carries the outcome of a preset validation.
type ValidatePresetResponse struct {
	Error  *entities.ErrorDetail       `json:"error,omitempty"`
	Result *entities.ValidationResult `json:"result,omitempty"`
}

// SugarOption configures the sugar bundle.
type SugarOption func(*sugarConfig)

type sugarConfig struct {
	validator ports.PresetValidator
	runner    ports.PresetRunner
	schemas   ports.SchemaRegistry
}

func defaultSugarConfig() sugarConfig {
	return sugarConfig{}
}

// WithPresetValidator sets the validator used by validate_preset and run_preset.
func WithPresetValidator(v ports.PresetValidator) SugarOption {
	return func(c *sugarConfig) {
		c.validator = v
	}
}

// WithPresetRunner sets the engine entry point used by run_preset.
// Without one, run_preset answers NOT_AVAILABLE.
func WithPresetRunner(r ports.PresetRunner) SugarOption {
	return func(c *sugarConfig) {
		c.runner = r
	}
}

// WithSchemaRegistry sets the registry preset_schema reads from.
func WithSchemaRegistry(r ports.SchemaRegistry) SugarOption {
	return func(c *sugarConfig) {
		c.schemas = r
	}
}

// SugarBundle returns the preset namespace host functions:
// presets, preset_schema, validate_preset, run_preset.
func SugarBundle(opts ...SugarOption) HostFuncBundle {
	cfg := defaultSugarConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return Set{
		"presets": NewJSONHandler(func(ctx context.Context, _ struct{}) PresetsResponse {
			return PresetsResponse{Kinds: entities.PresetKinds()}
		}),
		"preset_schema": NewJSONHandler(func(ctx context.Context, req PresetSchemaRequest) PresetSchemaResponse {
			return PerformPresetSchema(ctx, cfg.schemas, req)
		}),
		"validate_preset": NewJSONHandler(func(ctx context.Context, req entities.PresetSpec) ValidatePresetResponse {
			return PerformValidatePreset(ctx, cfg.validator, req)
		}),
		"run_preset": NewJSONHandler(func(ctx context.Context, req entities.PresetSpec) AckResponse {
			return PerformRunPreset(ctx, cfg.validator, cfg.runner, req)
		}),
	}
}

// PerformPresetSchema returns the registered schema of a preset kind.
func PerformPresetSchema(_ context.Context, schemas ports.SchemaRegistry, req PresetSchemaRequest) PresetSchemaResponse {
	if schemas == nil {
		return PresetSchemaResponse{Error: notAvailable("preset_schema")}
	}
	schema, ok := schemas.GetSchema(string(req.Kind))
	if !ok {
		return PresetSchemaResponse{
			Error: entities.NewErrorDetail("validation", fmt.Sprintf("no schema for preset %q", req.Kind)).WithCode("NOT_FOUND"),
		}
	}
	return PresetSchemaResponse{Schema: schema}
}

// PerformValidatePreset validates a PresetSpec.
func PerformValidatePreset(_ context.Context, v ports.PresetValidator, spec entities.PresetSpec) ValidatePresetResponse {
	if v == nil {
		return ValidatePresetResponse{Error: notAvailable("validate_preset")}
	}
	result, err := v.Validate(&spec)
	if err != nil {
		return ValidatePresetResponse{Error: bridgeerrors.ToErrorDetail(err)}
	}
	return ValidatePresetResponse{Result: result}
}

// PerformRunPreset validates a preset, applies defaults and hands it to the runner.
func PerformRunPreset(ctx context.Context, v ports.PresetValidator, runner ports.PresetRunner, spec entities.PresetSpec) AckResponse {
	if runner == nil {
		return AckResponse{Error: notAvailable("run_preset")}
	}
	if v != nil {
		result, err := v.Validate(&spec)
		if err != nil {
			return AckResponse{Error: bridgeerrors.ToErrorDetail(err)}
		}
		if !result.Valid {
			detail := entities.NewErrorDetail("validation", "invalid preset configuration")
			details := make(map[string]any, len(result.Errors))
			for _, e := range result.Errors {
				details[e.Field] = e.Message
			}
			return AckResponse{Error: detail.WithDetails(details)}
		}
	}
	if err := runner.RunPreset(ctx, spec.Kind, spec.Config.WithDefaults()); err != nil {
		return AckResponse{Error: bridgeerrors.ToErrorDetail(err)}
	}
	return AckResponse{OK: true}
}
