package ports

import "github.com/reglet-dev/fuzzbridge/domain/entities"

// PresetValidator validates presets.
type PresetValidator interface {
	// Validate checks the preset against its struct tags and kind-specific rules.
	Validate(spec *entities.PresetSpec) (*entities.ValidationResult, error)
}

// SessionValidator validates session manifests before any guest is loaded.
type SessionValidator interface {
	// Validate checks struct tags and cross-references between guests.
	Validate(manifest *entities.SessionManifest) (*entities.ValidationResult, error)
}
