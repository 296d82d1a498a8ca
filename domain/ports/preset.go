package ports

import (
	"context"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
)

// PresetRunner launches a high-level fuzzing preset.
// The engine supplies the implementation; this layer only validates and forwards.
type PresetRunner interface {
	// RunPreset starts the preset and blocks until it finishes.
	RunPreset(ctx context.Context, kind entities.PresetKind, cfg entities.PresetConfig) error
}
