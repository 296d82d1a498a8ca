package namespace

import (
	"context"
	"fmt"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	"github.com/reglet-dev/fuzzbridge/domain/ports"
	"github.com/reglet-dev/fuzzbridge/hostfuncs"
	"github.com/reglet-dev/fuzzbridge/skeleton"
)

// buildLibAFL builds the core namespace. The skeleton classes are part of it,
// so every class must name a known contract and expose its full operation set.
func buildLibAFL(_ context.Context, deps Deps) (hostfuncs.HostFuncBundle, error) {
	for _, class := range skeleton.Catalog() {
		contract, ok := entities.ContractFor(class.Capability)
		if !ok {
			return nil, fmt.Errorf("class %s: unknown capability %q", class.Name, class.Capability)
		}
		if len(class.Operations) != len(contract.Operations) {
			return nil, fmt.Errorf("class %s: %d operations, contract %s has %d",
				class.Name, len(class.Operations), contract.Capability, len(contract.Operations))
		}
	}
	return hostfuncs.LibAFLBundle(deps.Sink), nil
}

// buildSugar builds the presets namespace. Its schemas are published by
// publishSchemas once every namespace has been built.
func buildSugar(_ context.Context, deps Deps) (hostfuncs.HostFuncBundle, error) {
	return hostfuncs.SugarBundle(
		hostfuncs.WithPresetValidator(deps.Validator),
		hostfuncs.WithPresetRunner(deps.Runner),
		hostfuncs.WithSchemaRegistry(deps.Schemas),
	), nil
}

// publishSchemas registers a schema per preset kind that schemas does not
// already know.
func publishSchemas(schemas ports.SchemaRegistry) error {
	if schemas == nil {
		return nil
	}
	for _, kind := range entities.PresetKinds() {
		if _, ok := schemas.GetSchema(string(kind)); ok {
			continue
		}
		if err := schemas.Register(string(kind), &entities.PresetConfig{}); err != nil {
			return fmt.Errorf("preset %s schema: %w", kind, err)
		}
	}
	return nil
}

func buildQEMU(_ context.Context, deps Deps) (hostfuncs.HostFuncBundle, error) {
	return hostfuncs.QEMUBundle(deps.Emulator), nil
}
