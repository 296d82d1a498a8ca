package ports

import (
	"context"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
)

// Emulator is the emulator backing emulator-assisted fuzzing.
type Emulator interface {
	ReadMem(ctx context.Context, addr uint64, size uint32) ([]byte, error)
	WriteMem(ctx context.Context, addr uint64, data []byte) error
	ReadReg(ctx context.Context, reg int) (uint64, error)
	WriteReg(ctx context.Context, reg int, value uint64) error
	SetBreakpoint(ctx context.Context, addr uint64) error
	RemoveBreakpoint(ctx context.Context, addr uint64) error

	// Run resumes emulation until the next breakpoint or exit.
	Run(ctx context.Context) (entities.EmulatorExit, error)
}
