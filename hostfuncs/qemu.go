package hostfuncs

import (
	"context"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	"github.com/reglet-dev/fuzzbridge/domain/ports"
)

// MaxMemRead bounds a single read_mem request.
const MaxMemRead = 64 * 1024

// ReadMemRequest reads emulated memory.
type ReadMemRequest struct {
	Addr uint64 `json:"addr"`
	Size uint32 `json:"size"`
}

// ReadMemResponse carries the bytes read.
type ReadMemResponse struct {
	Error *entities.ErrorDetail `json:"error,omitempty"`
	Data  []byte                `json:"data,omitempty"`
}

// WriteMemRequest writes emulated memory.
type WriteMemRequest struct {
	Data []byte `json:"data"`
	Addr uint64 `json:"addr"`
}

// RegRequest reads a register.
type RegRequest struct {
	Reg int `json:"reg"`
}

// WriteRegRequest writes a register.
type WriteRegRequest struct {
	Value uint64 `json:"value"`
	Reg   int    `json:"reg"`
}

// RegResponse carries a register value.
type RegResponse struct {
	Error *entities.ErrorDetail `json:"error,omitempty"`
	Value uint64                `json:"value"`
}

// BreakpointRequest addresses a breakpoint.
type BreakpointRequest struct {
	Addr uint64 `json:"addr"`
}

// RunResponse reports why emulation stopped.
type RunResponse struct {
	Error *entities.ErrorDetail  `json:"error,omitempty"`
	Exit  *entities.EmulatorExit `json:"exit,omitempty"`
}

// QEMUBundle returns the emulator namespace host functions. Every function
// answers NOT_AVAILABLE when emu is nil.
func QEMUBundle(emu ports.Emulator) HostFuncBundle {
	return Set{
		"read_mem": NewJSONHandler(func(ctx context.Context, req ReadMemRequest) ReadMemResponse {
			return PerformReadMem(ctx, emu, req)
		}),
		"write_mem": NewJSONHandler(func(ctx context.Context, req WriteMemRequest) AckResponse {
			if emu == nil {
				return AckResponse{Error: notAvailable("emulator")}
			}
			return ack(emu.WriteMem(ctx, req.Addr, req.Data))
		}),
		"read_reg": NewJSONHandler(func(ctx context.Context, req RegRequest) RegResponse {
			if emu == nil {
				return RegResponse{Error: notAvailable("emulator")}
			}
			v, err := emu.ReadReg(ctx, req.Reg)
			if err != nil {
				return RegResponse{Error: emulatorError(err)}
			}
			return RegResponse{Value: v}
		}),
		"write_reg": NewJSONHandler(func(ctx context.Context, req WriteRegRequest) AckResponse {
			if emu == nil {
				return AckResponse{Error: notAvailable("emulator")}
			}
			return ack(emu.WriteReg(ctx, req.Reg, req.Value))
		}),
		"set_breakpoint": NewJSONHandler(func(ctx context.Context, req BreakpointRequest) AckResponse {
			if emu == nil {
				return AckResponse{Error: notAvailable("emulator")}
			}
			return ack(emu.SetBreakpoint(ctx, req.Addr))
		}),
		"remove_breakpoint": NewJSONHandler(func(ctx context.Context, req BreakpointRequest) AckResponse {
			if emu == nil {
				return AckResponse{Error: notAvailable("emulator")}
			}
			return ack(emu.RemoveBreakpoint(ctx, req.Addr))
		}),
		"run": NewJSONHandler(func(ctx context.Context, _ struct{}) RunResponse {
			if emu == nil {
				return RunResponse{Error: notAvailable("emulator")}
			}
			exit, err := emu.Run(ctx)
			if err != nil {
				return RunResponse{Error: emulatorError(err)}
			}
			return RunResponse{Exit: &exit}
		}),
	}
}

// PerformReadMem reads at most MaxMemRead bytes of emulated memory.
func PerformReadMem(ctx context.Context, emu ports.Emulator, req ReadMemRequest) ReadMemResponse {
	if emu == nil {
		return ReadMemResponse{Error: notAvailable("emulator")}
	}
	if req.Size == 0 || req.Size > MaxMemRead {
		return ReadMemResponse{Error: entities.NewErrorDetail("validation", "size must be between 1 and 65536")}
	}
	data, err := emu.ReadMem(ctx, req.Addr, req.Size)
	if err != nil {
		return ReadMemResponse{Error: emulatorError(err)}
	}
	return ReadMemResponse{Data: data}
}

func ack(err error) AckResponse {
	if err != nil {
		return AckResponse{Error: emulatorError(err)}
	}
	return AckResponse{OK: true}
}

func emulatorError(err error) *entities.ErrorDetail {
	return entities.NewErrorDetail("internal", err.Error()).WithCode("EMULATOR_ERROR")
}
