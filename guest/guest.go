//go:build wasip1

package guest

import (
	"encoding/json"
	"fmt"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	"github.com/reglet-dev/fuzzbridge/hostfuncs"
	"github.com/reglet-dev/fuzzbridge/internal/abi"
)

// call marshals req, invokes host function fn and decodes its response into
// resp. A nil req sends an empty payload.
func call(fn func(uint64) uint64, name string, req, resp any) error {
	var packedReq uint64
	if req != nil {
		requestBytes, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("guest: %s: failed to marshal request: %w", name, err)
		}
		packedReq = abi.PtrFromBytes(requestBytes)
		defer abi.DeallocatePacked(packedReq)
	}

	responsePacked := fn(packedReq)
	responseBytes := abi.BytesFromPtr(responsePacked)
	abi.DeallocatePacked(responsePacked)

	return decode(name, responseBytes, resp)
}

func attach(fn func(uint64) uint64, name string, req hostfuncs.AttachRequestWire) error {
	var resp hostfuncs.AckResponse
	return call(fn, name, req, &resp)
}

// AsObserver attaches the calling guest as an observer.
func AsObserver() error {
	return attach(hostAsObserver, "as_observer", hostfuncs.AttachRequestWire{})
}

// AsFeedback attaches the calling guest as a feedback.
func AsFeedback() error {
	return attach(hostAsFeedback, "as_feedback", hostfuncs.AttachRequestWire{})
}

// AsExecutor attaches the calling guest as an executor reporting the named
// observer guests.
func AsExecutor(observers ...string) error {
	return attach(hostAsExecutor, "as_executor", hostfuncs.AttachRequestWire{Observers: observers})
}

// AsMutator attaches the calling guest as a mutator.
func AsMutator() error {
	return attach(hostAsMutator, "as_mutator", hostfuncs.AttachRequestWire{})
}

// AsStage attaches the calling guest as a stage whose perform export is
// called each fuzzing iteration.
func AsStage() error {
	return attach(hostAsStage, "as_stage", hostfuncs.AttachRequestWire{})
}

// AsFnStage attaches a single export of the calling guest as a stage. The
// export is called with the arguments of perform.
func AsFnStage(export string) error {
	return attach(hostAsFnStage, "as_fn_stage", hostfuncs.AttachRequestWire{Export: export})
}

// InputBytes returns a copy of a lent input.
func InputBytes(input Ref) ([]byte, error) {
	var resp hostfuncs.InputBytesResponse
	if err := call(hostInputBytes, "input_bytes", hostfuncs.RefRequest{Ref: uint64(input)}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// InputLen returns the length of a lent input.
func InputLen(input Ref) (int, error) {
	var resp hostfuncs.InputLenResponse
	if err := call(hostInputLen, "input_len", hostfuncs.RefRequest{Ref: uint64(input)}, &resp); err != nil {
		return 0, err
	}
	return resp.Len, nil
}

// StateInfo summarizes a lent fuzzing state.
type StateInfo struct {
	Executions  uint64
	CorpusCount int
}

// State returns the execution and corpus counters of a lent state.
func State(state Ref) (StateInfo, error) {
	var resp hostfuncs.StateInfoResponse
	if err := call(hostStateInfo, "state_info", hostfuncs.RefRequest{Ref: uint64(state)}, &resp); err != nil {
		return StateInfo{}, err
	}
	return StateInfo{Executions: resp.Executions, CorpusCount: resp.CorpusCount}, nil
}

// ObserverNames lists the observers of a lent observers tuple.
func ObserverNames(observers Ref) ([]string, error) {
	var resp hostfuncs.ObserverNamesResponse
	if err := call(hostObserverNames, "observer_names", hostfuncs.RefRequest{Ref: uint64(observers)}, &resp); err != nil {
		return nil, err
	}
	return resp.Names, nil
}

// SetMetadata attaches value under key to a lent testcase.
func SetMetadata(testcase Ref, key string, value []byte) error {
	var resp hostfuncs.AckResponse
	return call(hostSetMetadata, "testcase_set_metadata", hostfuncs.SetMetadataRequest{
		Ref:   uint64(testcase),
		Key:   key,
		Value: value,
	}, &resp)
}

// ExitKinds returns the exit kind codes keyed by tag ("Ok", "Crash", ...).
func ExitKinds() (map[string]int64, error) {
	var resp hostfuncs.ExitKindsResponse
	if err := call(hostExitKinds, "exit_kinds", nil, &resp); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(resp.Kinds))
	for _, k := range resp.Kinds {
		out[k.Tag] = k.Code
	}
	return out, nil
}

// Raise records an exception for the export currently running. The host
// raises it once the export returns; the export's own result is ignored.
func Raise(excType, message string) error {
	var resp hostfuncs.AckResponse
	return call(hostRaise, "raise", hostfuncs.RaiseRequest{Type: excType, Message: message}, &resp)
}

// Name pins s in guest memory and returns it packed, for use as the result
// of a name export.
func Name(s string) uint64 {
	return abi.String(s)
}

// ExitCode returns the code a run_target export returns for kind.
func ExitCode(kind entities.ExitKind) uint64 {
	return uint64(kind.Code()) //nolint:gosec // G115: exit kind codes are small and non-negative
}

// ReadMem reads size bytes of emulated memory at addr.
func ReadMem(addr uint64, size uint32) ([]byte, error) {
	var resp hostfuncs.ReadMemResponse
	if err := call(hostReadMem, "read_mem", hostfuncs.ReadMemRequest{Addr: addr, Size: size}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// WriteMem writes data to emulated memory at addr.
func WriteMem(addr uint64, data []byte) error {
	var resp hostfuncs.AckResponse
	return call(hostWriteMem, "write_mem", hostfuncs.WriteMemRequest{Addr: addr, Data: data}, &resp)
}

// ReadReg reads an emulator register.
func ReadReg(reg int) (uint64, error) {
	var resp hostfuncs.RegResponse
	if err := call(hostReadReg, "read_reg", hostfuncs.RegRequest{Reg: reg}, &resp); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// WriteReg writes an emulator register.
func WriteReg(reg int, value uint64) error {
	var resp hostfuncs.AckResponse
	return call(hostWriteReg, "write_reg", hostfuncs.WriteRegRequest{Reg: reg, Value: value}, &resp)
}

// SetBreakpoint stops emulation when addr is reached.
func SetBreakpoint(addr uint64) error {
	var resp hostfuncs.AckResponse
	return call(hostSetBreakpoint, "set_breakpoint", hostfuncs.BreakpointRequest{Addr: addr}, &resp)
}

// RemoveBreakpoint clears a breakpoint set with SetBreakpoint.
func RemoveBreakpoint(addr uint64) error {
	var resp hostfuncs.AckResponse
	return call(hostRemoveBreakpoint, "remove_breakpoint", hostfuncs.BreakpointRequest{Addr: addr}, &resp)
}

// Run resumes emulation until the next breakpoint or exit.
func Run() (entities.EmulatorExit, error) {
	var resp hostfuncs.RunResponse
	if err := call(hostRun, "run", nil, &resp); err != nil {
		return entities.EmulatorExit{}, err
	}
	if resp.Exit == nil {
		return entities.EmulatorExit{}, &Error{Func: "run", Detail: entities.NewErrorDetail("internal", "no exit reported")}
	}
	return *resp.Exit, nil
}
