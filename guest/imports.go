//go:build wasip1

package guest

// Every host function takes a packed request and returns a packed response,
// both JSON in guest memory.

//go:wasmimport fuzzbridge.libafl as_observer
func hostAsObserver(packed uint64) uint64

//go:wasmimport fuzzbridge.libafl as_feedback
func hostAsFeedback(packed uint64) uint64

//go:wasmimport fuzzbridge.libafl as_executor
func hostAsExecutor(packed uint64) uint64

//go:wasmimport fuzzbridge.libafl as_mutator
func hostAsMutator(packed uint64) uint64

//go:wasmimport fuzzbridge.libafl as_stage
func hostAsStage(packed uint64) uint64

//go:wasmimport fuzzbridge.libafl as_fn_stage
func hostAsFnStage(packed uint64) uint64

//go:wasmimport fuzzbridge.libafl input_bytes
func hostInputBytes(packed uint64) uint64

//go:wasmimport fuzzbridge.libafl input_len
func hostInputLen(packed uint64) uint64

//go:wasmimport fuzzbridge.libafl state_info
func hostStateInfo(packed uint64) uint64

//go:wasmimport fuzzbridge.libafl observer_names
func hostObserverNames(packed uint64) uint64

//go:wasmimport fuzzbridge.libafl testcase_set_metadata
func hostSetMetadata(packed uint64) uint64

//go:wasmimport fuzzbridge.libafl exit_kinds
func hostExitKinds(packed uint64) uint64

//go:wasmimport fuzzbridge.libafl raise
func hostRaise(packed uint64) uint64

//go:wasmimport fuzzbridge.libafl log_message
func hostLogMessage(packed uint64)

//go:wasmimport fuzzbridge.qemu read_mem
func hostReadMem(packed uint64) uint64

//go:wasmimport fuzzbridge.qemu write_mem
func hostWriteMem(packed uint64) uint64

//go:wasmimport fuzzbridge.qemu read_reg
func hostReadReg(packed uint64) uint64

//go:wasmimport fuzzbridge.qemu write_reg
func hostWriteReg(packed uint64) uint64

//go:wasmimport fuzzbridge.qemu set_breakpoint
func hostSetBreakpoint(packed uint64) uint64

//go:wasmimport fuzzbridge.qemu remove_breakpoint
func hostRemoveBreakpoint(packed uint64) uint64

//go:wasmimport fuzzbridge.qemu run
func hostRun(packed uint64) uint64
