// Package wazero connects the bridge to the wazero WebAssembly runtime.
//
// It works in both directions:
//
//   - Guest and GuestFunc expose an instantiated guest module as a foreign
//     value, so guests can be wrapped as Observer, Feedback, Executor,
//     Mutator or Stage components.
//   - RegisterWithRuntime exports a hostfuncs.HandlerRegistry as a host
//     module, which is how the libafl, sugar and qemu namespaces become
//     importable by guests.
//
// Host functions use the packed i64 pointer+length format. Requests are read
// from guest memory; responses are written into memory obtained from the
// guest's "allocate" export.
//
// # Basic Usage
//
//	registry, err := hostfuncs.NewRegistry(
//	    hostfuncs.WithBundle(hostfuncs.LibAFLBundle(sink)),
//	)
//	if err != nil {
//	    return err
//	}
//
//	runtime := wazero.NewRuntime(ctx)
//	_, err = wazero.RegisterWithRuntime(ctx, runtime, registry,
//	    wazero.WithModuleName("fuzzbridge.libafl"),
//	    wazero.WithCustomHandler(wazero.LogMessageHandler(logger)),
//	)
//
// # Guest ABI
//
// A guest method takes one i64 per argument. Lent engine values (state,
// input, manager) arrive as reference ids that the guest passes back to
// host functions such as input_bytes. A guest reports an exception by
// calling the "raise" host function before returning, or by trapping.
package wazero
