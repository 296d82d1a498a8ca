// Package guest is the guest side of fuzzbridge: it lets a Go program built
// for GOOS=wasip1 attach itself as a fuzzing component and query the values
// the host lends it during a call.
//
// Guests are built as reactors (-buildmode=c-shared) so that package init
// functions run from _initialize, while the host loads the session. A guest
// registers from init:
//
//	func init() {
//	    if err := guest.AsObserver(); err != nil {
//	        panic(err)
//	    }
//	}
//
// Component methods are plain exports taking one uint64 per argument.
// Lent inputs, states and testcases arrive as a Ref that is valid until the
// export returns:
//
//	//go:wasmexport post_exec
//	func postExec(state, input, exitKind uint64) {
//	    data, err := guest.InputBytes(guest.Ref(input))
//	    ...
//	}
//
// Importing the package routes slog's default logger to the host.
package guest
