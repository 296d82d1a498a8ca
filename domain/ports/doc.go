// Package ports defines the interfaces at the edges of the bridge.
//
// The capability interfaces (Observer, Feedback, Executor, Mutator, Stage) are
// the engine-facing trait boundary: the fuzzing engine drives extensions only
// through them, and treats an adapter around a foreign object as
// interchangeable with any native implementation. The engine values they
// receive (State, Input, Testcase, ...) belong to the engine and are opaque
// to this layer beyond the accessors declared here.
package ports
