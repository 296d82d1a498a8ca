// Package bridge adapts foreign values to the engine's capability interfaces.
//
// Each wrapper owns exactly one foreign.Handle and implements one of
// ports.Observer, ports.Feedback, ports.Executor, ports.Mutator or
// ports.Stage. A call acquires the interpreter lock, lends the native
// arguments, resolves the method by name, and translates the result.
//
// Missing methods fall back to the matching skeleton default. Foreign
// exceptions are absorbed and logged where a default exists, returned as a
// non-fatal *errors.FeedbackEvaluationError from IsInteresting, and surfaced
// from RunTarget, name() and FnStage. Contract violations are always
// returned, and are detected at construction whenever possible: a missing
// run_target or a wrong arity fails before any fuzzing iteration.
package bridge
