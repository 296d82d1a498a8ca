// Package skeleton holds the default implementations of the five capability
// contracts and the catalog of classes foreign authors extend.
//
// A foreign object overrides any subset of a contract's operations. Every
// operation it leaves out behaves exactly like the Base type of this
// package: a no-op, false, Skipped, or the runtime type name for name().
// Executor is the exception: run_target has no default.
package skeleton
