// Package foreign provides opaque handles to values owned by a foreign runtime.
//
// A foreign value (a WebAssembly guest, or an in-process dynamic Object) may
// only be touched while holding the process-wide interpreter lock. Handle is
// the single entry point: Acquire blocks until the lock is free and returns an
// Access scope guard through which methods are resolved by name and invoked.
//
//	acc, err := h.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer acc.Release()
//	v, err := acc.Call(ctx, "is_interesting", foreign.KindBool, state, mgr, input, observers, exitKind)
//
// Method lookup happens on every call and is never cached: foreign objects may
// be changed between calls. A missing method yields errors.ErrMethodMissing;
// an exception raised by foreign code yields *errors.ForeignException.
//
// Native arguments that are not scalars are lent to foreign code as Ref values
// for the duration of one call. Foreign code resolves them with Borrow.
package foreign
