// Package namespace composes the bridge's sub-bridges into one loadable module.
//
// A Module starts unregistered. Register builds the libafl, sugar and qemu
// namespaces and records them under their dotted paths below the root, or
// records none of them when any build fails:
//
//	mod := namespace.New(namespace.WithAttachSink(session))
//	if err := mod.Register(ctx); err != nil {
//	    return err // *errors.RegistrationError
//	}
//	ns, _ := mod.Lookup("fuzzbridge.libafl")
//
// Install exports every namespace as a wazero host module named by its path,
// so guests import host functions from "fuzzbridge.libafl" and friends.
package namespace
