package hostfuncs

// HostFuncBundle is the set of host functions one namespace exports.
type HostFuncBundle interface {
	Handlers() map[string]ByteHandler
}

// Set is a HostFuncBundle backed by a map.
type Set map[string]ByteHandler

// Handlers implements HostFuncBundle.
func (s Set) Handlers() map[string]ByteHandler {
	return s
}

type combined []HostFuncBundle

func (c combined) Handlers() map[string]ByteHandler {
	out := make(map[string]ByteHandler)
	for _, b := range c {
		for name, h := range b.Handlers() {
			out[name] = h
		}
	}
	return out
}

// Combine merges bundles into one. Registered through WithBundle, a name
// exported by two of them is reported as a duplicate.
func Combine(bundles ...HostFuncBundle) HostFuncBundle {
	return combined(bundles)
}

// WithBundle registers every function of bundle.
func WithBundle(bundle HostFuncBundle) RegistryOption {
	return func(b *registryBuilder) {
		if c, ok := bundle.(combined); ok {
			for _, inner := range c {
				WithBundle(inner)(b)
			}
			return
		}
		for name, h := range bundle.Handlers() {
			b.add(name, h)
		}
	}
}

// WithHandler registers a typed host function through NewJSONHandler.
func WithHandler[Req any, Resp any](name string, fn HostFunc[Req, Resp]) RegistryOption {
	return func(b *registryBuilder) {
		b.add(name, NewJSONHandler(fn))
	}
}
