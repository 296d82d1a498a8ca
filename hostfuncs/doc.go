// Package hostfuncs provides the host functions behind the bridge namespaces.
// These implementations have NO WASM runtime dependencies: handlers are
// JSON ByteHandlers collected in an immutable HandlerRegistry, and the
// infrastructure/wazero adapter exports a registry as a host module.
//
// Three bundles exist, one per namespace:
//
//   - LibAFLBundle: access to lent engine values, exit kinds, the class
//     catalog, raise, and the as_* conversions guests use to attach.
//   - SugarBundle: the high-level presets.
//   - QEMUBundle: the emulator, answering NOT_AVAILABLE when none is set.
package hostfuncs
