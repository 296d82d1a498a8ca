// Package entities provides the core domain entities of the bridge.
// These are the engine-side values that flow through adapters (exit kinds,
// corpus ids, mutation results), the capability contract tables and the
// configuration documents (session manifests, preset configurations).
package entities
