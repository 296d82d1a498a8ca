// Package host runs WebAssembly guests as fuzzing components.
//
// A Runtime owns the wazero runtime and installs the registered fuzzbridge
// namespaces as host modules. A Loader renders, parses and validates a session
// manifest, and Runtime.Open instantiates the manifest's guests under the
// interpreter lock and attaches each as the Observer, Feedback, Executor,
// Mutator or Stage it asked to be. The resulting Session hands the
// components to the engine through the domain/ports interfaces.
package host
