package entities

// SessionManifest describes the foreign objects attached to one fuzzing session.
type SessionManifest struct {
	Preset    *PresetSpec `json:"preset,omitempty" yaml:"preset,omitempty" validate:"-"`
	Name      string      `json:"name" yaml:"name" validate:"required"`
	Namespace string      `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Guests    []GuestSpec `json:"guests" yaml:"guests" validate:"required,min=1,dive"`
}

// GuestSpec names a WebAssembly guest and the capabilities it is attached as.
type GuestSpec struct {
	// Name is the module name; it becomes the guest's runtime type name.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Path is the location of the .wasm file, relative to the manifest.
	Path string `json:"path" yaml:"path" validate:"required"`

	// Attach lists capabilities the host attaches regardless of as_* calls.
	Attach []Capability `json:"attach,omitempty" yaml:"attach,omitempty" validate:"dive,oneof=observer feedback executor mutator stage"`

	// Callable names an export invoked directly when attached as a function stage.
	Callable string `json:"callable,omitempty" yaml:"callable,omitempty"`

	// Observers names the observer guests an executor guest exposes, in order.
	Observers []string `json:"observers,omitempty" yaml:"observers,omitempty"`
}

// AttachRequest is a guest asking to be attached as an engine component.
type AttachRequest struct {
	// Guest is the requesting guest module.
	Guest string `json:"guest"`

	// Capability is the contract to attach as.
	Capability Capability `json:"capability"`

	// Export names the guest export used as a bare callable (FnStage).
	Export string `json:"export,omitempty"`

	// Observers lists the observers an executor reports, by name.
	Observers []string `json:"observers,omitempty"`

	// Callable marks an FnStage attachment.
	Callable bool `json:"callable,omitempty"`
}
