package entities

// EmulatorExit describes why an emulator run returned control to the host.
type EmulatorExit struct {
	// Reason is "breakpoint", "exit" or "error".
	Reason string `json:"reason"`

	// PC is the program counter at the stop.
	PC uint64 `json:"pc"`

	// Code is the guest exit code when Reason is "exit".
	Code int32 `json:"code,omitempty"`
}
