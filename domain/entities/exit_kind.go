package entities

import (
	"fmt"
	"strings"
)

// ExitKind classifies the outcome of a single target execution.
// The set is closed: foreign values must map onto one of these deterministically.
type ExitKind int

const (
	// ExitKindOk means the target returned normally.
	ExitKindOk ExitKind = iota
	// ExitKindCrash means the target crashed.
	ExitKindCrash
	// ExitKindOom means the target ran out of memory or terminated abnormally.
	ExitKindOom
	// ExitKindTimeout means the target exceeded its time budget.
	ExitKindTimeout
)

var exitKindTags = [...]string{
	ExitKindOk:      "ok",
	ExitKindCrash:   "crash",
	ExitKindOom:     "oom",
	ExitKindTimeout: "timeout",
}

// ExitKinds returns every exit kind in code order.
func ExitKinds() []ExitKind {
	return []ExitKind{ExitKindOk, ExitKindCrash, ExitKindOom, ExitKindTimeout}
}

// String returns the lower-case tag of the exit kind.
func (k ExitKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("ExitKind(%d)", int(k))
	}
	return exitKindTags[k]
}

// Valid reports whether k is one of the defined exit kinds.
func (k ExitKind) Valid() bool {
	return k >= ExitKindOk && k <= ExitKindTimeout
}

// Code returns the integer code used on the guest ABI.
func (k ExitKind) Code() int64 {
	return int64(k)
}

// ExitKindFromCode maps a guest integer code onto an ExitKind.
func ExitKindFromCode(code int64) (ExitKind, bool) {
	k := ExitKind(code)
	if code < 0 || !k.Valid() {
		return 0, false
	}
	return k, true
}

// ParseExitKind maps a tag (case-insensitive) onto an ExitKind.
func ParseExitKind(tag string) (ExitKind, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for i, t := range exitKindTags {
		if t == tag {
			return ExitKind(i), true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (k ExitKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid exit kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ExitKind) UnmarshalText(text []byte) error {
	parsed, ok := ParseExitKind(string(text))
	if !ok {
		return fmt.Errorf("unknown exit kind %q", string(text))
	}
	*k = parsed
	return nil
}
