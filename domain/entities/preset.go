package entities

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PresetKind names a high-level fuzzing preset offered by the sugar namespace.
type PresetKind string

const (
	PresetInMemoryBytesCoverage   PresetKind = "in_memory_bytes_coverage"
	PresetForkserverBytesCoverage PresetKind = "forkserver_bytes_coverage"
	PresetQemuBytesCoverage       PresetKind = "qemu_bytes_coverage"
)

// DefaultBrokerPort is the event broker port used when a preset leaves it unset.
const DefaultBrokerPort = 1337

// PresetKinds returns every preset kind in a stable order.
func PresetKinds() []PresetKind {
	return []PresetKind{
		PresetInMemoryBytesCoverage,
		PresetForkserverBytesCoverage,
		PresetQemuBytesCoverage,
	}
}

// PresetSpec selects a preset and carries its configuration.
type PresetSpec struct {
	Kind   PresetKind   `json:"kind" yaml:"kind" validate:"required,oneof=in_memory_bytes_coverage forkserver_bytes_coverage qemu_bytes_coverage"`
	Config PresetConfig `json:"config" yaml:"config"`
}

// PresetConfig is the configuration shared by all presets.
type PresetConfig struct {
	// InputDirs are the initial corpus directories.
	InputDirs []string `json:"input_dirs" yaml:"input_dirs" validate:"required,min=1,dive,required" jsonschema:"minItems=1,description=Initial corpus directories"`

	// OutputDir receives crashes and the evolving corpus.
	OutputDir string `json:"output_dir" yaml:"output_dir" validate:"required" jsonschema:"description=Directory for crashes and corpus"`

	// Cores is a core list such as "all", "0-3" or "0,2,4".
	Cores string `json:"cores" yaml:"cores" validate:"required" jsonschema:"description=Cores to bind clients to (all; 0-3; 0;2;4)"`

	// TokensFile is an optional dictionary of tokens.
	TokensFile string `json:"tokens_file,omitempty" yaml:"tokens_file,omitempty"`

	// Program is the target binary, required by the forkserver preset.
	Program string `json:"program,omitempty" yaml:"program,omitempty"`

	// Arguments are passed to Program.
	Arguments []string `json:"arguments,omitempty" yaml:"arguments,omitempty"`

	// Iterations bounds the number of fuzzing iterations; zero runs until stopped.
	Iterations uint64 `json:"iterations,omitempty" yaml:"iterations,omitempty"`

	// TimeoutMs is the per-execution timeout in milliseconds.
	TimeoutMs uint64 `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty" validate:"omitempty,min=1"`

	// BrokerPort is the port of the event broker.
	BrokerPort uint16 `json:"broker_port,omitempty" yaml:"broker_port,omitempty" validate:"omitempty,min=1"`

	// UseCmplog enables the comparison logging stage.
	UseCmplog bool `json:"use_cmplog,omitempty" yaml:"use_cmplog,omitempty"`
}

// WithDefaults returns a copy of the configuration with unset fields defaulted.
func (c PresetConfig) WithDefaults() PresetConfig {
	if c.BrokerPort == 0 {
		c.BrokerPort = DefaultBrokerPort
	}
	return c
}

// CheckKind applies the checks that depend on the preset kind.
func (c PresetConfig) CheckKind(kind PresetKind) error {
	switch kind {
	case PresetForkserverBytesCoverage:
		if c.Program == "" {
			return fmt.Errorf("preset %s requires program", kind)
		}
	case PresetInMemoryBytesCoverage, PresetQemuBytesCoverage:
		if c.Program != "" {
			return fmt.Errorf("preset %s does not take a program", kind)
		}
	default:
		return fmt.Errorf("unknown preset %q", kind)
	}
	if _, err := ParseCores(c.Cores); err != nil {
		return err
	}
	return nil
}

// AllCores is the sentinel returned by ParseCores for "all".
var AllCores []int

// ParseCores parses a core list. "all" returns AllCores (nil).
func ParseCores(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty core list")
	}
	if strings.EqualFold(s, "all") {
		return AllCores, nil
	}

	seen := make(map[int]struct{})
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || start < 0 {
			return nil, fmt.Errorf("invalid core %q", part)
		}
		end := start
		if isRange {
			end, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || end < start {
				return nil, fmt.Errorf("invalid core range %q", part)
			}
		}
		for i := start; i <= end; i++ {
			seen[i] = struct{}{}
		}
	}

	cores := make([]int, 0, len(seen))
	for c := range seen {
		cores = append(cores, c)
	}
	sort.Ints(cores)
	return cores, nil
}
