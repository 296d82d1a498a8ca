// Package parser decodes session manifests.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	"github.com/reglet-dev/fuzzbridge/domain/ports"
)

// YamlSessionParser implements SessionParser for YAML. Unknown keys are
// rejected so a misspelled capability list does not silently attach nothing.
type YamlSessionParser struct{}

// NewYamlSessionParser creates a new YamlSessionParser.
func NewYamlSessionParser() ports.SessionParser {
	return &YamlSessionParser{}
}

// Parse unmarshals YAML bytes into a SessionManifest struct.
func (p *YamlSessionParser) Parse(data []byte) (*entities.SessionManifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var manifest entities.SessionManifest
	if err := dec.Decode(&manifest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty session manifest")
		}
		return nil, err
	}
	return &manifest, nil
}
