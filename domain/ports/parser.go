package ports

import "github.com/reglet-dev/fuzzbridge/domain/entities"

// SessionParser parses raw YAML bytes into a SessionManifest.
type SessionParser interface {
	// Parse unmarshals YAML bytes into a SessionManifest struct.
	Parse(data []byte) (*entities.SessionManifest, error)
}
