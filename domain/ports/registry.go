package ports

// SchemaRegistry stores the JSON schema of each preset kind. The sugar
// namespace serves these schemas and the preset validator checks against
// them.
type SchemaRegistry interface {
	// Register reflects model into the schema of kind.
	Register(kind string, model interface{}) error

	// GetSchema returns the schema of kind as JSON.
	GetSchema(kind string) (string, bool)

	// List returns the registered kinds, sorted.
	List() []string
}
