package ports

// TemplateEngine renders a session manifest before it is parsed.
type TemplateEngine interface {
	// Render expands raw with config reachable as {{.config.key}}.
	Render(raw []byte, config map[string]interface{}) ([]byte, error)
}
