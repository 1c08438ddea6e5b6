package assets

var defaultLoader = NewEmbeddedLoader()

// DefaultTemplateSet parses the built-in templates.
func DefaultTemplateSet() (*TemplateSet, error) {
	return LoadTemplateSet(defaultLoader)
}
