package assets

import (
	"bytes"
	"fmt"
	"html/template"
)

// Built-in asset names.
const (
	ThemedTemplateName   = "themed"
	FallbackTemplateName = "fallback"
	PageTemplateName     = "page"
	DefaultStyleName     = "default"
)

// ThemedData fills the themed template. Light and Dark are trusted SVG
// markup read from the artifact store.
type ThemedData struct {
	Key   string
	Light template.HTML
	Dark  template.HTML
}

// FallbackData fills the fallback template. Source is escaped on output.
type FallbackData struct {
	Key    string
	Source string
}

// PageData fills the preview page template.
type PageData struct {
	Title string
	Style template.CSS
	Body  template.HTML
}

// TemplateSet holds the parsed templates used to embed diagrams.
type TemplateSet struct {
	themed   *template.Template
	fallback *template.Template
	page     *template.Template
}

// LoadTemplateSet loads and parses the themed, fallback and page templates
// from loader.
func LoadTemplateSet(loader AssetLoader) (*TemplateSet, error) {
	themed, err := parseTemplate(loader, ThemedTemplateName)
	if err != nil {
		return nil, err
	}
	fallback, err := parseTemplate(loader, FallbackTemplateName)
	if err != nil {
		return nil, err
	}
	page, err := parseTemplate(loader, PageTemplateName)
	if err != nil {
		return nil, err
	}
	return &TemplateSet{themed: themed, fallback: fallback, page: page}, nil
}

func parseTemplate(loader AssetLoader, name string) (*template.Template, error) {
	content, err := loader.LoadTemplate(name)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateParse, name, err)
	}
	return tmpl, nil
}

// Themed renders the light/dark markup of a cached diagram.
func (ts *TemplateSet) Themed(data ThemedData) (string, error) {
	return execute(ts.themed, data)
}

// Fallback renders the placeholder of an uncached diagram.
func (ts *TemplateSet) Fallback(data FallbackData) (string, error) {
	return execute(ts.fallback, data)
}

// Page renders a standalone preview page.
func (ts *TemplateSet) Page(data PageData) (string, error) {
	return execute(ts.page, data)
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateRender, tmpl.Name(), err)
	}
	return buf.String(), nil
}
