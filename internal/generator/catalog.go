package generator

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed templates
var templateFS embed.FS

// TemplateCatalog resolves code-generation templates. The record template
// renders a full persistence struct per table; custom templates under
// templates/custom/ override field handling for individual column types.
// Custom templates are looked up by lowercased type name, so "UUID" and
// "uuid" resolve to the same file.
type TemplateCatalog struct {
	fsys   fs.FS
	record *template.Template
}

// NewTemplateCatalog loads the embedded templates. An external fs.FS can be
// supplied with NewTemplateCatalogFS to override the built-in set.
func NewTemplateCatalog() (*TemplateCatalog, error) {
	return NewTemplateCatalogFS(templateFS)
}

// NewTemplateCatalogFS loads templates from fsys, which must contain
// templates/record.tmpl and may contain templates/custom/<type>.tmpl files.
func NewTemplateCatalogFS(fsys fs.FS) (*TemplateCatalog, error) {
	record, err := template.New("record.tmpl").Funcs(templateFuncs).ParseFS(fsys, "templates/record.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse record template: %w", err)
	}
	return &TemplateCatalog{fsys: fsys, record: record}, nil
}

// HasCustomTemplate reports whether a custom template exists for the given
// column type. The probe never fails; an unreadable file counts as absent.
func (c *TemplateCatalog) HasCustomTemplate(typeName string) bool {
	info, err := fs.Stat(c.fsys, c.customPath(typeName))
	return err == nil && !info.IsDir()
}

// Custom parses and returns the custom template for the given column type.
func (c *TemplateCatalog) Custom(typeName string) (*template.Template, error) {
	path := c.customPath(typeName)
	tmpl, err := template.New(strings.ToLower(typeName) + ".tmpl").Funcs(templateFuncs).ParseFS(c.fsys, path)
	if err != nil {
		return nil, fmt.Errorf("parse custom template for %q: %w", typeName, err)
	}
	return tmpl, nil
}

// Record returns the record template shared by all generated tables.
func (c *TemplateCatalog) Record() *template.Template {
	return c.record
}

func (c *TemplateCatalog) customPath(typeName string) string {
	return "templates/custom/" + strings.ToLower(typeName) + ".tmpl"
}
