// Package scaffolding creates new projects and component files.
package scaffolding

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mtb-build/mtb/internal/errors"
	"github.com/mtb-build/mtb/internal/logging"
	"github.com/mtb-build/mtb/internal/validation"
)

// ComponentExt is the extension of component source files.
const ComponentExt = ".html"

// ComponentGenerator handles component scaffolding
type ComponentGenerator struct {
	templates     map[string]ComponentTemplate
	componentsDir string
	logger        logging.Logger
	now           func() time.Time
}

// GenerateOptions holds options for component generation
type GenerateOptions struct {
	// Name is the namespaced component name, e.g. "ui/inputs/TextInput".
	Name     string
	Template string
	// Force overwrites an existing component file.
	Force bool
}

// TemplateInfo holds basic template information
type TemplateInfo struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
	Parameters  int    `json:"parameters" yaml:"parameters"`
}

// NewComponentGenerator creates a generator writing into componentsDir.
func NewComponentGenerator(componentsDir string, logger logging.Logger) *ComponentGenerator {
	return &ComponentGenerator{
		templates:     GetBuiltinTemplates(),
		componentsDir: componentsDir,
		logger:        logging.OrNop(logger).WithComponent("scaffolding"),
		now:           time.Now,
	}
}

// Generate writes a new component file and returns its path.
func (g *ComponentGenerator) Generate(ctx context.Context, opts GenerateOptions) (string, error) {
	if !validation.IsValidComponentName(opts.Name) {
		return "", &errors.InvalidNameError{Name: opts.Name}
	}

	if opts.Template == "" {
		opts.Template = DefaultTemplate
	}
	tmpl, exists := g.templates[opts.Template]
	if !exists {
		return "", fmt.Errorf("template '%s' not found", opts.Template)
	}

	file := filepath.Join(g.componentsDir, filepath.FromSlash(opts.Name)+ComponentExt)
	if _, err := os.Stat(file); err == nil && !opts.Force {
		return "", fmt.Errorf("component %s already exists at %s", opts.Name, file)
	}

	content, err := g.render(tmpl, opts.Name)
	if err != nil {
		return "", err
	}

	if err := writeFile(file, content); err != nil {
		return "", err
	}

	g.logger.Info(ctx, "component created", "name", opts.Name, "template", tmpl.Name, "path", file)
	return file, nil
}

// render executes tmpl for the component called name.
func (g *ComponentGenerator) render(tmpl ComponentTemplate, name string) ([]byte, error) {
	t, err := template.New(tmpl.Name).Delims("[[", "]]").Parse(tmpl.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	ctx := TemplateContext{
		ComponentName: name,
		Title:         Title(name),
		Slug:          Slug(name),
		Parameters:    tmpl.Parameters,
		Date:          g.now().Format("2006-01-02"),
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// ListTemplates returns available templates sorted by name.
func (g *ComponentGenerator) ListTemplates() []TemplateInfo {
	templates := make([]TemplateInfo, 0, len(g.templates))
	for name, tmpl := range g.templates {
		templates = append(templates, TemplateInfo{
			Name:        name,
			Description: tmpl.Description,
			Category:    tmpl.Category,
			Parameters:  len(tmpl.Parameters),
		})
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates
}

// GetTemplate returns a specific template
func (g *ComponentGenerator) GetTemplate(name string) (ComponentTemplate, bool) {
	tmpl, exists := g.templates[name]
	return tmpl, exists
}

// AddCustomTemplate adds a custom template
func (g *ComponentGenerator) AddCustomTemplate(name string, tmpl ComponentTemplate) {
	if tmpl.Name == "" {
		tmpl.Name = name
	}
	g.templates[name] = tmpl
}

// Title turns the last segment of a component name into a heading:
// "ui/hero-banner" becomes "Hero Banner".
func Title(name string) string {
	words := strings.FieldsFunc(path.Base(name), func(r rune) bool {
		return r == '-' || r == '_'
	})
	return cases.Title(language.English, cases.NoLower).String(strings.Join(words, " "))
}

// Slug returns the CSS class used for a component: "ui/HeroBanner" becomes
// "herobanner".
func Slug(name string) string {
	words := strings.FieldsFunc(path.Base(name), func(r rune) bool {
		return r == '-' || r == '_'
	})
	return cases.Lower(language.English).String(strings.Join(words, "-"))
}

func writeFile(file string, content []byte) error {
	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &errors.DirectoryCreateError{Path: dir, Err: err}
	}
	if err := os.WriteFile(file, content, 0644); err != nil {
		return &errors.FileWriteError{Path: file, Err: err}
	}
	return nil
}
