package scaffolding

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtb-build/mtb/internal/errors"
)

func newTestGenerator(t *testing.T) (*ComponentGenerator, string) {
	t.Helper()
	dir := t.TempDir()
	g := NewComponentGenerator(dir, nil)
	g.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return g, dir
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Hero", "Hero"},
		{"hero", "Hero"},
		{"ui/hero-banner", "Hero Banner"},
		{"ui/inputs/TextInput", "TextInput"},
		{"site_footer", "Site Footer"},
		{"my-site", "My Site"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Title(tt.name))
		})
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "herobanner", Slug("ui/HeroBanner"))
	assert.Equal(t, "hero-banner", Slug("hero_banner"))
	assert.Equal(t, "card", Slug("Card"))
}

func TestGenerate(t *testing.T) {
	g, dir := newTestGenerator(t)

	file, err := g.Generate(context.Background(), GenerateOptions{Name: "ui/hero-banner"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ui", "hero-banner.html"), file)

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "<!-- ui/hero-banner (2024-03-01) -->\n<div class=\"hero-banner\">\n  <h2>Hero Banner</h2>\n</div>\n", string(content))
}

func TestGenerateKeepsPlaceholderSyntax(t *testing.T) {
	g, _ := newTestGenerator(t)

	file, err := g.Generate(context.Background(), GenerateOptions{Name: "Hero", Template: "hero"})
	require.NoError(t, err)

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "${title}")
	assert.Contains(t, string(content), `{{ui/Button text="Get started" href="#start"}}`)
}

func TestGenerateRejectsInvalidNames(t *testing.T) {
	g, dir := newTestGenerator(t)

	for _, name := range []string{"", "../escape", "/abs", "ui//x", "has space", "dot.name"} {
		_, err := g.Generate(context.Background(), GenerateOptions{Name: name})
		var invalid *errors.InvalidNameError
		assert.True(t, errors.As(err, &invalid), name)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateUnknownTemplate(t *testing.T) {
	g, _ := newTestGenerator(t)

	_, err := g.Generate(context.Background(), GenerateOptions{Name: "Card", Template: "carousel"})
	assert.ErrorContains(t, err, "template 'carousel' not found")
}

func TestGenerateExisting(t *testing.T) {
	g, _ := newTestGenerator(t)
	ctx := context.Background()

	file, err := g.Generate(ctx, GenerateOptions{Name: "Card", Template: "card"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, []byte("custom"), 0644))

	_, err = g.Generate(ctx, GenerateOptions{Name: "Card"})
	assert.ErrorContains(t, err, "already exists")

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "custom", string(content))

	_, err = g.Generate(ctx, GenerateOptions{Name: "Card", Template: "card", Force: true})
	require.NoError(t, err)
	content, err = os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), `<div class="card card">`)
}

func TestListTemplates(t *testing.T) {
	g, _ := newTestGenerator(t)
	g.AddCustomTemplate("banner", ComponentTemplate{Description: "Banner", Category: "content", Content: "<aside></aside>"})

	templates := g.ListTemplates()
	require.Len(t, templates, len(GetBuiltinTemplates())+1)
	for i := 1; i < len(templates); i++ {
		assert.Less(t, templates[i-1].Name, templates[i].Name)
	}

	tmpl, ok := g.GetTemplate("banner")
	require.True(t, ok)
	assert.Equal(t, "banner", tmpl.Name)

	button, ok := g.GetTemplate("button")
	require.True(t, ok)
	assert.Len(t, button.Parameters, 2)
}

func TestBuiltinTemplatesParse(t *testing.T) {
	g, _ := newTestGenerator(t)

	for name, tmpl := range GetBuiltinTemplates() {
		t.Run(name, func(t *testing.T) {
			out, err := g.render(tmpl, "ui/Sample")
			require.NoError(t, err)
			assert.NotEmpty(t, out)
			assert.NotContains(t, string(out), "[[")
		})
	}
}
