package compiler

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtb-build/mtb/internal/errors"
	"github.com/mtb-build/mtb/internal/logging"
	"github.com/mtb-build/mtb/internal/registry"
)

func newCompiler(t *testing.T, components map[string]string) *Compiler {
	t.Helper()

	reg := registry.NewComponentRegistry(nil)
	for name, content := range components {
		_, err := reg.Register(name, content)
		require.NoError(t, err)
	}
	return New(reg, nil)
}

// chain registers c0 -> c1 -> ... -> c(n-1), where the last one is a leaf.
func chain(n int) map[string]string {
	components := make(map[string]string, n)
	for i := 0; i < n-1; i++ {
		components[fmt.Sprintf("c%d", i)] = fmt.Sprintf("<%d>{{c%d}}</%d>", i, i+1, i)
	}
	components[fmt.Sprintf("c%d", n-1)] = "leaf"
	return components
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name       string
		components map[string]string
		body       string
		want       string
	}{
		{
			name: "no tags returns body unchanged",
			body: "<html><body>{ not a tag } ${text} {{ spaced }}</body></html>",
			want: "<html><body>{ not a tag } ${text} {{ spaced }}</body></html>",
		},
		{
			name:       "simple replacement",
			components: map[string]string{"Hero": "<h1>Hi</h1>"},
			body:       "<body>{{Hero}}</body>",
			want:       "<body><h1>Hi</h1></body>",
		},
		{
			name:       "every occurrence is replaced",
			components: map[string]string{"btn": "<button/>"},
			body:       "{{btn}}...{{btn}}",
			want:       "<button/>...<button/>",
		},
		{
			name:       "properties are interpolated",
			components: map[string]string{"btn": "<button>${text}</button>"},
			body:       `{{btn text="Go"}}`,
			want:       "<button>Go</button>",
		},
		{
			name:       "missing properties leave placeholders literal",
			components: map[string]string{"btn": "<button>${text}</button>"},
			body:       "{{btn}}",
			want:       "<button>${text}</button>",
		},
		{
			name:       "unused properties are ignored",
			components: map[string]string{"Hero": "<h1>Hi</h1>"},
			body:       `{{Hero title="x"}}`,
			want:       "<h1>Hi</h1>",
		},
		{
			name:       "same component with different properties",
			components: map[string]string{"btn": "<b>${text}</b>"},
			body:       `{{btn text="A"}}{{btn text="B"}}{{btn text="A"}}`,
			want:       "<b>A</b><b>B</b><b>A</b>",
		},
		{
			name:       "coerced values are rendered canonically",
			components: map[string]string{"n": "${count}|${ratio}|${on}"},
			body:       `{{n count=3 ratio="0.5" on=true}}`,
			want:       "3|0.5|true",
		},
		{
			name: "end to end",
			components: map[string]string{
				"Hero":      "<h1>Hi</h1>",
				"ui/Button": "<button>${text}</button>",
			},
			body: `<body>{{Hero}}{{ui/Button text="Go"}}</body>`,
			want: "<body><h1>Hi</h1><button>Go</button></body>",
		},
		{
			name: "nested components are fully expanded",
			components: map[string]string{
				"Layout": "<main>{{Header}}{{Footer}}</main>",
				"Header": "<header>{{Logo}}</header>",
				"Footer": "<footer>{{Logo}}</footer>",
				"Logo":   "<img/>",
			},
			body: "{{Layout}}",
			want: "<main><header><img/></header><footer><img/></footer></main>",
		},
		{
			name: "properties reach nested tags",
			components: map[string]string{
				"Card":  `<div>{{Title text="${heading}"}}</div>`,
				"Title": "<h2>${text}</h2>",
			},
			body: `{{Card heading="Hello"}}`,
			want: "<div><h2>Hello</h2></div>",
		},
		{
			name: "siblings may reuse a component",
			components: map[string]string{
				"A": "{{B}}{{C}}",
				"B": "[{{D}}]",
				"C": "({{D}})",
				"D": "d",
			},
			body: "{{A}}",
			want: "[d](d)",
		},
		{
			name:       "tags with invalid names are left alone",
			components: map[string]string{"Hero": "h"},
			body:       "{{he.ro}}{{Hero}}",
			want:       "{{he.ro}}h",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCompiler(t, tt.components)
			got, err := c.Compile("index", tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_MissingComponents(t *testing.T) {
	c := newCompiler(t, map[string]string{"Hero": "<h1/>"})

	_, err := c.Compile("about", "{{Hero}}{{Nav}}{{Footer}}{{Nav}}")
	require.Error(t, err)

	var compErr *errors.CompilationError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, "about", compErr.Page)
	assert.Equal(t, []string{"Nav", "Footer"}, compErr.Missing)
	assert.Len(t, compErr.Messages, 2)
	assert.Contains(t, err.Error(), `component "Nav" not found`)
	assert.Contains(t, err.Error(), `component "Footer" not found`)
	assert.False(t, errors.IsFatal(err))
}

func TestCompile_NestedMissingComponents(t *testing.T) {
	c := newCompiler(t, map[string]string{
		"Layout": "{{Header}}{{Sidebar}}",
		"Header": "{{Logo}}",
	})

	_, err := c.Compile("index", "{{Layout}}{{Footer}}")

	var compErr *errors.CompilationError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, "index", compErr.Page)
	assert.Equal(t, []string{"Logo", "Sidebar", "Footer"}, compErr.Missing)
}

func TestCompile_Cycles(t *testing.T) {
	tests := []struct {
		name       string
		components map[string]string
		body       string
		wantPath   []string
	}{
		{
			name:       "self reference",
			components: map[string]string{"A": "{{A}}"},
			body:       "{{A}}",
			wantPath:   []string{"A", "A"},
		},
		{
			name:       "indirect",
			components: map[string]string{"A": "<a>{{B}}</a>", "B": "<b>{{A}}</b>"},
			body:       "{{A}}",
			wantPath:   []string{"A", "B", "A"},
		},
		{
			name:       "longer loop",
			components: map[string]string{"A": "{{B}}", "B": "{{C}}", "C": "{{A}}"},
			body:       "<p>{{A}}</p>",
			wantPath:   []string{"A", "B", "C", "A"},
		},
		{
			name:       "cycle through properties",
			components: map[string]string{"A": `{{B x="1"}}`, "B": `{{A y="2"}}`},
			body:       "{{A}}",
			wantPath:   []string{"A", "B", "A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCompiler(t, tt.components)
			_, err := c.Compile("index", tt.body)
			require.Error(t, err)

			var cycle *errors.CycleError
			require.ErrorAs(t, err, &cycle)
			assert.Equal(t, tt.wantPath, cycle.Path)
			assert.True(t, errors.IsFatal(err))
			assert.Equal(t, errors.CodeCompilation, errors.Code(err))
			assert.Contains(t, err.Error(), strings.Join(tt.wantPath, " -> "))
		})
	}
}

func TestCompile_CycleAbortsBeforeMissingAreReported(t *testing.T) {
	c := newCompiler(t, map[string]string{"A": "{{A}}"})

	_, err := c.Compile("index", "{{Ghost}}{{A}}")

	var compErr *errors.CompilationError
	require.ErrorAs(t, err, &compErr)
	assert.Empty(t, compErr.Missing)
	assert.True(t, errors.IsFatal(err))
}

func TestCompile_DepthBound(t *testing.T) {
	tests := []struct {
		length  int
		wantErr bool
	}{
		{length: 1},
		{length: 9},
		{length: MaxDepth},
		{length: MaxDepth + 1, wantErr: true},
		{length: 30, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("chain of %d", tt.length), func(t *testing.T) {
			c := newCompiler(t, chain(tt.length))
			got, err := c.Compile("deep", "{{c0}}")

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Contains(t, got, "leaf")
				assert.NotContains(t, got, "{{")
				return
			}

			require.Error(t, err)
			var depthErr *errors.MaxDepthError
			require.ErrorAs(t, err, &depthErr)
			assert.Equal(t, MaxDepth, depthErr.Limit)
			assert.Greater(t, depthErr.Depth, MaxDepth)
			assert.True(t, errors.IsFatal(err))
		})
	}
}

func TestCompile_Idempotent(t *testing.T) {
	c := newCompiler(t, map[string]string{
		"Hero":      "<h1>Hi</h1>",
		"ui/Button": "<button>${text}</button>",
	})

	first, err := c.Compile("index", `<body>{{Hero}}{{ui/Button text="Go"}}</body>`)
	require.NoError(t, err)

	second, err := c.Compile("index", first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompile_LogsResolvedComponents(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LevelDebug,
		Format: "json",
		Output: &buf,
	})

	reg := registry.NewComponentRegistry(logger)
	_, err := reg.Register("Hero", "<h1/>")
	require.NoError(t, err)

	_, err = New(reg, logger).Compile("index", "{{Hero}}")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "component resolved")
	assert.Contains(t, out, `"name":"Hero"`)
	assert.Contains(t, out, `"context":"index"`)
	assert.Contains(t, out, `"component":"compiler"`)
}

func TestCompilePage(t *testing.T) {
	c := newCompiler(t, map[string]string{"Hero": "<h1/>"})
	pages := NewPageSet()
	pages.Add("index", "<body>{{Hero}}</body>")

	got, err := c.CompilePage(pages, "index")
	require.NoError(t, err)
	assert.Equal(t, "<body><h1/></body>", got)

	_, err = c.CompilePage(pages, "missing")
	require.Error(t, err)

	var notFound *errors.PageNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Page)
	assert.Equal(t, errors.CodePageNotFound, errors.Code(err))
}

func TestCompile_Concurrent(t *testing.T) {
	c := newCompiler(t, map[string]string{
		"Layout": "<main>{{Header}}</main>",
		"Header": "<h1>${title}</h1>",
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := fmt.Sprintf(`{{Layout}}{{Header title="p%d"}}`, i)
			got, err := c.Compile(fmt.Sprintf("p%d", i), body)
			assert.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("<main><h1>${title}</h1></main><h1>p%d</h1>", i), got)
		}(i)
	}
	wg.Wait()
}

func BenchmarkCompile(b *testing.B) {
	reg := registry.NewComponentRegistry(nil)
	for name, content := range chain(MaxDepth) {
		_, _ = reg.Register(name, content)
	}
	_, _ = reg.Register("btn", "<button>${text}</button>")
	c := New(reg, nil)

	body := strings.Repeat(`<p>{{c0}}{{btn text="Go"}}</p>`, 50)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Compile("bench", body); err != nil {
			b.Fatal(err)
		}
	}
}

func TestCompileSnapshot(t *testing.T) {
	c := newCompiler(t, map[string]string{
		"Layout/Nav": `<nav>{{ui/Link href="/" text="Home"}} {{ui/Link href="/about" text="About"}}</nav>`,
		"ui/Link":    `<a href="${href}">${text}</a>`,
		"Price":      `<span data-qty="${qty}" data-sale="${sale}">${amount}</span>`,
	})

	page := "<body>\n{{Layout/Nav}}\n{{Price amount=\"1e-7\" qty=3 sale=false}}\n{{Price amount=\"0.5\" qty=0x10 sale=true}}\n</body>"

	out, err := c.Compile("index", page)
	require.NoError(t, err)
	snaps.MatchSnapshot(t, out)
}
