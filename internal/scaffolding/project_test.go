package scaffolding

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtb-build/mtb/internal/build"
	"github.com/mtb-build/mtb/internal/config"
)

func TestInitProject(t *testing.T) {
	root := filepath.Join(t.TempDir(), "my-site")

	result, err := InitProject(context.Background(), InitOptions{Dir: root}, nil)
	require.NoError(t, err)
	assert.Equal(t, root, result.Root)
	assert.Empty(t, result.Skipped)
	assert.Len(t, result.Created, 5)

	for _, path := range []string{
		"mtb.config.yaml",
		"src/components/Hero.html",
		"src/components/ui/Button.html",
		"src/pages/index.html",
		"src/assets/css/style.css",
	} {
		assert.FileExists(t, filepath.Join(root, filepath.FromSlash(path)))
	}

	index, err := os.ReadFile(filepath.Join(root, "src", "pages", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), `{{Hero title="My Site"`)
}

func TestInitProjectConfigLoads(t *testing.T) {
	root := t.TempDir()
	_, err := InitProject(context.Background(), InitOptions{Dir: root}, nil)
	require.NoError(t, err)

	v := viper.New()
	v.SetConfigFile(filepath.Join(root, ConfigFileName))
	require.NoError(t, v.ReadInConfig())

	cfg, err := config.LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Directories, cfg.Directories)
	assert.Equal(t, config.DefaultPort, cfg.Server.Port)
	assert.True(t, cfg.Server.LiveReload)
}

func TestInitProjectCustomDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Directories.Components = "parts"
	cfg.Directories.Pages = "content"

	_, err := InitProject(context.Background(), InitOptions{Dir: root, Config: cfg}, nil)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, "parts", "Hero.html"))
	assert.FileExists(t, filepath.Join(root, "content", "index.html"))
}

func TestInitProjectExistingConfig(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	_, err := InitProject(ctx, InitOptions{Dir: root}, nil)
	require.NoError(t, err)

	_, err = InitProject(ctx, InitOptions{Dir: root}, nil)
	assert.ErrorContains(t, err, "already exists")

	hero := filepath.Join(root, "src", "components", "Hero.html")
	require.NoError(t, os.WriteFile(hero, []byte("<section>mine</section>"), 0644))

	result, err := InitProject(ctx, InitOptions{Dir: root, Force: true}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Skipped)

	content, err := os.ReadFile(hero)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "mine")
}

func TestInitProjectBuilds(t *testing.T) {
	root := t.TempDir()
	_, err := InitProject(context.Background(), InitOptions{Dir: root}, nil)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Directories = config.DirectoriesConfig{
		Components: filepath.Join(root, "src", "components"),
		Pages:      filepath.Join(root, "src", "pages"),
		Assets:     filepath.Join(root, "src", "assets"),
		Output:     filepath.Join(root, "public"),
	}

	builder := build.New(cfg, nil, nil, nil)
	defer builder.Close()

	result, err := builder.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Components)
	assert.Equal(t, 1, result.PagesWritten)
	assert.Equal(t, 1, result.AssetsCopied)

	out, err := os.ReadFile(filepath.Join(root, "public", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<h1>")
	assert.Contains(t, string(out), `<a class="btn" href="#start">Get started</a>`)
	assert.NotContains(t, string(out), "{{")
	assert.FileExists(t, filepath.Join(root, "public", "css", "style.css"))
}
