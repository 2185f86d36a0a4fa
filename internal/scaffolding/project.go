package scaffolding

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mtb-build/mtb/internal/config"
	"github.com/mtb-build/mtb/internal/errors"
	"github.com/mtb-build/mtb/internal/logging"
)

// ConfigFileName is the configuration file written by InitProject.
const ConfigFileName = "mtb.config.yaml"

// InitOptions configures InitProject.
type InitOptions struct {
	// Dir is the project root. It is created if missing.
	Dir string
	// Config is written to the config file; directories in it are
	// relative to Dir. Nil means config.Default().
	Config *config.Config
	// Force overwrites an existing config file and sample files.
	Force bool
}

// InitResult lists what InitProject wrote.
type InitResult struct {
	Root       string
	ConfigFile string
	Created    []string
	Skipped    []string
}

// samples are written on init, keyed by component name.
var samples = []struct {
	name     string
	template string
}{
	{"Hero", "hero"},
	{"ui/Button", "button"},
}

const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>%[1]s</title>
  <link rel="stylesheet" href="/css/style.css">
</head>
<body>
  {{Hero title="%[1]s" subtitle="Edit the pages directory to get started."}}
</body>
</html>
`

const styleSheet = `body { margin: 0; font-family: system-ui, sans-serif; }
.hero { padding: 4rem 2rem; text-align: center; }
.btn { display: inline-block; padding: 0.5rem 1rem; border-radius: 4px; background: #2563eb; color: #fff; text-decoration: none; }
`

// InitProject creates the source directories, the config file, two sample
// components and an index page.
func InitProject(ctx context.Context, opts InitOptions, logger logging.Logger) (*InitResult, error) {
	logger = logging.OrNop(logger).WithComponent("scaffolding")

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	root := opts.Dir
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	result := &InitResult{
		Root:       root,
		ConfigFile: filepath.Join(root, ConfigFileName),
	}

	dirs := cfg.Directories
	for _, dir := range []string{dirs.Components, dirs.Pages, dirs.Assets} {
		full := resolve(root, dir)
		if err := os.MkdirAll(full, 0755); err != nil {
			return nil, &errors.DirectoryCreateError{Path: full, Err: err}
		}
	}

	if err := cfg.WriteFile(result.ConfigFile, opts.Force); err != nil {
		return nil, err
	}
	result.Created = append(result.Created, result.ConfigFile)

	componentsDir := resolve(root, dirs.Components)
	generator := NewComponentGenerator(componentsDir, logger)
	for _, sample := range samples {
		existing := filepath.Join(componentsDir, filepath.FromSlash(sample.name)+ComponentExt)
		if _, err := os.Stat(existing); err == nil && !opts.Force {
			result.Skipped = append(result.Skipped, existing)
			continue
		}
		file, err := generator.Generate(ctx, GenerateOptions{Name: sample.name, Template: sample.template, Force: opts.Force})
		if err != nil {
			return nil, err
		}
		result.Created = append(result.Created, file)
	}

	title := Title(filepath.Base(root))
	files := []struct {
		path    string
		content string
	}{
		{filepath.Join(resolve(root, dirs.Pages), "index"+ComponentExt), fmt.Sprintf(indexPage, title)},
		{filepath.Join(resolve(root, dirs.Assets), "css", "style.css"), styleSheet},
	}
	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil && !opts.Force {
			result.Skipped = append(result.Skipped, f.path)
			continue
		}
		if err := writeFile(f.path, []byte(f.content)); err != nil {
			return nil, err
		}
		result.Created = append(result.Created, f.path)
	}

	logger.Info(ctx, "project initialized", "root", root, "created", len(result.Created), "skipped", len(result.Skipped))
	return result, nil
}

// resolve joins a configured directory onto root unless it is absolute.
func resolve(root, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, strings.TrimSuffix(dir, "/"))
}
