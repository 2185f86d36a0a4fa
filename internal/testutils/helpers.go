// Package testutils holds fixtures shared by package tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mtb-build/mtb/internal/config"
	"github.com/mtb-build/mtb/internal/registry"
)

// CreateTempProject creates a temporary project with the default source
// directories and returns its root.
func CreateTempProject(t testing.TB) string {
	t.Helper()
	tempDir := t.TempDir()

	dirs := []string{
		config.DefaultComponentsDir,
		config.DefaultPagesDir,
		config.DefaultAssetsDir,
	}

	for _, dir := range dirs {
		err := os.MkdirAll(filepath.Join(tempDir, dir), 0755)
		require.NoError(t, err)
	}

	return tempDir
}

// CreateTestComponent writes a component source file below dir. Namespaced
// names such as ui/Button create the intermediate directories.
func CreateTestComponent(t testing.TB, dir, name, content string) string {
	t.Helper()
	return WriteFile(t, filepath.Join(dir, filepath.FromSlash(name)+".html"), content)
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// CreateTestConfig returns a configuration rooted at projectDir.
func CreateTestConfig(projectDir string) *config.Config {
	cfg := config.Default()
	cfg.Directories = config.DirectoriesConfig{
		Components: filepath.Join(projectDir, config.DefaultComponentsDir),
		Pages:      filepath.Join(projectDir, config.DefaultPagesDir),
		Assets:     filepath.Join(projectDir, config.DefaultAssetsDir),
		Output:     filepath.Join(projectDir, config.DefaultOutputDir),
	}
	cfg.Server.Port = 8080
	cfg.Log.Quiet = true

	return cfg
}

// StandardComponents is a small component set covering nesting, props and
// namespaced names.
var StandardComponents = map[string]string{
	"Header":    `<header>{{ui/Button text="Home" href="/"}}</header>`,
	"Footer":    `<footer>&copy; mtb</footer>`,
	"ui/Button": `<a class="btn" href="${href}">${text}</a>`,
	"Card":      `<div class="card"><h3>${title}</h3></div>`,
}

// StandardPages uses StandardComponents.
var StandardPages = map[string]string{
	"index": "<!DOCTYPE html>\n<html>\n<body>\n{{Header}}\n<main>Welcome</main>\n{{Footer}}\n</body>\n</html>",
	"about": "<h1>About</h1>\n{{Card title=\"Team\"}}\n{{Footer}}",
}

// CreateTestSite writes StandardComponents and StandardPages into a new
// project and returns its configuration.
func CreateTestSite(t testing.TB) *config.Config {
	t.Helper()
	cfg := CreateTestConfig(CreateTempProject(t))

	for name, content := range StandardComponents {
		CreateTestComponent(t, cfg.Directories.Components, name, content)
	}
	for name, content := range StandardPages {
		WriteFile(t, filepath.Join(cfg.Directories.Pages, name+".html"), content)
	}

	return cfg
}

// CreateTestRegistry returns a registry holding StandardComponents.
func CreateTestRegistry(t testing.TB) *registry.ComponentRegistry {
	t.Helper()
	reg := registry.NewComponentRegistry(nil)

	for name, content := range StandardComponents {
		_, err := reg.Register(name, content)
		require.NoError(t, err)
	}

	return reg
}

// PathTraversalCases are inputs that must never resolve outside a base
// directory.
var PathTraversalCases = []string{
	"../../../etc/passwd",
	"..\\..\\..\\windows\\system32\\config\\sam",
	"....//....//....//etc/passwd",
	"/./../../etc/passwd",
	"../../../../../etc/passwd",
	"/etc/passwd",
}

// AssertFilePermissions checks that files have the expected permissions.
func AssertFilePermissions(t *testing.T, path string, expectedMode os.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)

	actualMode := info.Mode()
	require.Equal(t, expectedMode, actualMode&os.FileMode(0777),
		"File %s has incorrect permissions: got %o, want %o",
		path, actualMode&os.FileMode(0777), expectedMode)
}

// WaitForFileChange waits for a file to be modified (useful for testing file watchers)
func WaitForFileChange(
	t *testing.T,
	filePath string,
	originalModTime time.Time,
	timeout time.Duration,
) {
	t.Helper()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		info, err := os.Stat(filePath)
		if err == nil && info.ModTime().After(originalModTime) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("File %s was not modified within %v", filePath, timeout)
}

// Eventually polls condition until it holds or timeout elapses.
func Eventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("condition not met within %v: %s", timeout, msg)
}
