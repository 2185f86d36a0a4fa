// Package build runs complete site builds.
//
// A Builder owns one registry and one page set. Every Build clears both,
// rescans the source tree, compiles all pages in parallel and writes the
// results to the output directory. Page failures are collected so one broken
// page never stops the others from being written.
package build

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mtb-build/mtb/internal/compiler"
	"github.com/mtb-build/mtb/internal/config"
	"github.com/mtb-build/mtb/internal/errors"
	"github.com/mtb-build/mtb/internal/logging"
	"github.com/mtb-build/mtb/internal/monitoring"
	"github.com/mtb-build/mtb/internal/registry"
	"github.com/mtb-build/mtb/internal/scanner"
)

// OutputExt is the extension of every written page.
const OutputExt = ".html"

// Result summarizes one build.
type Result struct {
	Components   int
	Pages        int
	PagesWritten int
	AssetsCopied int
	Duration     time.Duration
	Failures     []errors.PageFailure
	StartedAt    time.Time
}

// Success reports whether every page compiled and was written.
func (r *Result) Success() bool {
	return r != nil && len(r.Failures) == 0
}

// BuildCallback is called after every build, successful or not.
type BuildCallback func(result *Result, err error)

// Builder performs full builds for one configuration.
type Builder struct {
	config    *config.Config
	registry  *registry.ComponentRegistry
	pages     *compiler.PageSet
	// staging receives each scan before it replaces registry.
	staging   *registry.ComponentRegistry
	compiler  *compiler.Compiler
	scanner   *scanner.ComponentScanner
	metrics   *monitoring.Metrics
	logger    logging.Logger
	workers   int
	callbacks []BuildCallback

	// buildMutex serializes builds sharing the registry and page set.
	buildMutex sync.Mutex
	mutex      sync.RWMutex
	last       *Result
	lastErr    error
}

// New creates a builder. A nil registry gets a fresh one; metrics may be nil.
func New(cfg *config.Config, reg *registry.ComponentRegistry, logger logging.Logger, metrics *monitoring.Metrics) *Builder {
	logger = logging.OrNop(logger).WithComponent("build")
	if cfg == nil {
		cfg = config.Default()
	}
	if reg == nil {
		reg = registry.NewComponentRegistry(logger)
	}

	staging := registry.NewComponentRegistry(logger)

	return &Builder{
		config:   cfg,
		registry: reg,
		pages:    compiler.NewPageSet(),
		staging:  staging,
		compiler: compiler.New(reg, logger),
		scanner:  scanner.NewComponentScanner(staging, logger),
		metrics:  metrics,
		logger:   logger,
		workers:  runtime.NumCPU(),
	}
}

// Registry returns the registry filled by the last build.
func (b *Builder) Registry() *registry.ComponentRegistry {
	return b.registry
}

// Pages returns the page set filled by the last build.
func (b *Builder) Pages() *compiler.PageSet {
	return b.pages
}

// Config returns the configuration the builder was created with.
func (b *Builder) Config() *config.Config {
	return b.config
}

// AddCallback registers a function called after each build.
func (b *Builder) AddCallback(callback BuildCallback) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.callbacks = append(b.callbacks, callback)
}

// LastResult returns the most recent build result and error.
func (b *Builder) LastResult() (*Result, error) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.last, b.lastErr
}

// Close releases the scanner's worker pool.
func (b *Builder) Close() error {
	return b.scanner.Close()
}

// Build runs one complete build. The returned error is non-nil when a
// directory could not be prepared or read, or when any page failed; in the
// latter case the result still lists every page failure.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	b.buildMutex.Lock()
	defer b.buildMutex.Unlock()

	perf := logging.StartOperation(b.logger, "build")
	result := &Result{StartedAt: time.Now()}

	err := b.build(ctx, result)
	result.Duration = perf.Elapsed()
	if err != nil {
		perf.EndWithError(ctx, err)
	} else {
		perf.End(ctx)
	}
	b.metrics.BuildFinished(result.Duration, err == nil)

	b.mutex.Lock()
	b.last, b.lastErr = result, err
	callbacks := make([]BuildCallback, len(b.callbacks))
	copy(callbacks, b.callbacks)
	b.mutex.Unlock()

	for _, callback := range callbacks {
		callback(result, err)
	}

	return result, err
}

func (b *Builder) build(ctx context.Context, result *Result) error {
	dirs := b.config.Directories

	if err := b.ensureDirectories(ctx); err != nil {
		return err
	}

	b.staging.Clear()
	components, err := b.scanner.ScanComponents(ctx, dirs.Components)
	if err != nil {
		return err
	}
	b.registry.ReplaceWith(b.staging)
	result.Components = len(components)
	b.metrics.SetComponents(len(components))
	b.logger.Info(ctx, "components registered", "count", len(components), "dir", dirs.Components)

	staged := compiler.NewPageSet()
	pages, err := b.scanner.LoadPages(ctx, dirs.Pages, staged)
	if err != nil {
		return err
	}
	b.pages.ReplaceWith(staged)
	result.Pages = len(pages)
	b.logger.Info(ctx, "pages loaded", "count", len(pages), "dir", dirs.Pages)

	collector := errors.NewErrorCollector()
	result.PagesWritten = b.compileAll(ctx, pages, collector)
	result.Failures = collector.Failures()

	if pathExists(dirs.Assets) {
		copied, err := CopyAssets(dirs.Assets, dirs.Output)
		result.AssetsCopied = copied
		b.metrics.AssetsCopied(copied)
		if err != nil {
			collector.AddError(err)
		} else if copied > 0 {
			b.logger.Info(ctx, "assets copied", "count", copied)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return collector.Err()
}

// ensureDirectories creates the component and page directories when the
// component directory is missing, and always creates the output directory.
func (b *Builder) ensureDirectories(ctx context.Context) error {
	dirs := b.config.Directories

	if !pathExists(dirs.Components) {
		for _, dir := range []string{dirs.Components, dirs.Pages} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return &errors.DirectoryCreateError{Path: dir, Err: err}
			}
		}
		b.logger.Info(ctx, "no components directory found, created source directories",
			"components", dirs.Components, "pages", dirs.Pages)
	}

	if err := os.MkdirAll(dirs.Output, 0755); err != nil {
		return &errors.DirectoryCreateError{Path: dirs.Output, Err: err}
	}

	return nil
}

// compileAll compiles and writes every page using a bounded set of workers.
// It returns the number of pages written.
func (b *Builder) compileAll(ctx context.Context, pages []string, collector *errors.ErrorCollector) int {
	jobs := make(chan string)
	var written atomic.Int64
	var wg sync.WaitGroup

	workers := b.workers
	if workers > len(pages) {
		workers = len(pages)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				if err := b.buildPage(ctx, name); err != nil {
					collector.AddPage(name, err)
					b.metrics.PageCompiled(false)
					b.logger.Error(ctx, err, "page failed", "page", name)
					continue
				}
				b.metrics.PageCompiled(true)
				written.Add(1)
			}
		}()
	}

	for _, name := range pages {
		if ctx.Err() != nil {
			break
		}
		jobs <- name
	}
	close(jobs)
	wg.Wait()

	return int(written.Load())
}

func (b *Builder) buildPage(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	output, err := b.compiler.CompilePage(b.pages, name)
	if err != nil {
		return err
	}

	path := filepath.Join(b.config.Directories.Output, name+OutputExt)
	if err := os.WriteFile(path, []byte(output), 0644); err != nil {
		return &errors.FileWriteError{Path: path, Err: err}
	}
	b.logger.Debug(ctx, "page written", "page", name, "path", path)

	return nil
}

// Clean removes every file from the output directory, keeping the directory.
func Clean(outputDir string) error {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &errors.DirectoryReadError{Path: outputDir, Err: err}
	}

	for _, entry := range entries {
		path := filepath.Join(outputDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return &errors.FileWriteError{Path: path, Err: err}
		}
	}

	return nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
