// Package scanner loads component and page sources from disk.
//
// Components are discovered recursively: src/components/ui/Button.html is
// registered as "ui/Button". Pages are the top-level .html files of the
// pages directory, named by their stem. File contents are read concurrently
// by a persistent worker pool; registration happens afterwards in lexical
// path order so results do not depend on read scheduling.
package scanner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/mtb-build/mtb/internal/compiler"
	"github.com/mtb-build/mtb/internal/errors"
	"github.com/mtb-build/mtb/internal/logging"
	"github.com/mtb-build/mtb/internal/registry"
	"github.com/mtb-build/mtb/internal/validation"
)

// SourceExt is the extension of component and page files.
const SourceExt = ".html"

// readJob asks a worker to read one file.
type readJob struct {
	path   string
	result chan<- readResult
}

// readResult is the content of a file or the error reading it.
type readResult struct {
	path    string
	content string
	err     error
}

// BufferPool manages reusable byte buffers for file reading
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool creates a new buffer pool with initial buffer size
func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				return make([]byte, 0, 64*1024)
			},
		},
	}
}

// Get retrieves a buffer from the pool
func (bp *BufferPool) Get() []byte {
	return bp.pool.Get().([]byte)[:0]
}

// Put returns a buffer to the pool
func (bp *BufferPool) Put(buf []byte) {
	// Only pool reasonably-sized buffers
	if cap(buf) <= 1024*1024 {
		bp.pool.Put(buf)
	}
}

// WorkerPool runs persistent reader goroutines fed from a shared queue.
type WorkerPool struct {
	jobQueue    chan readJob
	workerCount int
	stop        chan struct{}
	stopped     bool
	mu          sync.Mutex
	wg          sync.WaitGroup
}

// NewWorkerPool starts workerCount readers that use buffers from buffers.
func NewWorkerPool(workerCount int, buffers *BufferPool) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}

	pool := &WorkerPool{
		jobQueue:    make(chan readJob, workerCount*2),
		workerCount: workerCount,
		stop:        make(chan struct{}),
	}

	for i := 0; i < workerCount; i++ {
		pool.wg.Add(1)
		go pool.work(buffers)
	}

	return pool
}

func (p *WorkerPool) work(buffers *BufferPool) {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			content, err := readFile(job.path, buffers)
			job.result <- readResult{path: job.path, content: content, err: err}
		case <-p.stop:
			return
		}
	}
}

// Stop gracefully shuts down the worker pool
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}

	p.stopped = true
	close(p.stop)
	p.wg.Wait()
}

// ComponentScanner reads component and page sources into a registry and a
// page set.
type ComponentScanner struct {
	registry   *registry.ComponentRegistry
	logger     logging.Logger
	workerPool *WorkerPool
	bufferPool *BufferPool
}

// NewComponentScanner creates a scanner registering into reg.
func NewComponentScanner(reg *registry.ComponentRegistry, logger logging.Logger) *ComponentScanner {
	workerCount := runtime.NumCPU()
	if workerCount > 8 {
		workerCount = 8
	}

	buffers := NewBufferPool()
	return &ComponentScanner{
		registry:   reg,
		logger:     logging.OrNop(logger).WithComponent("scanner"),
		workerPool: NewWorkerPool(workerCount, buffers),
		bufferPool: buffers,
	}
}

// GetRegistry returns the component registry
func (s *ComponentScanner) GetRegistry() *registry.ComponentRegistry {
	return s.registry
}

// Close stops the worker pool. The scanner must not be used afterwards.
func (s *ComponentScanner) Close() error {
	s.workerPool.Stop()
	return nil
}

// ScanComponents registers every .html file below dir and returns the
// registered names in registration order. Files with invalid names are
// skipped with a warning.
func (s *ComponentScanner) ScanComponents(ctx context.Context, dir string) ([]string, error) {
	type candidate struct {
		path string
		name string
	}

	var candidates []candidate
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return &errors.DirectoryReadError{Path: path, Err: err}
		}

		if d.IsDir() || filepath.Ext(path) != SourceExt {
			return nil
		}

		if !validation.IsValidFileName(d.Name()) {
			s.logger.Warn(ctx, nil, "skipping file with invalid name", "path", path)
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(strings.TrimSuffix(rel, SourceExt))

		if !validation.IsValidComponentName(name) {
			s.logger.Warn(ctx, &errors.InvalidNameError{Name: name}, "skipping component", "path", path)
			return nil
		}

		candidates = append(candidates, candidate{path: path, name: name})
		return nil
	})
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = c.path
	}

	contents, err := s.readAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		name, err := s.registry.Register(c.name, contents[c.path])
		if err != nil {
			return names, err
		}
		s.logger.Debug(ctx, "registered component", "name", name, "path", c.path)
		names = append(names, name)
	}

	return names, nil
}

// LoadPages adds every top-level .html file in dir to pages, named by its
// stem, and returns the names in lexical order.
func (s *ComponentScanner) LoadPages(ctx context.Context, dir string, pages *compiler.PageSet) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &errors.DirectoryReadError{Path: dir, Err: err}
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != SourceExt {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	contents, err := s.readAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(paths))
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), SourceExt)
		pages.Add(name, contents[path])
		s.logger.Debug(ctx, "loaded page", "name", name)
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}

// readAll reads paths on the worker pool. The first error wins.
func (s *ComponentScanner) readAll(ctx context.Context, paths []string) (map[string]string, error) {
	contents := make(map[string]string, len(paths))
	if len(paths) == 0 {
		return contents, nil
	}

	// Small batches are cheaper to read inline
	if len(paths) <= 5 {
		for _, path := range paths {
			content, err := readFile(path, s.bufferPool)
			if err != nil {
				return nil, err
			}
			contents[path] = content
		}
		return contents, nil
	}

	resultChan := make(chan readResult, len(paths))
	for _, path := range paths {
		select {
		case s.workerPool.jobQueue <- readJob{path: path, result: resultChan}:
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			// Queue is full, read inline
			content, err := readFile(path, s.bufferPool)
			resultChan <- readResult{path: path, content: content, err: err}
		}
	}

	var firstErr error
	for i := 0; i < len(paths); i++ {
		select {
		case result := <-resultChan:
			if result.err != nil && firstErr == nil {
				firstErr = result.err
			}
			contents[result.path] = result.content
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return contents, nil
}

func readFile(path string, buffers *BufferPool) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", &errors.FileReadError{Path: path, Err: err}
	}
	defer file.Close()

	buf := buffers.Get()
	defer func() { buffers.Put(buf) }()

	for {
		if len(buf) == cap(buf) {
			buf = append(buf, 0)[:len(buf)]
		}
		n, err := file.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &errors.FileReadError{Path: path, Err: err}
		}
	}

	return string(buf), nil
}

// ReadFileSafe reads fileName from baseDir after checking that the name is a
// plain file name and that the resolved path stays inside baseDir.
func ReadFileSafe(fileName, baseDir string) (string, error) {
	if !validation.IsValidFileName(fileName) {
		return "", errors.NewValidationError(errors.CodeInvalidName, "invalid file name: "+fileName)
	}

	path, err := validation.Sanitize(fileName, baseDir)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeValidation, errors.CodeInvalidName, "unsafe file path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &errors.FileReadError{Path: path, Err: err}
	}
	return string(data), nil
}
