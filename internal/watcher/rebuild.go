package watcher

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mtb-build/mtb/internal/config"
	"github.com/mtb-build/mtb/internal/logging"
	"github.com/mtb-build/mtb/internal/monitoring"
)

// Session watches a project's source directories and feeds every change
// batch into a BuildQueue.
type Session struct {
	watcher *FileWatcher
	queue   *BuildQueue
	logger  logging.Logger
}

// NewSession creates a watcher over the components, pages and assets
// directories of cfg. Directories that do not exist are skipped.
func NewSession(cfg *config.Config, queue *BuildQueue, logger logging.Logger, metrics *monitoring.Metrics) (*Session, error) {
	logger = logging.OrNop(logger)

	fw, err := NewFileWatcher(DefaultDebounce, logger, metrics)
	if err != nil {
		return nil, err
	}
	fw.AddFilter(NoHiddenFilter)
	fw.AddFilter(NoGitFilter)
	fw.AddFilter(SiteFilter)

	dirs := cfg.Directories
	for _, dir := range []string{dirs.Components, dirs.Pages, dirs.Assets} {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := fw.AddRecursive(dir); err != nil {
			_ = fw.Stop()
			return nil, err
		}
		logger.Info(context.Background(), "watching directory", "dir", dir)
	}

	s := &Session{watcher: fw, queue: queue, logger: logger.WithComponent("watcher")}
	fw.AddHandler(s.handleChanges)

	return s, nil
}

// Watcher returns the underlying file watcher.
func (s *Session) Watcher() *FileWatcher {
	return s.watcher
}

// Run watches until ctx is cancelled, then waits for a running build.
func (s *Session) Run(ctx context.Context) error {
	if err := s.watcher.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	err := s.watcher.Stop()
	s.queue.Wait()
	s.logger.Info(context.Background(), "watch mode stopped")

	return err
}

func (s *Session) handleChanges(ctx context.Context, events []ChangeEvent) error {
	for _, event := range events {
		s.logger.Info(ctx, "file "+event.Type.String(), "path", relativePath(event.Path))
	}
	s.queue.Trigger(ctx)
	return nil
}

func relativePath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil {
		return path
	}
	return rel
}
