// pkg/watch/watcher.go
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jalsetu/scheme-ingress/pkg/ingest"
	"github.com/jalsetu/scheme-ingress/pkg/store"
)

// Watcher monitors an inbox directory for uploaded report files and hands
// each one to the importer once its writes have settled. Processed files are
// moved aside so a restart never re-imports them.
type Watcher struct {
	dir       string
	importer  *ingest.Importer
	logger    *zap.Logger
	debounce  time.Duration
	move      bool
	processed string
	failed    string

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// Options configures a Watcher beyond its required collaborators.
type Options struct {
	Debounce        time.Duration
	MoveProcessed   bool
	ProcessedSubdir string
	FailedSubdir    string
}

// NewWatcher creates a watcher over an inbox directory
func NewWatcher(dir string, importer *ingest.Importer, opts Options, logger *zap.Logger) (*Watcher, error) {
	if dir == "" {
		return nil, errors.New("inbox directory cannot be empty")
	}
	if importer == nil {
		return nil, errors.New("importer cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}
	if opts.ProcessedSubdir == "" {
		opts.ProcessedSubdir = "processed"
	}
	if opts.FailedSubdir == "" {
		opts.FailedSubdir = "failed"
	}

	return &Watcher{
		dir:       dir,
		importer:  importer,
		logger:    logger,
		debounce:  opts.Debounce,
		move:      opts.MoveProcessed,
		processed: filepath.Join(dir, opts.ProcessedSubdir),
		failed:    filepath.Join(dir, opts.FailedSubdir),
		timers:    make(map[string]*time.Timer),
	}, nil
}

// Run watches the inbox until the context is cancelled. Files already
// present at startup are imported first.
func (w *Watcher) Run(ctx context.Context) error {
	if w.move {
		for _, dir := range []string{w.processed, w.failed} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}
	}

	if err := w.backfill(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("Watching inbox", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 && w.isReportFile(evt.Name) {
				w.schedule(ctx, evt.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

// schedule (re)arms the debounce timer for a path. Uploads arrive as a burst
// of write events; the import runs only after the burst goes quiet.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.importOne(ctx, path)
	})
}

// backfill imports report files already sitting in the inbox.
func (w *Watcher) backfill(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read inbox %s: %w", w.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if w.isReportFile(path) {
			w.importOne(ctx, path)
		}
	}
	return nil
}

func (w *Watcher) importOne(ctx context.Context, path string) {
	w.logger.Info("Importing report file", zap.String("file", path))

	report, err := w.importer.ImportFile(ctx, path)
	if errors.Is(err, store.ErrImportLocked) {
		// Another batch holds the lock; the file is valid, so try again
		// after the debounce window instead of quarantining it.
		w.logger.Warn("Import lock contended, rescheduling",
			zap.String("file", path))
		w.schedule(ctx, path)
		return
	}
	if err != nil {
		w.logger.Error("Import failed",
			zap.String("file", path),
			zap.Error(err))
		w.moveAside(path, w.failed)
		return
	}

	w.logger.Info("Import succeeded",
		zap.String("file", path),
		zap.String("batch_id", report.BatchID),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", len(report.Errors)))
	w.moveAside(path, w.processed)
}

func (w *Watcher) moveAside(path, dir string) {
	if !w.move {
		return
	}
	dest := filepath.Join(dir, time.Now().UTC().Format("20060102T150405")+"_"+filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		w.logger.Warn("Failed to move report file",
			zap.String("file", path),
			zap.String("dest", dest),
			zap.Error(err))
	}
}

func (w *Watcher) isReportFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	default:
		return false
	}
}
