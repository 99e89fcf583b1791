// Package watcher feeds newly dropped course material to an ingest function.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"gopherai-interview/internal/docparse"
)

const DefaultDebounce = 2 * time.Second

// IngestFunc handles one settled file. Errors are logged and the watch goes on.
type IngestFunc func(ctx context.Context, path string) error

type Watcher struct {
	dir      string
	debounce time.Duration
	ingest   IngestFunc
	logger   *slog.Logger
}

func New(dir string, debounce time.Duration, ingest IngestFunc, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{dir: dir, debounce: debounce, ingest: ingest, logger: logger.With("component", "watcher")}
}

// Run blocks until ctx is done. A file is ingested once no create, write or
// rename event has touched it for the debounce period, so a copy in progress
// is not read half written.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher failed: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s failed: %w", w.dir, err)
	}
	w.logger.Info("watching for course material", "dir", w.dir, "debounce", w.debounce)

	ready := make(chan string, 16)
	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
	)
	defer func() {
		mu.Lock()
		for _, t := range pending {
			t.Stop()
		}
		mu.Unlock()
	}()

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := pending[path]; ok {
			t.Reset(w.debounce)
			return
		}
		pending[path] = time.AfterFunc(w.debounce, func() {
			mu.Lock()
			delete(pending, path)
			mu.Unlock()
			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !docparse.Supported(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			schedule(event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		case path := <-ready:
			w.logger.Info("ingesting material", "file", filepath.Base(path))
			if err := w.ingest(ctx, path); err != nil {
				w.logger.Error("ingest failed", "file", filepath.Base(path), "error", err)
			}
		}
	}
}
