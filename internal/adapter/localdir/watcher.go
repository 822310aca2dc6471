package localdir

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/fsnotify.v1"
)

// DefaultSettle is how long a dropped file must stay quiet before it is handed
// over. Copies arrive as one Create followed by many Writes.
const DefaultSettle = 2 * time.Second

// Watcher reports PDFs created or rewritten in a directory.
type Watcher struct {
	dir    string
	settle time.Duration
	logger *slog.Logger
}

// NewWatcher creates a Watcher for dir. A settle of zero uses DefaultSettle.
func NewWatcher(dir string, settle time.Duration, logger *slog.Logger) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{dir: dir, settle: settle, logger: logger}
}

// Run calls onFile with the path of every PDF that settles in the directory
// until ctx is cancelled. onFile runs on its own goroutine and may be called
// concurrently for different files.
func (w *Watcher) Run(ctx context.Context, onFile func(path string)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", w.dir, err)
	}
	w.logger.Info("watching inbox", "dir", w.dir)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !IsPDF(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("inbox watcher error", "error", err)
		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.settle {
					continue
				}
				delete(pending, path)
				w.logger.Info("inbox file ready", "path", path)
				wg.Add(1)
				go func() {
					defer wg.Done()
					onFile(path)
				}()
			}
		}
	}
}
