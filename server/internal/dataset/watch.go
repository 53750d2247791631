package dataset

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups the burst of events an editor or copy produces
// into a single reload.
const DefaultDebounce = 250 * time.Millisecond

// Watch monitors path and calls reload once the file has been written or
// replaced and no further events arrived for debounce. It runs until ctx
// is cancelled.
//
// The parent directory is watched rather than the file itself so that
// atomic saves (write temp file, rename over target) are seen.
func Watch(ctx context.Context, path string, debounce time.Duration, reload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	slog.Info("dataset: watching for changes", "path", target)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pending = time.After(debounce)

		case <-pending:
			pending = nil
			reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("dataset: watcher error", "err", err)
		}
	}
}
