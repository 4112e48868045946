package cardstore

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// selfWriteWindow is how recently the store must have saved for a file event
// to be attributed to the store's own rename rather than an external writer.
const selfWriteWindow = 2 * time.Second

// ExternalChangeFunc is called when the backing file changes on disk and the
// change was not produced by this store.
type ExternalChangeFunc func()

// Watch observes the store's backing file until ctx is cancelled. The store
// is contractually the sole writer; any write not matching a recent save is
// logged as a warning and reported through cb (if non-nil) so a second
// instance or manual edit is noticed instead of silently clobbering state.
//
// The parent directory is watched because the store replaces the file by
// rename, which would drop a watch on the file itself.
func Watch(ctx context.Context, store *Store, logger *slog.Logger, cb ExternalChangeFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(store.Path())
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("file", store.Path()))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != store.Path() {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if store.SinceLastSave() < selfWriteWindow {
				continue
			}
			logger.Warn("watcher: store file changed outside this process",
				slog.String("file", store.Path()),
				slog.String("op", ev.Op.String()))
			if cb != nil {
				cb()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", err.Error()))
		}
	}
}
