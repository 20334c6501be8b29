package tables

import (
	"context"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses editor write bursts into one reload.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a Store when a table file in its override directory
// changes.
type Watcher struct {
	store    *Store
	log      *zap.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func(error) // called after each reload attempt
}

// NewWatcher watches the store's override directory. The directory itself
// is watched so files created after start are picked up.
func NewWatcher(store *Store, log *zap.Logger, onReload func(error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(store.Dir()); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return &Watcher{
		store:    store,
		log:      log,
		watcher:  fw,
		debounce: DefaultDebounce,
		onReload: onReload,
	}, nil
}

// Run blocks until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			w.log.Debug("table file changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case <-timer.C:
			err := w.store.Reload()
			if err != nil {
				w.log.Warn("table reload failed, keeping previous snapshot", zap.Error(err))
			} else {
				w.log.Info("tables reloaded", zap.String("version", w.store.Get().Version))
			}
			if w.onReload != nil {
				w.onReload(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("table watcher error", zap.Error(err))

		case <-ctx.Done():
			return
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return slices.Contains(FileNames, filepath.Base(event.Name))
}
