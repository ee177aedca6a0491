package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/quarry/internal/logger"
)

// reloadDebounce coalesces the burst of events editors emit on save.
const reloadDebounce = 200 * time.Millisecond

// PromptWatcher reloads a PromptStore whenever a .txt file in its
// directory is written, created, renamed or removed.
type PromptWatcher struct {
	store    *PromptStore
	watcher  *fsnotify.Watcher
	onReload func(name string)
}

// NewPromptWatcher starts watching the store's directory, creating it
// if needed. onReload, if set, is called after each reload with the
// changed prompt's name.
func NewPromptWatcher(store *PromptStore, onReload func(name string)) (*PromptWatcher, error) {
	store.initOnce.Do(store.initialise)
	if store.initErr != nil {
		return nil, store.initErr
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(store.Dir()); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watching %s: %w", store.Dir(), err)
	}

	return &PromptWatcher{store: store, watcher: w, onReload: onReload}, nil
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (pw *PromptWatcher) Run(ctx context.Context) {
	defer pw.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			name, relevant := promptName(ev)
			if !relevant {
				continue
			}
			pending[name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			pw.store.Reload()
			for name := range pending {
				logger.Info("Prompt %s changed, reloaded", name)
				if pw.onReload != nil {
					pw.onReload(name)
				}
			}
			pending = make(map[string]struct{})

		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("prompt watcher: %v", err)
		}
	}
}

// promptName reports the prompt an event touches. Chmod-only events and
// non-.txt files are ignored.
func promptName(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return "", false
	}
	base := filepath.Base(ev.Name)
	if !strings.HasSuffix(base, ".txt") || strings.HasPrefix(base, ".") {
		return "", false
	}
	return strings.TrimSuffix(base, ".txt"), true
}
