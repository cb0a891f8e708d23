package fs

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"docqa/internal/logger"
)

// Watcher reports changes to matching files in a directory. Notifications
// are debounced: a burst of writes produces a single signal once the
// directory has been quiet for the debounce window, so a large copy does
// not trigger a sync per file.
type Watcher struct {
	patterns []string
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

func NewWatcher(patterns []string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		patterns: patterns,
		debounce: debounce,
		watcher:  fw,
	}, nil
}

// Watch starts monitoring dir and returns a channel that receives one
// signal per settled batch of changes. The channel closes when ctx is
// cancelled or the underlying watcher shuts down.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan struct{}, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	notify := make(chan struct{}, 1)
	go w.loop(ctx, notify)
	return notify, nil
}

func (w *Watcher) loop(ctx context.Context, notify chan<- struct{}) {
	defer close(notify)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case <-timerC:
			timer = nil
			timerC = nil
			select {
			case notify <- struct{}{}:
			default:
				// A signal is already pending; one re-sync covers both.
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("watch error: %v", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	return matchName(w.patterns, filepath.Base(event.Name))
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
