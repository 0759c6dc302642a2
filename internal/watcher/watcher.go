// Package watcher provides file system watching with debouncing for the
// workflow store. It is the cross-process counterpart of the in-process
// broadcast: edits made by another opsdeck process show up on the board
// without a manual refresh.
package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/opsdeck/opsdeck/internal/log"
	"github.com/opsdeck/opsdeck/internal/pubsub"
)

// StoreChanged is published when the store file has settled after a change.
type StoreChanged struct {
	Path string
}

// Watcher monitors the workflow store file and publishes change events.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	storePath string
	debounce  time.Duration
	broker    *pubsub.Broker[StoreChanged]
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	StorePath   string
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(storePath string) Config {
	return Config{
		StorePath:   storePath,
		DebounceDur: 500 * time.Millisecond,
	}
}

// New creates a new store watcher. Watching begins on Start.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		storePath: cfg.StorePath,
		debounce:  cfg.DebounceDur,
		broker:    pubsub.NewBroker[StoreChanged](),
		done:      make(chan struct{}),
	}, nil
}

// Broker exposes the event broker so callers can subscribe.
func (w *Watcher) Broker() *pubsub.Broker[StoreChanged] {
	return w.broker
}

// Start begins watching the directory containing the store file. The store
// is replaced by rename on every save, so the directory, not the file, must
// be watched.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.storePath)
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}

	go w.loop()
	log.Debug(log.CatWatcher, "Watching workflow store", "dir", dir)

	return nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	w.broker.Close()
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing. Rapid bursts of writes
// collapse into a single published event.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if !w.isRelevantEvent(event) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				pending = true
			} else {
				if !timer.Stop() {
					// Drain the timer channel if it already fired
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
				pending = true
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				w.broker.Publish(pubsub.UpdatedEvent, StoreChanged{Path: w.storePath})
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "Watcher error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent filters to writes, creates, and renames of the store file
// itself. This filter is what keeps unrelated files in the same directory
// from triggering board refreshes.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Base(event.Name) == filepath.Base(w.storePath)
}
