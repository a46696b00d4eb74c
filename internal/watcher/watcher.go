package watcher

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
	"github.com/rs/zerolog"
)

const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Rename

// ChangeWatcher watches one file through its parent directory and collapses bursts of
// events into a single onChange call once the debounce delay passes without new events.
type ChangeWatcher struct {
	dir      string
	file     string
	debounce time.Duration
	onChange func()
	logger   zerolog.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func New(path string, debounce time.Duration, onChange func(), logger zerolog.Logger) *ChangeWatcher {
	return &ChangeWatcher{
		dir:      filepath.Dir(path),
		file:     filepath.Base(path),
		debounce: debounce,
		onChange: onChange,
		logger:   logger.With().Str("component", "watcher").Logger(),
		done:     make(chan struct{}),
	}
}

// Start creates the directory if needed and begins delivering events until ctx ends or Stop is called.
func (w *ChangeWatcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create watch directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.fsw = fsw

	go w.loop(ctx)

	w.logger.Info().
		Str("dir", w.dir).
		Str("file", w.file).
		Dur("debounce", w.debounce).
		Msg("file watcher active")
	return nil
}

func (w *ChangeWatcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if w.fsw == nil {
		return nil
	}
	err := w.fsw.Close()
	<-w.done
	return err
}

// Touch restarts the debounce timer as if a qualifying event had arrived.
func (w *ChangeWatcher) Touch(reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
	w.logger.Debug().Str("reason", reason).Msg("scheduled debounced refresh")
}

func (w *ChangeWatcher) fire() {
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}
	w.onChange()
}

func (w *ChangeWatcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.qualifies(event) {
				w.Touch(event.Op.String())
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.Touch("overflow")
			}
			w.logger.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *ChangeWatcher) qualifies(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Base(event.Name), w.file) {
		return false
	}
	return event.Op&relevantOps != 0
}
