// Package watcher turns filesystem notifications into a value stream
// suitable for debouncing: raw fsnotify events are filtered and pushed
// onto a channel, and coalescing is left entirely to the consumer.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/vcnkl/settle/logger"
)

// Event is a single relevant file change.
type Event struct {
	Path string
	Op   string
}

type Watcher struct {
	paths  []string
	ignore []string
	events chan Event
	fsw    *fsnotify.Watcher
	log    logger.Logger
}

func New(paths []string, ignore []string, log logger.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create file watcher")
	}

	return &Watcher{
		paths:  paths,
		ignore: ignore,
		events: make(chan Event, 64),
		fsw:    fsw,
		log:    log,
	}, nil
}

// Events is the source channel. It is closed when Start returns, so a
// consumer draining it observes end-of-stream.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start registers the watch roots and pumps notifications until ctx
// ends or the underlying watcher is closed. Newly created directories
// are picked up on the fly.
func (w *Watcher) Start(ctx context.Context) error {
	for _, path := range w.paths {
		if err := w.addRecursive(path); err != nil {
			return errors.Wrapf(err, "watch path %s", path)
		}
	}

	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			if w.shouldIgnore(event.Name) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				select {
				case w.events <- Event{Path: event.Name, Op: event.Op.String()}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addRecursive(event.Name)
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.log.Warn("watch error", logger.Err(err))
			}
		}
	}
}

func (w *Watcher) Stop() {
	w.fsw.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if !info.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if base == ".git" || base == "node_modules" || base == ".venv" || base == "__pycache__" {
			return filepath.SkipDir
		}

		if w.shouldIgnore(path) {
			return filepath.SkipDir
		}

		if err = w.fsw.Add(path); err != nil {
			w.log.Debug("skipping unwatchable directory", logger.String("path", path), logger.Err(err))
		}

		return nil
	})
}

func (w *Watcher) shouldIgnore(path string) bool {
	for _, pattern := range w.ignore {
		if strings.Contains(pattern, "**") {
			pattern = strings.ReplaceAll(pattern, "**", "*")
		}

		pattern = strings.TrimPrefix(pattern, "./")

		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return true
		}

		trimmed := strings.TrimSuffix(strings.TrimPrefix(pattern, "*"), "*")
		if trimmed != "" && strings.Contains(path, trimmed) {
			return true
		}
	}

	return false
}
