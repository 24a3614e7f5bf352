package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RunFunc receives the outcome of every batch run in watch mode.
type RunFunc func(*RunResult, error)

// Watch compiles once, then recompiles whenever a YAML file below an input
// root changes. Bursts of events are debounced and generated files are
// ignored. Watch returns when ctx is cancelled.
func (e *Engine) Watch(ctx context.Context, opts RunOptions, onRun RunFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, root := range e.inputDirs {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		if err := addTree(watcher, root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
	}

	onRun(e.Run(ctx, opts))

	// Timer callbacks only signal; runs happen on this goroutine so they
	// never overlap.
	trigger := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, event.Name); err != nil {
						e.logger.Warn("failed to watch new directory", "path", event.Name, "error", err.Error())
					}
					continue
				}
			}
			if !relevant(event) {
				continue
			}
			e.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(e.debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			onRun(e.Run(ctx, opts))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn("watcher error", "error", err.Error())
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return IsYAML(event.Name) && !IsGenerated(event.Name)
}

// addTree adds dir and every non-hidden directory below it.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
