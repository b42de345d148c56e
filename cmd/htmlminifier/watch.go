package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/livefir/htmlminifier/internal/logfields"
)

// Watcher re-minifies files under a directory when they are written.
type Watcher struct {
	processor *Processor
	in        string
	out       string
	exts      []string
	watcher   *fsnotify.Watcher
}

// NewWatcher watches in and every directory below it.
func NewWatcher(p *Processor, in, out string, exts []string) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{processor: p, in: in, out: out, exts: exts, watcher: watcher}
	err = filepath.WalkDir(in, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", in, err)
	}
	return w, nil
}

// Run handles events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	w.processor.Logger.Info("watching for changes", logfields.Path(w.in))
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.processor.Logger.Error("watcher error", logfields.Error(err))
		}
	}
}

// handle minifies the file behind a write or create event. New
// directories are added to the watch list. Failures are logged so one
// broken file does not stop the watch.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if err := w.watcher.Add(event.Name); err != nil {
			w.processor.Logger.Warn("failed to watch new directory",
				logfields.Path(event.Name),
				logfields.Error(err))
		}
		return false
	}
	if !matchExt(event.Name, w.exts) {
		return false
	}
	rel, err := filepath.Rel(w.in, event.Name)
	if err != nil {
		w.processor.Logger.Warn("ignoring change outside input directory", logfields.Path(event.Name))
		return false
	}
	if err := w.processor.File(event.Name, filepath.Join(w.out, rel)); err != nil {
		w.processor.Logger.Error("failed to minify changed file",
			logfields.Path(event.Name),
			logfields.Error(err))
		return false
	}
	w.processor.Logger.Info("re-minified", slog.String("file", rel))
	return true
}
