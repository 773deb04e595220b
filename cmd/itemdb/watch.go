package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchSources следит за каталогами файлов paths и после паузы debounce
// вызывает trigger один раз на серию изменений.
// Каталоги, а не файлы: редакторы заменяют файл через rename.
func watchSources(ctx context.Context, paths []string, debounce time.Duration, trigger func(reason string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	watched := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", p, err)
		}
		watched[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			slog.Warn("cannot watch source directory", "dir", dir, "error", err)
		}
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	var changed string

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if _, ok := watched[abs]; !ok {
				continue
			}
			slog.Debug("item db source changed", "file", abs, "op", ev.Op.String())
			changed = abs
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("source watcher error", "error", err)

		case <-timer.C:
			trigger("changed " + filepath.Base(changed))
		}
	}
}
