package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports on-disk changes to the config file. Strategy and risk
// parameters are immutable for the process lifetime, so the callback is a
// drift notification (operators must restart to apply), not a hot reload.
type Watcher struct {
	Path     string
	Cooldown time.Duration
}

// Start blocks until ctx is canceled, invoking onChange on each write to
// the watched file. Changes within Cooldown of the previous one are merged.
func (w Watcher) Start(ctx context.Context, onChange func()) error {
	if w.Cooldown <= 0 {
		w.Cooldown = 2 * time.Second
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// Watch the directory: editors replace files, which drops file watches.
	if err := fw.Add(filepath.Dir(w.Path)); err != nil {
		return err
	}
	target := filepath.Clean(w.Path)
	var lastFired time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if time.Since(lastFired) < w.Cooldown {
				continue
			}
			lastFired = time.Now()
			if onChange != nil {
				onChange()
			}
		case _, ok := <-fw.Errors:
			if !ok {
				return nil
			}
		}
	}
}
