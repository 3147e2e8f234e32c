package targets

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"articulate/internal/logging"
)

var watchLog = logging.Scope("targets")

// Watch monitors the registry override file and calls onChange with the
// reloaded registry whenever it is rewritten. The parent directory is
// watched because editors typically replace the file rather than write it in
// place. Blocks until the context is cancelled; a nil path returns at once.
func Watch(ctx context.Context, path string, onChange func(Registry)) error {
	if path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch targets dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				watchLog.Warnf("reload failed, keeping previous registry: %v", err)
				continue
			}
			// An editor rewrite is truncate-then-write; the first event can
			// catch the file while it is still empty. Wait for the event
			// that carries content instead of reloading pure defaults.
			if len(bytes.TrimSpace(data)) == 0 {
				continue
			}
			reg := Default()
			if err := reg.overlay(data); err != nil {
				watchLog.Warnf("reload failed, keeping previous registry: %v", err)
				continue
			}
			watchLog.Infof("selector registry reloaded from %s", path)
			onChange(reg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			watchLog.Warnf("watcher error: %v", err)
		}
	}
}
