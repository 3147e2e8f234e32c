package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"articulate/internal/dom"
	"articulate/internal/events"
	"articulate/internal/logging"
	"articulate/internal/observe"
)

// feedSource replays feed growth: HTML fragment files dropped into the
// watched directory are parsed, appended to the feed container, and
// published as one mutation batch per file. This is the event bridge that
// stands in for the page's own mutation delivery; the contract it preserves
// is batch ordering, no missed insertions, and no duplicate processing.
// The append itself is queued as a page task ahead of the batch, so the
// tree only ever changes on the bus dispatch goroutine.
type feedSource struct {
	dir  string
	root *dom.Node
	bus  *events.Bus
	log  logging.Scoped

	seen map[string]bool
}

func newFeedSource(dir string, root *dom.Node, bus *events.Bus) *feedSource {
	return &feedSource{
		dir:  dir,
		root: root,
		bus:  bus,
		log:  logging.Scope("feed"),
		seen: make(map[string]bool),
	}
}

func (fs *feedSource) run(ctx context.Context) error {
	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		return fmt.Errorf("create mutations dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(fs.dir); err != nil {
		return fmt.Errorf("watch mutations dir: %w", err)
	}
	fs.log.Infof("watching %s for feed fragments", fs.dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			fs.ingest(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fs.log.Warnf("watcher error: %v", err)
		}
	}
}

// ingest appends one fragment file to the feed exactly once.
func (fs *feedSource) ingest(path string) {
	if !strings.HasSuffix(path, ".html") || fs.seen[path] {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fs.log.Warnf("read fragment %s: %v", filepath.Base(path), err)
		return
	}
	nodes, err := dom.ParseFragment(string(data))
	if err != nil {
		fs.log.Warnf("parse fragment %s: %v", filepath.Base(path), err)
		return
	}
	if len(nodes) == 0 {
		return
	}
	fs.seen[path] = true

	// The attach task is delivered before the batch: events drain in FIFO
	// order, so the observer scans nodes that are already connected.
	err = events.Publish(fs.bus, events.TopicPageTask, func() {
		for _, n := range nodes {
			fs.root.AppendChild(n)
		}
	})
	if err != nil {
		fs.log.Errorf("queue fragment attach: %v", err)
		return
	}
	if err := events.Publish(fs.bus, events.TopicMutations, observe.Batch{Added: nodes}); err != nil {
		fs.log.Errorf("publish batch: %v", err)
	}
	fs.log.Infof("appended fragment %s (%d nodes)", filepath.Base(path), len(nodes))
}
