// Package observe watches a root element for structural changes and hands
// newly discovered comment forms to the injector. It mirrors the
// MutationObserver contract: batches of added nodes are delivered in the
// order the page produced them and are processed synchronously, one batch at
// a time, and only the added subtrees are scanned, never the whole document.
package observe

import (
	"context"
	"fmt"

	"articulate/internal/dom"
	"articulate/internal/events"
	"articulate/internal/logging"
	"articulate/internal/targets"
)

// Batch is one coalesced set of structural additions, in document order.
type Batch struct {
	Added []*dom.Node
}

// Observer scans added subtrees for comment forms. It is stateless beyond
// "subscribed"; started once per page and never stopped.
type Observer struct {
	root     *dom.Node
	registry func() targets.Registry
	handle   func(form *dom.Node)
	log      logging.Scoped

	started bool
	sub     events.Subscription
}

// New creates an Observer over root. registry is called per scan so a
// reloaded selector table takes effect without restarting the observer;
// handle receives each discovered comment form.
func New(root *dom.Node, registry func() targets.Registry, handle func(form *dom.Node)) *Observer {
	return &Observer{
		root:     root,
		registry: registry,
		handle:   handle,
		log:      logging.Scope("observer"),
	}
}

// Start subscribes to mutation batches on the bus. The bus must be built
// with synchronous delivery so a batch is fully processed before the next
// one is delivered. Calling Start twice is an error.
func (o *Observer) Start(bus *events.Bus) error {
	if o.started {
		return fmt.Errorf("observer already started")
	}
	o.sub = events.Subscribe(bus, events.TopicMutations, func(ctx context.Context, b Batch) error {
		o.processBatch(b)
		return nil
	})
	o.started = true
	return nil
}

// Sweep scans every feed item already present under the root, covering forms
// that existed before observation began. Also re-run after a configuration
// update or a forced re-injection.
func (o *Observer) Sweep() {
	reg := o.registry()
	for _, item := range o.root.QueryAll(reg.FeedItem) {
		o.scanNode(item, reg)
	}
}

// processBatch scans each added element subtree for comment forms. A failure
// on one node is isolated so it cannot abort its siblings in the same batch.
func (o *Observer) processBatch(b Batch) {
	reg := o.registry()
	for _, node := range b.Added {
		if node == nil || node.Type != dom.ElementNode {
			continue
		}
		if !o.underRoot(node) {
			continue
		}
		o.scanNode(node, reg)
	}
}

func (o *Observer) scanNode(node *dom.Node, reg targets.Registry) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Errorf("panic while processing node <%s>: %v", node.Tag, r)
		}
	}()
	for _, form := range node.QueryAll(reg.CommentForm) {
		o.delegate(form)
	}
}

// delegate hands one form to the injector. A failure on form N must not
// block form N+1 in the same batch.
func (o *Observer) delegate(form *dom.Node) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Errorf("panic while processing form: %v", r)
		}
	}()
	o.handle(form)
}

func (o *Observer) underRoot(n *dom.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur == o.root {
			return true
		}
	}
	return false
}
