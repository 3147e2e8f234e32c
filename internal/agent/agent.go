// Package agent assembles the page-side runtime: the parsed feed page, the
// observer/injector pipeline, the bridge client feeding the configuration
// cell, and the mutation source that replays feed growth.
package agent

import (
	"context"
	"fmt"
	"os"
	"sync"

	"articulate/internal/bridge"
	"articulate/internal/config"
	"articulate/internal/dom"
	"articulate/internal/events"
	"articulate/internal/extract"
	"articulate/internal/inject"
	"articulate/internal/logging"
	"articulate/internal/observe"
	"articulate/internal/prompt"
	"articulate/internal/provider"
	"articulate/internal/targets"
	"articulate/internal/writer"
)

// Runtime is one page context. It lives for the lifetime of the page; the
// observer is started once and never stopped.
type Runtime struct {
	cfg  config.Config
	doc  *dom.Document
	bus  *events.Bus
	cell *bridge.Cell
	log  logging.Scoped

	regMu    sync.RWMutex
	registry targets.Registry

	feedRoot *dom.Node
	observer *observe.Observer
	injector *inject.Injector
	writer   *writer.Writer
}

// New loads the feed page snapshot and wires the pipeline. The network
// dispatcher is the real one; tests assemble the pieces directly instead.
func New(cfg config.Config) (*Runtime, error) {
	if cfg.Agent.Page == "" {
		return nil, fmt.Errorf("no feed page configured")
	}
	f, err := os.Open(cfg.Agent.Page)
	if err != nil {
		return nil, fmt.Errorf("open feed page: %w", err)
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse feed page: %w", err)
	}

	reg, err := targets.Load(cfg.Agent.TargetsPath)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		cfg:      cfg,
		doc:      doc,
		cell:     &bridge.Cell{},
		registry: reg,
		log:      logging.Scope("agent"),
	}

	// Mutation batches must be handled one at a time, in order.
	rt.bus = events.NewBus(events.WithSyncDelivery())

	// The feed container is the observation root; a page variant without it
	// degrades to observing the whole body, matching how the page script
	// fell back to document.body.
	rt.feedRoot = doc.Body()
	if feeds := doc.Body().Query(reg.Feeds); feeds != nil {
		rt.feedRoot = feeds
	} else {
		rt.log.Warnf("feed container %q not found, observing body", reg.Feeds)
	}

	extractor := extract.New(rt.Registry)
	rt.writer = writer.New(extractor, rt.cell, provider.NewDispatcher(), reg.CommentEditorBlank,
		writer.WithPageSync(rt.runOnPage))
	rt.injector = inject.New(rt.Registry, rt.trigger)
	rt.observer = observe.New(rt.feedRoot, rt.Registry, rt.injector.Process)

	// All page reads and writes funnel through this handler, so the tree is
	// only ever touched from the dispatch goroutine.
	events.Subscribe(rt.bus, events.TopicPageTask, func(_ context.Context, fn func()) error {
		fn()
		return nil
	})

	return rt, nil
}

// runOnPage executes fn on the bus dispatch goroutine and waits for it,
// serializing the caller with mutation batches and sweeps. A closed bus
// means the page is shutting down; fn then runs inline.
func (rt *Runtime) runOnPage(fn func()) {
	done := make(chan struct{})
	err := events.Publish(rt.bus, events.TopicPageTask, func() {
		defer close(done)
		fn()
	})
	if err != nil {
		fn()
		return
	}
	select {
	case <-done:
	case <-rt.bus.Done():
	}
}

// requestSweep queues a re-injection pass instead of scanning from the
// caller's goroutine. Bridge frames arrive on the client's read loop; the
// scan itself must share the dispatch goroutine with mutation batches.
func (rt *Runtime) requestSweep() {
	if err := events.Publish(rt.bus, events.TopicReinject, struct{}{}); err != nil {
		rt.log.Warnf("queue sweep: %v", err)
	}
}

// Registry returns the current selector table. Hot-reloaded tables take
// effect on the next scan.
func (rt *Runtime) Registry() targets.Registry {
	rt.regMu.RLock()
	defer rt.regMu.RUnlock()
	return rt.registry
}

// Cell returns the configuration slot.
func (rt *Runtime) Cell() *bridge.Cell { return rt.cell }

// trigger launches one articulation chain. Each chain is independent; there
// is no ordering between chains and no cancellation once started.
func (rt *Runtime) trigger(form *dom.Node, tone prompt.Tone) {
	go rt.writer.Articulate(context.Background(), form, tone)
}

// Sweep re-runs the injection pass over feed items already in the page.
func (rt *Runtime) Sweep() {
	rt.observer.Sweep()
}

// Run starts observation, connects the bridge, and replays mutations until
// the context is cancelled.
func (rt *Runtime) Run(ctx context.Context) error {
	if err := rt.observer.Start(rt.bus); err != nil {
		return err
	}

	events.Subscribe(rt.bus, events.TopicReinject, func(ctx context.Context, _ struct{}) error {
		rt.Sweep()
		return nil
	})
	// The startup pass goes through the bus too, so it cannot interleave
	// with an early fragment.
	rt.requestSweep()

	client := bridge.NewClient(rt.cfg.Agent.BridgeURL, rt.cell, rt.requestSweep, rt.requestSweep)
	go func() {
		if err := client.Run(ctx); err != nil {
			// The page keeps working without a daemon; articulation reports
			// the missing configuration instead.
			rt.log.Warnf("bridge unavailable: %v", err)
		}
	}()

	if rt.cfg.Agent.TargetsPath != "" {
		go func() {
			err := targets.Watch(ctx, rt.cfg.Agent.TargetsPath, func(reg targets.Registry) {
				rt.regMu.Lock()
				rt.registry = reg
				rt.regMu.Unlock()
				events.Publish(rt.bus, events.TopicReinject, struct{}{})
			})
			if err != nil {
				rt.log.Warnf("targets watch: %v", err)
			}
		}()
	}

	if rt.cfg.Agent.MutationsDir != "" {
		go func() {
			src := newFeedSource(rt.cfg.Agent.MutationsDir, rt.feedRoot, rt.bus)
			if err := src.run(ctx); err != nil {
				rt.log.Warnf("mutation source: %v", err)
			}
		}()
	}

	<-ctx.Done()
	rt.bus.Close()
	return nil
}
