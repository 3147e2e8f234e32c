// Package writer orchestrates one articulation request end to end: extract
// context, build the prompt, dispatch to the configured provider, and land
// the result back in the editor the request started from.
package writer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"articulate/internal/dom"
	"articulate/internal/extract"
	"articulate/internal/logging"
	"articulate/internal/prompt"
	"articulate/internal/provider"
)

// User-visible strings. Whatever happens, the editor always ends up with one
// of these or the generated comment; it is never left showing the loading
// placeholder.
const (
	ConfigMissingMsg  = "AI configuration is missing. Please run setup."
	GenericFailureMsg = "Failed to generate comment due to an error."
	idlePlaceholder   = "Add a comment…"
)

// progressInterval is how often the waiting placeholder is refreshed.
const progressInterval = time.Second

// Dispatcher is the provider boundary the writer depends on.
type Dispatcher interface {
	Generate(ctx context.Context, p provider.Params) (string, error)
}

// ConfigSource yields the current credentials snapshot, or nil when setup
// has not happened. The snapshot is taken once per request: an update that
// arrives mid-flight does not migrate an in-progress chain.
type ConfigSource interface {
	Snapshot() *provider.Credentials
}

// Writer runs articulation requests. Each request is an independent
// asynchronous chain with no cancellation once started.
type Writer struct {
	extractor  *extract.Extractor
	config     ConfigSource
	dispatcher Dispatcher
	log        logging.Scoped
	blankClass string
	page       func(func())
}

// Option configures a Writer.
type Option func(*Writer)

// WithPageSync routes every page read and write the chain performs through
// fn, which must invoke the function it is handed and return once it ran.
// The runtime uses this to serialize editor access with the mutation
// pipeline; the default runs inline.
func WithPageSync(fn func(func())) Option {
	return func(w *Writer) {
		w.page = fn
	}
}

// New creates a Writer. blankClass is the editor's empty-state marker class,
// cleared when text is written.
func New(extractor *extract.Extractor, config ConfigSource, dispatcher Dispatcher, blankClass string, opts ...Option) *Writer {
	w := &Writer{
		extractor:  extractor,
		config:     config,
		dispatcher: dispatcher,
		log:        logging.Scope("writer"),
		blankClass: strings.TrimPrefix(blankClass, "."),
		page:       func(fn func()) { fn() },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Articulate runs the flow for one (form, tone) pair. It never returns an
// error and never panics out: every failure terminates in a user-visible
// editor update. Writing into an editor that was detached while the request
// was in flight is a silent no-op.
func (w *Writer) Articulate(ctx context.Context, form *dom.Node, tone prompt.Tone) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Errorf("articulation panic: %v", r)
		}
	}()

	var editor *dom.Node
	var res prompt.Result
	w.page(func() {
		editor = w.extractor.Editor(form)
		pctx := w.extractor.Context(form)
		pctx.Tone = tone
		res = prompt.Build(pctx)
	})

	var final string
	switch {
	case res.IsError:
		// Deliberate UX: validation guidance is surfaced as if it were the
		// AI's reply.
		final = res.ErrorMsg

	default:
		creds := w.config.Snapshot()
		if creds == nil {
			w.log.Warnf("no AI configuration, skipping dispatch")
			final = ConfigMissingMsg
			break
		}

		stop := w.startProgress(editor)
		text, err := w.dispatcher.Generate(ctx, provider.Params{
			Provider: creds.Provider,
			Model:    creds.Model,
			APIKey:   creds.APIKey,
			Prompt:   res.Prompt,
		})
		stop()

		if err != nil {
			w.log.Errorf("generation failed: %v", err)
			final = GenericFailureMsg
		} else {
			final = text
		}
	}

	w.writeBack(editor, final)
}

// startProgress updates the editor placeholder with an elapsed-seconds
// counter until the returned stop function is called; stop always restores
// the idle placeholder.
func (w *Writer) startProgress(editor *dom.Node) func() {
	if editor == nil {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		elapsed := 0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				elapsed++
				w.setPlaceholder(editor, fmt.Sprintf("Preparing comment... (%ds)", elapsed))
			}
		}
	}()

	return func() {
		close(done)
		<-finished
		w.setPlaceholder(editor, idlePlaceholder)
	}
}

func (w *Writer) setPlaceholder(editor *dom.Node, text string) {
	w.page(func() {
		editor.SetAttr("placeholder", text)
		editor.SetAttr("aria-placeholder", text)
	})
}

func (w *Writer) writeBack(editor *dom.Node, text string) {
	if editor == nil {
		return
	}
	w.page(func() {
		editor.SetText(text)
		editor.RemoveClass(w.blankClass)
	})
}
