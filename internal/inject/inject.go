// Package inject attaches the articulation control to newly discovered
// comment forms, exactly once per form.
package inject

import (
	"articulate/internal/dom"
	"articulate/internal/logging"
	"articulate/internal/prompt"
	"articulate/internal/targets"
)

// MarkerAttr flags a form that has already been processed. The flag lives on
// the element itself: the element's lifetime is the only lifetime available,
// and an external map would leak or go stale across node replacement.
const MarkerAttr = "data-articulate-injected"

const classPrefix = "ARTICULATE-"

// TriggerFunc runs the end-to-end articulation flow for one (form, tone).
type TriggerFunc func(form *dom.Node, tone prompt.Tone)

// Injector builds and inserts the tone-menu control.
type Injector struct {
	registry func() targets.Registry
	trigger  TriggerFunc
	log      logging.Scoped
}

// New creates an Injector. registry is consulted per form; trigger is wired
// onto every menu entry.
func New(registry func() targets.Registry, trigger TriggerFunc) *Injector {
	return &Injector{
		registry: registry,
		trigger:  trigger,
		log:      logging.Scope("injector"),
	}
}

// Process injects the control into one candidate comment form. Re-invoking
// on the same form is a no-op: the marker attribute is the sole
// de-duplication guard, and it is set before any further work so a
// re-entrant observation of the same element sees it and skips. Failures
// are logged and never propagate to the caller.
func (in *Injector) Process(form *dom.Node) {
	if form.HasAttr(MarkerAttr) {
		return
	}
	form.SetAttr(MarkerAttr, "true")

	defer func() {
		if r := recover(); r != nil {
			in.log.Errorf("injection failed: %v", r)
		}
	}()

	reg := in.registry()
	anchor := form.Query(reg.Inject)
	if anchor == nil {
		// Page structure may have drifted; leave the form unmodified.
		in.log.Warnf("inject anchor %q not found, skipping form", reg.Inject)
		return
	}

	anchor.PrependChild(in.buildControl(form))
}

// buildControl assembles the dropdown: a toggle button and one menu entry
// per tone, each entry firing the articulation flow for this form.
func (in *Injector) buildControl(form *dom.Node) *dom.Node {
	wrapper := dom.NewElement("div")
	wrapper.AddClass(classPrefix + "dropdown")

	toggle := dom.NewElement("button")
	toggle.SetAttr("type", "button")
	toggle.SetAttr("title", "Articulate")
	toggle.AddClass(classPrefix + "dropdown-trigger")
	wrapper.AppendChild(toggle)

	menu := dom.NewElement("div")
	menu.AddClass(classPrefix + "dropdown-menu")
	wrapper.AppendChild(menu)

	for _, opt := range prompt.ToneOptions() {
		tone := opt.Tone
		item := dom.NewElement("div")
		item.AddClass(classPrefix + "dropdown-menu-item")
		item.SetAttr("data-tone", string(tone))
		item.SetText(opt.Title)
		item.OnClick(func() {
			in.trigger(form, tone)
		})
		menu.AppendChild(item)
	}

	open := false
	toggle.OnClick(func() {
		open = !open
		if open {
			menu.AddClass(classPrefix + "dropdown-menu-show")
		} else {
			menu.SetAttr("class", classPrefix+"dropdown-menu")
		}
	})

	return wrapper
}
