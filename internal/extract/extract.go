// Package extract gathers the post context for one comment form: the user's
// draft, the enclosing feed item's body text, and the author name.
package extract

import (
	"strings"

	"articulate/internal/dom"
	"articulate/internal/logging"
	"articulate/internal/prompt"
	"articulate/internal/targets"
)

// Extractor reads context out of the page around a comment form. Every miss
// is a recoverable condition: the field stays absent and the pipeline keeps
// going.
type Extractor struct {
	registry func() targets.Registry
	log      logging.Scoped
}

// New creates an Extractor.
func New(registry func() targets.Registry) *Extractor {
	return &Extractor{
		registry: registry,
		log:      logging.Scope("extractor"),
	}
}

// Context builds a PostContext for the form. The tone is filled in by the
// caller.
func (e *Extractor) Context(form *dom.Node) prompt.PostContext {
	reg := e.registry()
	var ctx prompt.PostContext

	if editor := form.Query(reg.CommentEditor); editor != nil {
		if !editor.HasClass(blankClass(reg)) {
			ctx.UserComment = strings.TrimSpace(editor.Text())
		}
	}

	item := e.feedItem(form)
	if item == nil {
		return ctx
	}

	if body := item.Query(reg.Post); body != nil {
		ctx.Post = strings.TrimSpace(body.Text())
	} else {
		e.log.Infof("post content container not found")
	}

	if author := item.Query(reg.Author); author != nil {
		ctx.Author = CleanAuthorName(strings.TrimSpace(author.Text()))
	} else {
		e.log.Infof("author container not found")
	}

	return ctx
}

// Editor returns the form's text editor element, or nil.
func (e *Extractor) Editor(form *dom.Node) *dom.Node {
	return form.Query(e.registry().CommentEditor)
}

// feedItem walks ancestor-by-ancestor from the form until it finds the
// enclosing feed item: a DIV with an article role and an activity-URN
// identifier. No depth limit; running off the top of the tree means the
// item is absent, which is logged as recoverable, not raised.
func (e *Extractor) feedItem(form *dom.Node) *dom.Node {
	for node := form.Parent(); node != nil; node = node.Parent() {
		if node.Type != dom.ElementNode || node.Tag != "div" {
			continue
		}
		if role, _ := node.Attr("role"); role != "article" {
			continue
		}
		urn, ok := node.Attr("data-urn")
		if ok && strings.HasPrefix(urn, "urn:li:activity:") {
			return node
		}
	}
	e.log.Infof("feed item parent container not found")
	return nil
}

// blankClass tolerates the registry carrying the blank marker either as a
// bare class name or as a class selector.
func blankClass(reg targets.Registry) string {
	return strings.TrimPrefix(reg.CommentEditorBlank, ".")
}
