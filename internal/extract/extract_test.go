package extract

import (
	"strings"
	"testing"

	"articulate/internal/dom"
	"articulate/internal/targets"
)

const feedFixture = `<body>
<div class="scaffold-finite-scroll__content" data-finite-scroll-hotkey-context="FEED">
  <div class="feed-shared-update-v2" role="article" data-urn="urn:li:activity:7001">
    <div class="update-components-actor__container">
      <span dir="ltr">Jane DoeJane Doe</span>
    </div>
    <div class="update-components-text update-components-update-v2__commentary" dir="ltr">
      We just shipped our biggest release yet.
    </div>
    <form class="comments-comment-box__form">
      <div class="ql-editor ql-blank" contenteditable="true"><p>Add a comment…</p></div>
      <div class="comments-comment-box__detour-container"></div>
    </form>
  </div>
</div>
</body>`

func fixture(t *testing.T, src string) (*dom.Document, *dom.Node) {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	form := doc.Body().Query("form.comments-comment-box__form")
	if form == nil {
		t.Fatal("fixture has no comment form")
	}
	return doc, form
}

func registryFn() func() targets.Registry {
	reg := targets.Default()
	return func() targets.Registry { return reg }
}

func TestContextFullFeedItem(t *testing.T) {
	_, form := fixture(t, feedFixture)
	e := New(registryFn())

	ctx := e.Context(form)
	if ctx.Post != "We just shipped our biggest release yet." {
		t.Errorf("Post = %q", ctx.Post)
	}
	if ctx.Author != "Jane Doe" {
		t.Errorf("Author = %q (dedup expected)", ctx.Author)
	}
	if ctx.UserComment != "" {
		t.Errorf("blank editor yielded draft %q", ctx.UserComment)
	}
}

func TestContextReadsDraftWhenNotBlank(t *testing.T) {
	doc, form := fixture(t, feedFixture)
	_ = doc

	editor := form.Query(".ql-editor")
	editor.RemoveClass("ql-blank")
	editor.SetText("  congrats on this!  ")

	ctx := New(registryFn()).Context(form)
	if ctx.UserComment != "congrats on this!" {
		t.Errorf("UserComment = %q", ctx.UserComment)
	}
}

func TestContextMissingFeedItem(t *testing.T) {
	// A form with no article ancestor yields an empty post and author but
	// still carries the draft.
	doc, err := dom.Parse(strings.NewReader(`<body>
		<form class="comments-comment-box__form">
			<div class="ql-editor">my thoughts here</div>
		</form>
	</body>`))
	if err != nil {
		t.Fatal(err)
	}
	form := doc.Body().Query("form")

	ctx := New(registryFn()).Context(form)
	if ctx.Post != "" || ctx.Author != "" {
		t.Errorf("expected empty post context, got %+v", ctx)
	}
	if ctx.UserComment != "my thoughts here" {
		t.Errorf("UserComment = %q", ctx.UserComment)
	}
}

func TestFeedItemIgnoresNonActivityAncestors(t *testing.T) {
	doc, err := dom.Parse(strings.NewReader(`<body>
		<div role="article" data-urn="urn:li:comment:123">
			<div class="update-components-text update-components-update-v2__commentary" dir="ltr">wrong scope</div>
			<form class="comments-comment-box__form"><div class="ql-editor"></div></form>
		</div>
	</body>`))
	if err != nil {
		t.Fatal(err)
	}
	form := doc.Body().Query("form")

	ctx := New(registryFn()).Context(form)
	if ctx.Post != "" {
		t.Errorf("comment URN treated as feed item, Post = %q", ctx.Post)
	}
}

func TestEditorLookup(t *testing.T) {
	_, form := fixture(t, feedFixture)
	e := New(registryFn())
	editor := e.Editor(form)
	if editor == nil || !editor.HasClass("ql-editor") {
		t.Fatalf("Editor returned %v", editor)
	}
}

func TestBlankClassToleratesSelectorForm(t *testing.T) {
	reg := targets.Default()
	reg.CommentEditorBlank = ".ql-blank"
	if got := blankClass(reg); got != "ql-blank" {
		t.Errorf("blankClass = %q", got)
	}
}
