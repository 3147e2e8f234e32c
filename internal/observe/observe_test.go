package observe

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"articulate/internal/dom"
	"articulate/internal/events"
	"articulate/internal/targets"
)

func feedPage(t *testing.T) (*dom.Document, *dom.Node) {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(`<body>
<div class="scaffold-finite-scroll__content" data-finite-scroll-hotkey-context="FEED">
  <div class="feed-shared-update-v2" role="article" data-urn="urn:li:activity:1">
    <form class="comments-comment-box__form" id="f1"></form>
  </div>
  <div class="feed-shared-update-v2" role="article" data-urn="urn:li:activity:2">
    <form class="comments-comment-box__form" id="f2"></form>
  </div>
</div>
</body>`))
	if err != nil {
		t.Fatal(err)
	}
	reg := targets.Default()
	root := doc.Body().Query(reg.Feeds)
	if root == nil {
		t.Fatal("feed root not found")
	}
	return doc, root
}

func feedItem(t *testing.T, urn string, formIDs ...string) *dom.Node {
	t.Helper()
	var sb strings.Builder
	fmt.Fprintf(&sb, `<div class="feed-shared-update-v2" role="article" data-urn="urn:li:activity:%s">`, urn)
	for _, id := range formIDs {
		fmt.Fprintf(&sb, `<form class="comments-comment-box__form" id=%q></form>`, id)
	}
	sb.WriteString(`</div>`)
	nodes, err := dom.ParseFragment(sb.String())
	if err != nil {
		t.Fatal(err)
	}
	return nodes[0]
}

type collector struct {
	mu    sync.Mutex
	forms []string
}

func (c *collector) handle(form *dom.Node) {
	id, _ := form.Attr("id")
	c.mu.Lock()
	c.forms = append(c.forms, id)
	c.mu.Unlock()
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.forms...)
}

func (c *collector) waitFor(t *testing.T, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := c.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("saw %v, wanted %d forms", c.snapshot(), n)
	return nil
}

func regFn() func() targets.Registry {
	reg := targets.Default()
	return func() targets.Registry { return reg }
}

func TestSweepFindsExistingForms(t *testing.T) {
	_, root := feedPage(t)
	var c collector
	New(root, regFn(), c.handle).Sweep()

	got := c.snapshot()
	if len(got) != 2 || got[0] != "f1" || got[1] != "f2" {
		t.Fatalf("sweep found %v", got)
	}
}

func TestBatchScansOnlyAddedSubtrees(t *testing.T) {
	_, root := feedPage(t)
	bus := events.NewBus(events.WithSyncDelivery())
	defer bus.Close()

	var c collector
	o := New(root, regFn(), c.handle)
	if err := o.Start(bus); err != nil {
		t.Fatal(err)
	}

	// f1 and f2 already exist under the root but are NOT in the batch;
	// only the newly attached item's form may be discovered.
	item := feedItem(t, "3", "f3")
	root.AppendChild(item)
	events.Publish(bus, events.TopicMutations, Batch{Added: []*dom.Node{item}})

	got := c.waitFor(t, 1)
	if len(got) != 1 || got[0] != "f3" {
		t.Fatalf("batch scan found %v, want [f3]", got)
	}
}

func TestBatchIgnoresNodesOutsideRoot(t *testing.T) {
	doc, root := feedPage(t)
	bus := events.NewBus(events.WithSyncDelivery())
	defer bus.Close()

	var c collector
	o := New(root, regFn(), c.handle)
	if err := o.Start(bus); err != nil {
		t.Fatal(err)
	}

	// Attached to the body, not under the observed feed root.
	stray := feedItem(t, "9", "f9")
	doc.Body().AppendChild(stray)
	events.Publish(bus, events.TopicMutations, Batch{Added: []*dom.Node{stray}})

	time.Sleep(100 * time.Millisecond)
	if got := c.snapshot(); len(got) != 0 {
		t.Fatalf("out-of-root node scanned: %v", got)
	}
}

func TestBatchSkipsNonElements(t *testing.T) {
	_, root := feedPage(t)
	bus := events.NewBus(events.WithSyncDelivery())
	defer bus.Close()

	var c collector
	o := New(root, regFn(), c.handle)
	if err := o.Start(bus); err != nil {
		t.Fatal(err)
	}

	text := dom.NewText("plain text")
	root.AppendChild(text)
	events.Publish(bus, events.TopicMutations, Batch{Added: []*dom.Node{nil, text}})

	time.Sleep(100 * time.Millisecond)
	if got := c.snapshot(); len(got) != 0 {
		t.Fatalf("non-element scanned: %v", got)
	}
}

func TestHandlerPanicIsolatedPerForm(t *testing.T) {
	_, root := feedPage(t)
	bus := events.NewBus(events.WithSyncDelivery())
	defer bus.Close()

	var c collector
	o := New(root, regFn(), func(form *dom.Node) {
		if id, _ := form.Attr("id"); id == "fboom" {
			panic("injection exploded")
		}
		c.handle(form)
	})
	if err := o.Start(bus); err != nil {
		t.Fatal(err)
	}

	item := feedItem(t, "4", "fboom", "fok")
	root.AppendChild(item)
	events.Publish(bus, events.TopicMutations, Batch{Added: []*dom.Node{item}})

	got := c.waitFor(t, 1)
	if got[0] != "fok" {
		t.Fatalf("form after panic not processed: %v", got)
	}
}

func TestStartTwiceFails(t *testing.T) {
	_, root := feedPage(t)
	bus := events.NewBus(events.WithSyncDelivery())
	defer bus.Close()

	o := New(root, regFn(), func(*dom.Node) {})
	if err := o.Start(bus); err != nil {
		t.Fatal(err)
	}
	if err := o.Start(bus); err == nil {
		t.Fatal("second Start succeeded")
	}
}

func TestBatchOrderPreserved(t *testing.T) {
	_, root := feedPage(t)
	bus := events.NewBus(events.WithSyncDelivery())
	defer bus.Close()

	var c collector
	o := New(root, regFn(), c.handle)
	if err := o.Start(bus); err != nil {
		t.Fatal(err)
	}

	var want []string
	for i := 10; i < 20; i++ {
		id := fmt.Sprintf("f%d", i)
		want = append(want, id)
		item := feedItem(t, fmt.Sprint(i), id)
		root.AppendChild(item)
		events.Publish(bus, events.TopicMutations, Batch{Added: []*dom.Node{item}})
	}

	got := c.waitFor(t, len(want))
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order broken: got %v, want %v", got, want)
		}
	}
}
