package seedtree

import (
	"context"
	"fmt"
	"testing"
)

type testRow struct {
	name string
}

type captureCallbacks struct {
	read      chan RawRd
	write     chan WriteResult
	gridview  chan GridViewResult
	removed   chan bool
	command   chan string
	subscribe chan bool
	notify    chan Notice
	errs      chan *Error
}

func newCaptureCallbacks() *captureCallbacks {
	return &captureCallbacks{
		read:      make(chan RawRd, 8),
		write:     make(chan WriteResult, 8),
		gridview:  make(chan GridViewResult, 8),
		removed:   make(chan bool, 8),
		command:   make(chan string, 8),
		subscribe: make(chan bool, 8),
		notify:    make(chan Notice, 8),
		errs:      make(chan *Error, 8),
	}
}

func (c *captureCallbacks) OnRead(r RawRd)           { c.read <- r }
func (c *captureCallbacks) OnWrite(r WriteResult)    { c.write <- r }
func (c *captureCallbacks) OnGridView(r GridViewResult) { c.gridview <- r }
func (c *captureCallbacks) OnRemoved(ok bool)        { c.removed <- ok }
func (c *captureCallbacks) OnCommand(s string)       { c.command <- s }
func (c *captureCallbacks) OnSubscribe(ok bool)       { c.subscribe <- ok }
func (c *captureCallbacks) OnNotify(n Notice)        { c.notify <- n }
func (c *captureCallbacks) OnError(e *Error)         { c.errs <- e }

func inline(fn func()) { fn() }

func newNameTab() *Tab {
	return &Tab{Name: "info", Fields: []*Field{
		{
			Name: "Name",
			Get:  func(row any) string { return row.(*testRow).name },
			Set: func(row any, text string) *Error {
				row.(*testRow).name = text
				return nil
			},
		},
	}}
}

func TestRunWriteCollectsPerFieldDiagnostics(t *testing.T) {
	tab := newNameTab()
	tree := NewTree("symbols", tab)
	rows := map[string]*testRow{"2330": {name: ""}}
	tree.OnWriteRow = func(ctx context.Context, key string) (any, *Error) {
		r, ok := rows[key]
		if !ok {
			return nil, NewError(NotFoundKey, key)
		}
		return r, nil
	}
	reg := NewRegistry()
	reg.Add(tree)
	cb := newCaptureCallbacks()
	v := NewVisitor(cb)

	RunWrite(context.Background(), reg, v, "/symbols/2330^info$Name=TSMC,Bogus=1", inline)

	select {
	case res := <-cb.write:
		if res.FieldErrors["Name"] != nil {
			t.Fatalf("Name field should have no error, got %v", res.FieldErrors["Name"])
		}
		if res.FieldErrors["Bogus"] == nil || res.FieldErrors["Bogus"].Kind != FieldNotFound {
			t.Fatalf("Bogus field should report field_not_found, got %v", res.FieldErrors["Bogus"])
		}
	case e := <-cb.errs:
		t.Fatalf("unexpected OnError: %v", e)
	}
	if rows["2330"].name != "TSMC" {
		t.Fatalf("Name not applied, row = %+v", rows["2330"])
	}
}

func TestRunReadTreeLevelNotSupported(t *testing.T) {
	tree := NewTree("symbols", newNameTab())
	reg := NewRegistry()
	reg.Add(tree)
	cb := newCaptureCallbacks()
	v := NewVisitor(cb)

	RunRead(context.Background(), reg, v, "/symbols", inline)

	select {
	case err := <-cb.errs:
		if err.Kind != NotSupportedRead {
			t.Fatalf("Kind = %v, want not_supported_read", err.Kind)
		}
	default:
		t.Fatalf("expected an OnError call")
	}
}

func TestGridViewContinuationExclusive(t *testing.T) {
	tab := newNameTab()
	tree := NewTree("symbols", tab)
	for i := 0; i < 5; i++ {
		tree.AddKey(fmt.Sprintf("k%d", i))
	}
	tree.OnGridRow = func(key string, tab *Tab) (GridRow, bool) {
		return GridRow{Key: key}, true
	}
	reg := NewRegistry()
	reg.Add(tree)
	cb := newCaptureCallbacks()
	v := NewVisitor(cb)

	RunGridView(context.Background(), reg, v, "/symbols", GridViewBegin, 2, inline)
	page1 := <-cb.gridview
	if len(page1.Rows) != 2 || page1.Rows[0].Key != "k0" || page1.Rows[1].Key != "k1" {
		t.Fatalf("page1 = %+v", page1.Rows)
	}

	RunGridView(context.Background(), reg, v, "/symbols", page1.LastKey, 2, inline)
	page2 := <-cb.gridview
	if len(page2.Rows) != 2 || page2.Rows[0].Key != "k2" {
		t.Fatalf("continuation must exclude last_key, page2 = %+v", page2.Rows)
	}
}

func TestSubscribeDisplacesAndUnsubscribesOld(t *testing.T) {
	tab := newNameTab()
	tree := NewTree("symbols", tab)
	reg := NewRegistry()
	reg.Add(tree)
	cb := newCaptureCallbacks()
	v := NewVisitor(cb)

	RunSubscribe(context.Background(), reg, v, "/symbols/2330^info", inline)
	<-cb.subscribe
	firstSub := v.sub

	RunSubscribe(context.Background(), reg, v, "/symbols/2330^info", inline)
	<-cb.subscribe

	firstSub.mu.Lock()
	stillSet := firstSub.set
	firstSub.mu.Unlock()
	if stillSet {
		t.Fatalf("displaced subscription should have torn itself down")
	}

	tree.mu.RLock()
	n := len(tree.subs)
	tree.mu.RUnlock()
	if n != 1 {
		t.Fatalf("tree should have exactly one live subscription after displacement, got %d", n)
	}
}

func TestUnsubscribeSentinel(t *testing.T) {
	tab := newNameTab()
	tree := NewTree("symbols", tab)
	reg := NewRegistry()
	reg.Add(tree)
	cb := newCaptureCallbacks()
	v := NewVisitor(cb)

	RunSubscribe(context.Background(), reg, v, "/symbols/2330^info", inline)
	<-cb.subscribe
	RunSubscribe(context.Background(), reg, v, "/symbols/2330^<u>", inline)
	<-cb.subscribe

	tree.mu.RLock()
	n := len(tree.subs)
	tree.mu.RUnlock()
	if n != 0 {
		t.Fatalf("expected no live subscriptions after unsubscribe, got %d", n)
	}
}

