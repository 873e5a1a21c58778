package seedtree

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Field is a named, typed column on a Tab: Get renders a pod's row to text,
// Set parses text back into the row (StrToCell's Go analogue).
type Field struct {
	Name string
	Get  func(row any) string
	Set  func(row any, text string) *Error
}

// Tab is a named column family: the field set used for read/write/grid-view
// against pods of a Tree.
type Tab struct {
	Name   string
	Fields []*Field
}

// FieldByName looks up a field by name; it returns false when absent, which
// RunWrite reports as field_not_found.
func (t *Tab) FieldByName(name string) (*Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// RawRd is the row text a Read op returns: one rendered string per field, in
// Tab.Fields order.
type RawRd struct {
	Tab    *Tab
	Values []string
}

// FieldSet is one parsed "field=value" pair from a Write runner's command
// line.
type FieldSet struct {
	Field string
	Value string
}

// WriteResult carries the overall outcome of a Write plus any per-field
// diagnostics, matching spec §4.E/§7's "Write... surfaces per-field
// diagnostics alongside an overall ok/error."
type WriteResult struct {
	FieldErrors map[string]*Error
}

func (w WriteResult) OK() bool { return len(w.FieldErrors) == 0 }

// GridRow is one row of a GridView snapshot.
type GridRow struct {
	Key    string
	Values []string
}

// GridViewResult is an ordered, bounded snapshot plus the key to resume
// from on the next call (exclusive, per DESIGN.md's Open Question 2
// decision).
type GridViewResult struct {
	Rows    []GridRow
	LastKey string
	HasMore bool
}

// Notice is delivered to a subscriber on every change to a subscribed
// tree/tab.
type Notice struct {
	Tree *Tree
	Tab  *Tab
	Key  string
}

// SubConn is an opaque handle to one installed subscription.
type SubConn struct {
	id int64
}

type subEntry struct {
	conn   SubConn
	tab    *Tab
	notify func(Notice)
}

// Tree is a keyed collection of pods exposing a fixed set of tabs. The
// pod-level semantics (read/write/remove/command) are supplied by hook
// functions so the same Tree machinery (key ordering, gridview pagination,
// subscription bookkeeping) serves both the symbols tree and the
// file-import tree.
type Tree struct {
	Name string
	tabs []*Tab

	mu      sync.RWMutex
	keys    []string // kept sorted for stable grid-view pagination
	nextSub int64
	subs    []subEntry

	// OnRead renders a pod's row for tab. Required for pod-level Read.
	OnRead func(ctx context.Context, key string, tab *Tab) (RawRd, *Error)
	// OnWriteRow resolves key to the mutable row object that Write applies
	// field.Set calls against. Required for pod-level Write.
	OnWriteRow func(ctx context.Context, key string) (any, *Error)
	// OnAfterWrite runs once a Write's field sets have all been applied,
	// e.g. to persist the pod. Optional.
	OnAfterWrite func(ctx context.Context, key string)
	// OnRemove deletes a pod by key. Required for pod-level Remove.
	OnRemove func(ctx context.Context, key string) *Error
	// OnCommand forwards a command line to a pod's seed-command handler.
	OnCommand func(ctx context.Context, key string, tab *Tab, cmdline string) (string, *Error)
	// OnGridRow renders one key's row for tab, used by GridView.
	OnGridRow func(key string, tab *Tab) (GridRow, bool)
}

// NewTree creates an empty Tree exposing the given tabs. The first tab is
// the default when a path omits ^tab.
func NewTree(name string, tabs ...*Tab) *Tree {
	return &Tree{Name: name, tabs: tabs}
}

// Tabs returns the tree's tab list.
func (t *Tree) Tabs() []*Tab { return t.tabs }

// DefaultTab returns the first tab, or nil if the tree has none.
func (t *Tree) DefaultTab() *Tab {
	if len(t.tabs) == 0 {
		return nil
	}
	return t.tabs[0]
}

// TabByName resolves a tab by name, falling back to DefaultTab when name is
// empty.
func (t *Tree) TabByName(name string) (*Tab, *Error) {
	if name == "" {
		if d := t.DefaultTab(); d != nil {
			return d, nil
		}
		return nil, NewError(NotFoundTab, "tree has no tabs")
	}
	for _, tab := range t.tabs {
		if tab.Name == name {
			return tab, nil
		}
	}
	return nil, NewError(NotFoundTab, fmt.Sprintf("no such tab %q", name))
}

// AddKey registers key as present in the tree, keeping the key list sorted
// for deterministic grid-view pagination.
func (t *Tree) AddKey(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := sort.SearchStrings(t.keys, key)
	if i < len(t.keys) && t.keys[i] == key {
		return
	}
	t.keys = append(t.keys, "")
	copy(t.keys[i+1:], t.keys[i:])
	t.keys[i] = key
}

// RemoveKey drops key from the tree's key list.
func (t *Tree) RemoveKey(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := sort.SearchStrings(t.keys, key)
	if i < len(t.keys) && t.keys[i] == key {
		t.keys = append(t.keys[:i], t.keys[i+1:]...)
	}
}

// HasKey reports whether key is currently registered.
func (t *Tree) HasKey(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i := sort.SearchStrings(t.keys, key)
	return i < len(t.keys) && t.keys[i] == key
}

// GridView returns up to maxRows rows starting strictly after startKey
// (GridViewBegin for the very first page), in key order.
func (t *Tree) GridView(tab *Tab, startKey string, maxRows int) GridViewResult {
	t.mu.RLock()
	keys := append([]string(nil), t.keys...)
	t.mu.RUnlock()

	start := 0
	if startKey != GridViewBegin {
		start = sort.SearchStrings(keys, startKey)
		if start < len(keys) && keys[start] == startKey {
			start++ // exclusive of last_key
		}
	}

	var result GridViewResult
	for i := start; i < len(keys) && len(result.Rows) < maxRows; i++ {
		if t.OnGridRow == nil {
			break
		}
		row, ok := t.OnGridRow(keys[i], tab)
		if !ok {
			continue
		}
		result.Rows = append(result.Rows, row)
		result.LastKey = row.Key
	}
	result.HasMore = start+len(result.Rows) < len(keys)
	return result
}

// Subscribe installs notify for changes on tab and returns a handle to
// later Unsubscribe.
func (t *Tree) Subscribe(tab *Tab, notify func(Notice)) SubConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextSub++
	conn := SubConn{id: t.nextSub}
	t.subs = append(t.subs, subEntry{conn: conn, tab: tab, notify: notify})
	return conn
}

// Unsubscribe removes a previously installed subscription. It is safe to
// call more than once or with an already-removed handle.
func (t *Tree) Unsubscribe(conn SubConn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.subs {
		if s.conn == conn {
			t.subs = append(t.subs[:i], t.subs[i+1:]...)
			return
		}
	}
}

// Notify delivers a change notice to every subscriber of tab, on the calling
// goroutine. The tree's lock is held only while collecting the subscriber
// list, not during delivery, so notices from concurrent Notify calls are not
// serialized against each other.
func (t *Tree) Notify(tab *Tab, key string) {
	t.mu.RLock()
	targets := make([]func(Notice), 0, len(t.subs))
	for _, s := range t.subs {
		if s.tab == tab {
			targets = append(targets, s.notify)
		}
	}
	t.mu.RUnlock()
	for _, notify := range targets {
		notify(Notice{Tree: t, Tab: tab, Key: key})
	}
}
