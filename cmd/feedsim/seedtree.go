package main

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/ndrandal/feed-simulator/go-feed/internal/book"
	"github.com/ndrandal/feed-simulator/go-feed/internal/orderbook"
	"github.com/ndrandal/feed-simulator/go-feed/internal/seedtree"
	"github.com/ndrandal/feed-simulator/go-feed/internal/symbol"
)

// symbolPod is one symbols-tree pod: the static symbol metadata plus the
// live quote book fed by the matching orderbook.Simulator's depth snapshots.
type symbolPod struct {
	sym  symbol.Symbol
	mu   sync.RWMutex
	book book.Book
}

// symbolBooks owns one pod per symbol and the tree that exposes them,
// keyed by ticker so /seed/symbols paths read naturally (/symbols/NEXO).
type symbolBooks struct {
	tree *seedtree.Tree
	pods map[string]*symbolPod // ticker -> pod
}

var infoTab = &seedtree.Tab{
	Name: "info",
	Fields: []*seedtree.Field{
		{Name: "Ticker", Get: func(row any) string { return row.(*symbolPod).sym.Ticker }},
		{Name: "Sector", Get: func(row any) string { return string(row.(*symbolPod).sym.Sector) }},
		{Name: "BasePrice", Get: func(row any) string { return strconv.FormatFloat(row.(*symbolPod).sym.BasePrice, 'f', 2, 64) }},
		{Name: "TickSize", Get: func(row any) string { return strconv.FormatFloat(row.(*symbolPod).sym.TickSize, 'f', 4, 64) }},
	},
}

var bookTab = &seedtree.Tab{
	Name: "book",
	Fields: []*seedtree.Field{
		{Name: "BestBid", Get: func(row any) string {
			p := row.(*symbolPod)
			p.mu.RLock()
			defer p.mu.RUnlock()
			return strconv.FormatFloat(p.book.Bids[0].Price, 'f', 4, 64)
		}},
		{Name: "BestAsk", Get: func(row any) string {
			p := row.(*symbolPod)
			p.mu.RLock()
			defer p.mu.RUnlock()
			return strconv.FormatFloat(p.book.Asks[0].Price, 'f', 4, 64)
		}},
		{Name: "Timestamp", Get: func(row any) string {
			p := row.(*symbolPod)
			p.mu.RLock()
			defer p.mu.RUnlock()
			return p.book.Timestamp.Format(time.RFC3339Nano)
		}},
	},
}

// newSymbolBooks builds the symbols tree: one pod per symbol, tabs "info"
// (static, read-only) and "book" (live depth, read-only), notifying "book"
// subscribers every time ApplyDepthFromSimulator runs for that ticker.
func newSymbolBooks(syms []symbol.Symbol) *symbolBooks {
	sb := &symbolBooks{pods: make(map[string]*symbolPod, len(syms))}
	for _, s := range syms {
		sb.pods[s.Ticker] = &symbolPod{sym: s}
	}

	tree := seedtree.NewTree("symbols", infoTab, bookTab)
	for ticker := range sb.pods {
		tree.AddKey(ticker)
	}
	tree.OnRead = func(ctx context.Context, key string, tab *seedtree.Tab) (seedtree.RawRd, *seedtree.Error) {
		pod, ok := sb.pods[key]
		if !ok {
			return seedtree.RawRd{}, seedtree.NewError(seedtree.NotFoundKey, key)
		}
		values := make([]string, len(tab.Fields))
		for i, f := range tab.Fields {
			values[i] = f.Get(pod)
		}
		return seedtree.RawRd{Tab: tab, Values: values}, nil
	}
	tree.OnGridRow = func(key string, tab *seedtree.Tab) (seedtree.GridRow, bool) {
		pod, ok := sb.pods[key]
		if !ok {
			return seedtree.GridRow{}, false
		}
		values := make([]string, len(tab.Fields))
		for i, f := range tab.Fields {
			values[i] = f.Get(pod)
		}
		return seedtree.GridRow{Key: key, Values: values}, true
	}
	sb.tree = tree
	return sb
}

// ApplyDepthFromSimulator translates sim's current depth into the ticker's
// book and notifies "book" tab subscribers.
func (sb *symbolBooks) ApplyDepthFromSimulator(ticker string, sim *orderbook.Simulator) {
	pod, ok := sb.pods[ticker]
	if !ok {
		return
	}
	snap := sim.Book().Depth()
	pod.mu.Lock()
	pod.book.ApplyDepth(time.Now(), snap, 10000)
	pod.mu.Unlock()
	sb.tree.Notify(bookTab, ticker)
}

// Tree exposes the underlying seedtree.Tree for registry mounting.
func (sb *symbolBooks) Tree() *seedtree.Tree { return sb.tree }
