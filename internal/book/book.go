// Package book implements the symbol quote-book data model and its update
// discipline: 5-level depth, a single-level derived book, change flags, and
// the trading-session freshness rule. It is the Go analogue of fon9's
// SymbBSData / ExgMdSymbs.
package book

import "time"

// Side identifies which array a feed entry updates.
type Side int

const (
	Buy Side = iota
	Sell
	DerivedBuy
	DerivedSell
)

// Action describes how a feed entry mutates a level.
type Action int

const (
	NewLevel Action = iota
	ChangeLevel
	DeleteLevel
	Overlay
)

// Session is the trading session a symbol is currently in.
type Session int

const (
	Regular Session = iota
	AfterHours
)

// ChangeFlag is a bitset recording which parts of a Book changed on the
// last Apply.
type ChangeFlag uint8

const (
	Calculated ChangeFlag = 1 << iota
	BuyChanged
	SellChanged
	DerivedBuyChanged
	DerivedSellChanged
)

// Depth is the number of price levels carried per side.
const Depth = 5

// PriQty is a single (price, quantity) level.
type PriQty struct {
	Price float64
	Qty   int64
}

// Book holds the 5-level bid/ask depth, the single-level derived book, and
// the change-flag bitset described in spec §3/§4.D.
type Book struct {
	Timestamp  time.Time
	Bids       [Depth]PriQty
	Asks       [Depth]PriQty
	DerivedBid PriQty
	DerivedAsk PriQty
	Flags      ChangeFlag
}

// FeedEntry is one update instruction from a market-data feed, already
// normalized to the abstract (action, side, level, raw price, quantity)
// shape described in spec §6 — concrete wire codecs translate into this.
type FeedEntry struct {
	Action     Action
	Side       Side
	Level      int // 1-based
	RawPrice   int64
	Quantity   int64
	IsCalcFlag bool // marks a post-auction snapshot: sets Calculated
}

// ClearChangeFlags resets the change-flag bitset, typically called by the
// consumer after observing a Book's changes.
func (b *Book) ClearChangeFlags() { b.Flags = 0 }

// ApplyBatch applies a feed batch to the book: entries are processed in
// listed order, Overlay entries first clear their side (once per side per
// batch) before being placed, matching spec §4.D's "replaces the entire
// side with the listed entries in order; missing levels are cleared."
func (b *Book) ApplyBatch(t time.Time, entries []FeedEntry, priceOriginDivisor float64) {
	clearedSides := make(map[Side]bool, 2)
	for _, e := range entries {
		if e.Action == Overlay && !clearedSides[e.Side] {
			b.clearSide(e.Side)
			clearedSides[e.Side] = true
		}
		b.applyEntry(e, priceOriginDivisor)
	}
	b.Timestamp = t
}

func (b *Book) clearSide(side Side) {
	switch side {
	case Buy:
		b.Bids = [Depth]PriQty{}
	case Sell:
		b.Asks = [Depth]PriQty{}
	case DerivedBuy:
		b.DerivedBid = PriQty{}
	case DerivedSell:
		b.DerivedAsk = PriQty{}
	}
}

func (b *Book) levelsFor(side Side) *[Depth]PriQty {
	switch side {
	case Buy:
		return &b.Bids
	case Sell:
		return &b.Asks
	default:
		return nil
	}
}

func (b *Book) setChanged(side Side) {
	switch side {
	case Buy:
		b.Flags |= BuyChanged
	case Sell:
		b.Flags |= SellChanged
	case DerivedBuy:
		b.Flags |= DerivedBuyChanged
	case DerivedSell:
		b.Flags |= DerivedSellChanged
	}
}

func (b *Book) applyEntry(e FeedEntry, divisor float64) {
	price := float64(e.RawPrice) / divisor
	action := e.Action
	if e.Quantity == 0 {
		// q = 0 means "delete at this level" regardless of declared action.
		action = DeleteLevel
	}

	switch e.Side {
	case Buy, Sell:
		if e.Level < 1 || e.Level > Depth {
			return // a NewLevel (or any action) at L > 5 is discarded
		}
		levels := b.levelsFor(e.Side)
		idx := e.Level - 1
		switch action {
		case NewLevel:
			for i := Depth - 1; i > idx; i-- {
				levels[i] = levels[i-1]
			}
			levels[idx] = PriQty{Price: price, Qty: e.Quantity}
		case ChangeLevel, Overlay:
			levels[idx] = PriQty{Price: price, Qty: e.Quantity}
		case DeleteLevel:
			for i := idx; i < Depth-1; i++ {
				levels[i] = levels[i+1]
			}
			levels[Depth-1] = PriQty{}
		}
		b.setChanged(e.Side)

	case DerivedBuy, DerivedSell:
		if e.Level != 1 {
			return
		}
		pq := PriQty{Price: price, Qty: e.Quantity}
		if action == DeleteLevel {
			pq = PriQty{}
		}
		if e.Side == DerivedBuy {
			b.DerivedBid = pq
		} else {
			b.DerivedAsk = pq
		}
		b.setChanged(e.Side)
	}

	if e.IsCalcFlag {
		b.Flags |= Calculated
	}
}
