package book

import (
	"time"

	"github.com/ndrandal/feed-simulator/go-feed/internal/orderbook"
)

// BatchFromDepth translates an orderbook.DepthSnapshot into the Overlay feed
// batch ApplyBatch expects: each side is replaced wholesale with the
// snapshot's levels, in price-priority order, matching how a real depth feed
// publishes a full refresh rather than incremental per-level diffs.
// priceDivisor follows ApplyBatch's RawPrice convention; snapshot prices are
// already floats, so entries carry RawPrice = price*priceDivisor and the
// caller passes the same divisor through to ApplyBatch.
func BatchFromDepth(snap orderbook.DepthSnapshot, priceDivisor float64) []FeedEntry {
	entries := make([]FeedEntry, 0, len(snap.Bids)+len(snap.Asks))
	entries = append(entries, overlayLevels(snap.Bids, Buy, priceDivisor)...)
	entries = append(entries, overlayLevels(snap.Asks, Sell, priceDivisor)...)

	if snap.BestBid > 0 {
		entries = append(entries, FeedEntry{
			Action:   Overlay,
			Side:     DerivedBuy,
			Level:    1,
			RawPrice: int64(snap.BestBid * priceDivisor),
			Quantity: bestShares(snap.Bids),
		})
	}
	if snap.BestAsk > 0 {
		entries = append(entries, FeedEntry{
			Action:   Overlay,
			Side:     DerivedSell,
			Level:    1,
			RawPrice: int64(snap.BestAsk * priceDivisor),
			Quantity: bestShares(snap.Asks),
		})
	}
	return entries
}

func overlayLevels(levels []orderbook.DepthLevel, side Side, priceDivisor float64) []FeedEntry {
	entries := make([]FeedEntry, 0, len(levels))
	for i, lvl := range levels {
		if i >= Depth {
			break
		}
		entries = append(entries, FeedEntry{
			Action:   Overlay,
			Side:     side,
			Level:    i + 1,
			RawPrice: int64(lvl.Price * priceDivisor),
			Quantity: int64(lvl.TotalShares),
		})
	}
	return entries
}

func bestShares(levels []orderbook.DepthLevel) int64 {
	if len(levels) == 0 {
		return 0
	}
	return int64(levels[0].TotalShares)
}

// ApplyDepth is a convenience wrapper: stamp timestamp t, translate snap
// through BatchFromDepth, and apply it in one call.
func (b *Book) ApplyDepth(t time.Time, snap orderbook.DepthSnapshot, priceDivisor float64) {
	b.ApplyBatch(t, BatchFromDepth(snap, priceDivisor), priceDivisor)
}
