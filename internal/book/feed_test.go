package book

import (
	"testing"
	"time"

	"github.com/ndrandal/feed-simulator/go-feed/internal/orderbook"
)

func TestBatchFromDepthAppliesBidsAsksAndDerived(t *testing.T) {
	snap := orderbook.DepthSnapshot{
		Bids: []orderbook.DepthLevel{
			{Price: 100.50, TotalShares: 300},
			{Price: 100.25, TotalShares: 200},
		},
		Asks: []orderbook.DepthLevel{
			{Price: 101.00, TotalShares: 150},
		},
		BestBid: 100.50,
		BestAsk: 101.00,
	}

	var b Book
	b.ApplyDepth(time.Unix(0, 0), snap, 10000)

	if b.Bids[0] != (PriQty{100.50, 300}) {
		t.Fatalf("Bids[0] = %+v, want {100.50 300}", b.Bids[0])
	}
	if b.Bids[1] != (PriQty{100.25, 200}) {
		t.Fatalf("Bids[1] = %+v, want {100.25 200}", b.Bids[1])
	}
	if b.Asks[0] != (PriQty{101.00, 150}) {
		t.Fatalf("Asks[0] = %+v, want {101.00 150}", b.Asks[0])
	}
	if b.DerivedBid != (PriQty{100.50, 300}) {
		t.Fatalf("DerivedBid = %+v, want best bid carried through", b.DerivedBid)
	}
	if b.DerivedAsk != (PriQty{101.00, 150}) {
		t.Fatalf("DerivedAsk = %+v, want best ask carried through", b.DerivedAsk)
	}
}

func TestBatchFromDepthClearsStaleLevelsOnNarrowing(t *testing.T) {
	var b Book
	wide := orderbook.DepthSnapshot{
		Bids: []orderbook.DepthLevel{
			{Price: 10, TotalShares: 1}, {Price: 9, TotalShares: 1}, {Price: 8, TotalShares: 1},
		},
	}
	b.ApplyDepth(time.Unix(0, 0), wide, 1)

	narrow := orderbook.DepthSnapshot{
		Bids: []orderbook.DepthLevel{{Price: 10, TotalShares: 1}},
	}
	b.ApplyDepth(time.Unix(1, 0), narrow, 1)

	if b.Bids[1] != (PriQty{}) || b.Bids[2] != (PriQty{}) {
		t.Fatalf("stale bid levels should be cleared on overlay narrowing, got %+v", b.Bids)
	}
}
