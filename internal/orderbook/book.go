package orderbook

import (
	"sort"
	"sync"

	"github.com/ndrandal/feed-simulator/go-feed/internal/pool"
)

const (
	MaxLevels      = 10 // 10 bid levels, 10 ask levels
	OrdersPerLevel = 3  // initial orders per level
)

// PriceLevel holds the pool handles of orders resting at a single price
// point. Handles, not pointers, are kept here because the pool's backing
// slice can be reallocated on growth.
type PriceLevel struct {
	Price  float64
	Orders []pool.Handle
}

// Book is a price-time priority order book for a single symbol. Order
// storage is routed through a generic pool.Pool instead of a bare map, so
// removal benefits from the pool's witness-checked free-list reuse instead
// of a plain map delete.
type Book struct {
	mu       sync.RWMutex
	Locate   uint16
	TickSize float64
	Bids     []PriceLevel // sorted descending by price
	Asks     []PriceLevel // sorted ascending by price

	orders     *pool.Pool[Order]
	handleByID map[uint64]pool.Handle // order ID -> pool handle
}

// NewBook creates an empty order book for a symbol.
func NewBook(locate uint16, tickSize float64) *Book {
	return &Book{
		Locate:     locate,
		TickSize:   tickSize,
		orders:     pool.New[Order](64),
		handleByID: make(map[uint64]pool.Handle),
	}
}

// MidPrice returns the midpoint between best bid and best ask.
// Returns 0 if either side is empty.
func (b *Book) MidPrice() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.midPriceUnlocked()
}

func (b *Book) midPriceUnlocked() float64 {
	if len(b.Bids) == 0 || len(b.Asks) == 0 {
		return 0
	}
	return (b.Bids[0].Price + b.Asks[0].Price) / 2
}

// BestBid returns the best bid price, or 0 if empty.
func (b *Book) BestBid() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.Bids) == 0 {
		return 0
	}
	return b.Bids[0].Price
}

// BestAsk returns the best ask price, or 0 if empty.
func (b *Book) BestAsk() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.Asks) == 0 {
		return 0
	}
	return b.Asks[0].Price
}

// AddOrder inserts an order into the book at the appropriate price level.
func (b *Book) AddOrder(o *Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addOrderLocked(o)
}

func (b *Book) addOrderLocked(o *Order) pool.Handle {
	h := b.orders.Add(*o)
	b.handleByID[o.ID] = h
	if o.Side == SideBuy {
		b.Bids = addToSide(b.Bids, h, o.Price, true)
	} else {
		b.Asks = addToSide(b.Asks, h, o.Price, false)
	}
	return h
}

// RemoveOrder removes an order by ID. Returns the removed order or nil.
func (b *Book) RemoveOrder(orderID uint64) *Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.removeOrderLocked(orderID)
}

func (b *Book) removeOrderLocked(orderID uint64) *Order {
	h, ok := b.handleByID[orderID]
	if !ok {
		return nil
	}
	o := b.orders.Get(h)
	delete(b.handleByID, orderID)

	if o.Side == SideBuy {
		b.Bids = removeFromSide(b.Bids, orderID, b.orders)
	} else {
		b.Asks = removeFromSide(b.Asks, orderID, b.orders)
	}
	b.orders.Remove(h, o, ordersEqualByID)
	return &o
}

func ordersEqualByID(a, c Order) bool { return a.ID == c.ID }

// GetOrder returns an order by ID, or nil if not found.
func (b *Book) GetOrder(orderID uint64) *Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	h, ok := b.handleByID[orderID]
	if !ok {
		return nil
	}
	o := b.orders.Get(h)
	return &o
}

// ReduceOrder reduces the shares on an order. Returns the remaining shares.
func (b *Book) ReduceOrder(orderID uint64, reduceBy int32) int32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	h, ok := b.handleByID[orderID]
	if !ok {
		return 0
	}
	p := b.orders.Ptr(h)
	p.Shares -= reduceBy
	if p.Shares <= 0 {
		p.Shares = 0
		b.removeOrderLocked(orderID)
		return 0
	}
	return p.Shares
}

// ReplaceOrder replaces an order with a new price/size. Returns the new order.
func (b *Book) ReplaceOrder(oldID uint64, newPrice float64, newShares int32) *Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	old := b.removeOrderLocked(oldID)
	if old == nil {
		return nil
	}

	newOrder := &Order{
		ID:     NextOrderID(),
		Locate: old.Locate,
		Side:   old.Side,
		Price:  newPrice,
		Shares: newShares,
		MPID:   old.MPID,
	}
	b.addOrderLocked(newOrder)
	return newOrder
}

// AllOrders returns all orders in the book (for persistence).
func (b *Book) AllOrders() []*Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	orders := make([]*Order, 0, len(b.handleByID))
	for _, h := range b.handleByID {
		o := b.orders.Get(h)
		orders = append(orders, &o)
	}
	return orders
}

// OrderCount returns the total number of orders in the book.
func (b *Book) OrderCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handleByID)
}

// BidLevels returns the number of bid price levels.
func (b *Book) BidLevels() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.Bids)
}

// AskLevels returns the number of ask price levels.
func (b *Book) AskLevels() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.Asks)
}

// RandomBidOrder returns the idx-th order on the bid side (flattened across
// levels in price-priority order), or nil if idx is out of range.
func (b *Book) RandomBidOrder(idx int) *Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nthOrder(b.Bids, idx)
}

// RandomAskOrder returns the idx-th order on the ask side, or nil.
func (b *Book) RandomAskOrder(idx int) *Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nthOrder(b.Asks, idx)
}

func (b *Book) nthOrder(levels []PriceLevel, idx int) *Order {
	count := 0
	for _, lvl := range levels {
		for _, h := range lvl.Orders {
			if count == idx {
				o := b.orders.Get(h)
				return &o
			}
			count++
		}
	}
	return nil
}

// TotalBidOrders returns the total number of bid orders.
func (b *Book) TotalBidOrders() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, lvl := range b.Bids {
		n += len(lvl.Orders)
	}
	return n
}

// TotalAskOrders returns the total number of ask orders.
func (b *Book) TotalAskOrders() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, lvl := range b.Asks {
		n += len(lvl.Orders)
	}
	return n
}

// RestoreOrder adds an order to the book during state restoration.
// Same as AddOrder but without generating a new ID.
func (b *Book) RestoreOrder(o *Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addOrderLocked(o)
}

// DepthLevel represents aggregated data at a single price level.
type DepthLevel struct {
	Price       float64
	Orders      int
	TotalShares int32
}

// DepthSnapshot is a point-in-time snapshot of the order book.
type DepthSnapshot struct {
	Bids     []DepthLevel
	Asks     []DepthLevel
	BestBid  float64
	BestAsk  float64
	MidPrice float64
	Spread   float64
}

// Depth returns a thread-safe snapshot of the book's bid/ask levels.
func (b *Book) Depth() DepthSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := DepthSnapshot{}

	for _, lvl := range b.Bids {
		var total int32
		for _, h := range lvl.Orders {
			total += b.orders.Get(h).Shares
		}
		snap.Bids = append(snap.Bids, DepthLevel{
			Price:       lvl.Price,
			Orders:      len(lvl.Orders),
			TotalShares: total,
		})
	}

	for _, lvl := range b.Asks {
		var total int32
		for _, h := range lvl.Orders {
			total += b.orders.Get(h).Shares
		}
		snap.Asks = append(snap.Asks, DepthLevel{
			Price:       lvl.Price,
			Orders:      len(lvl.Orders),
			TotalShares: total,
		})
	}

	if len(b.Bids) > 0 {
		snap.BestBid = b.Bids[0].Price
	}
	if len(b.Asks) > 0 {
		snap.BestAsk = b.Asks[0].Price
	}
	if snap.BestBid > 0 && snap.BestAsk > 0 {
		snap.MidPrice = (snap.BestBid + snap.BestAsk) / 2
		snap.Spread = snap.BestAsk - snap.BestBid
	}

	return snap
}

// --- helpers ---

func addToSide(levels []PriceLevel, h pool.Handle, price float64, descending bool) []PriceLevel {
	for i := range levels {
		if levels[i].Price == price {
			levels[i].Orders = append(levels[i].Orders, h)
			return levels
		}
	}

	levels = append(levels, PriceLevel{Price: price, Orders: []pool.Handle{h}})

	if descending {
		sort.Slice(levels, func(i, j int) bool { return levels[i].Price > levels[j].Price })
	} else {
		sort.Slice(levels, func(i, j int) bool { return levels[i].Price < levels[j].Price })
	}

	if len(levels) > MaxLevels {
		levels = levels[:MaxLevels]
	}
	return levels
}

func removeFromSide(levels []PriceLevel, orderID uint64, orders *pool.Pool[Order]) []PriceLevel {
	for i := range levels {
		for j, h := range levels[i].Orders {
			if orders.Get(h).ID == orderID {
				levels[i].Orders = append(levels[i].Orders[:j], levels[i].Orders[j+1:]...)
				if len(levels[i].Orders) == 0 {
					levels = append(levels[:i], levels[i+1:]...)
				}
				return levels
			}
		}
	}
	return levels
}
