package orderbook

import (
	"container/heap"
	"fmt"
	"sort"
	"sync"
)

// Fill records one execution against a resting order: who was
// consumed, at which level price, and by how much.
type Fill struct {
	TakerID string
	MakerID string
	Price   Price
	Qty     int64
}

// FillOutcome is what a placement reports back to the caller. A
// partially filled (or wholly unfilled) order is a normal outcome, not
// an error; RemainingQty says how much liquidity was missing.
type FillOutcome struct {
	FilledQty    int64
	RemainingQty int64
	Fills        []Fill
}

// PriceLevel is an aggregated snapshot of one resting price: the exact
// price and the total volume queued there.
type PriceLevel struct {
	Price Price
	Qty   int64
}

// orderRef locates a resting order for O(1) cancellation lookups.
type orderRef struct {
	side  Side
	price Price
}

// OrderBook holds the resting liquidity for a single instrument.
//
// Each side keeps a map from price to FIFO level plus a price heap, so
// the best price is always an O(1) peek and matching sweeps levels
// strictly best-price-first: bids descending, asks ascending. Map
// iteration order never drives matching.
//
// The book is single-writer: every mutating operation takes the book
// mutex, which serializes placements and cancellations and keeps
// price-time priority well defined. Independent instruments have
// independent books and share no state.
type OrderBook struct {
	mu sync.RWMutex

	bidHeap *maxPriceHeap
	askHeap *minPriceHeap

	bids map[Price]*level
	asks map[Price]*level

	// Resting order ID -> location, for cancellation without a book scan.
	index map[string]orderRef
}

// NewOrderBook creates an empty book.
func NewOrderBook() *OrderBook {
	bidHeap := &maxPriceHeap{}
	askHeap := &minPriceHeap{}
	heap.Init(bidHeap)
	heap.Init(askHeap)

	return &OrderBook{
		bidHeap: bidHeap,
		askHeap: askHeap,
		bids:    make(map[Price]*level),
		asks:    make(map[Price]*level),
		index:   make(map[string]orderRef),
	}
}

// Place executes an incoming order against the book.
//
// Limit orders match first against the opposite side at crossing prices
// (bid >= best ask, ask <= best bid) and only the unfilled remainder is
// rested. Market orders sweep the opposite side with no price bound and
// never rest; whatever liquidity is missing is reported as remaining.
//
// An order whose ID is already resting is rejected with ErrInvalidOrder
// before any matching: the cancel index maps each ID to exactly one
// resting order, and a duplicate would overwrite the original's entry.
// The passed order's Qty is consumed in place.
func (ob *OrderBook) Place(o *Order) (FillOutcome, error) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if _, exists := ob.index[o.ID]; exists {
		return FillOutcome{}, fmt.Errorf("%w: order id %q is already resting", ErrInvalidOrder, o.ID)
	}

	orig := o.Qty
	var fills []Fill

	if o.Side == Bid {
		fills = ob.sweepAsks(o, fills)
	} else {
		fills = ob.sweepBids(o, fills)
	}

	if o.Qty > 0 && o.Type == Limit {
		ob.rest(o)
	}

	return FillOutcome{
		FilledQty:    orig - o.Qty,
		RemainingQty: o.Qty,
		Fills:        fills,
	}, nil
}

// sweepAsks fills a buying taker against asks, lowest price first.
func (ob *OrderBook) sweepAsks(taker *Order, fills []Fill) []Fill {
	for taker.Qty > 0 {
		if ob.askHeap.Len() == 0 {
			break
		}
		best := ob.askHeap.peek()
		if taker.Type != Market && best > taker.Price {
			break
		}
		lv := ob.asks[best]
		if lv == nil || lv.empty() {
			// Stale heap entry; heal and retry.
			ob.dropAskLevel(best)
			continue
		}

		var done []string
		fills, done = lv.match(taker, fills)
		for _, id := range done {
			delete(ob.index, id)
		}
		if lv.empty() {
			ob.dropAskLevel(best)
		}
	}
	return fills
}

// sweepBids fills a selling taker against bids, highest price first.
func (ob *OrderBook) sweepBids(taker *Order, fills []Fill) []Fill {
	for taker.Qty > 0 {
		if ob.bidHeap.Len() == 0 {
			break
		}
		best := ob.bidHeap.peek()
		if taker.Type != Market && best < taker.Price {
			break
		}
		lv := ob.bids[best]
		if lv == nil || lv.empty() {
			ob.dropBidLevel(best)
			continue
		}

		var done []string
		fills, done = lv.match(taker, fills)
		for _, id := range done {
			delete(ob.index, id)
		}
		if lv.empty() {
			ob.dropBidLevel(best)
		}
	}
	return fills
}

// rest queues the order's remainder at its price level, creating the
// level on first use. The book keeps its own copy so later caller
// mutations cannot corrupt resting state.
func (ob *OrderBook) rest(o *Order) {
	cp := *o

	if cp.Side == Bid {
		lv := ob.bids[cp.Price]
		if lv == nil {
			lv = newLevel(cp.Price)
			ob.bids[cp.Price] = lv
			heap.Push(ob.bidHeap, cp.Price)
		}
		lv.add(&cp)
	} else {
		lv := ob.asks[cp.Price]
		if lv == nil {
			lv = newLevel(cp.Price)
			ob.asks[cp.Price] = lv
			heap.Push(ob.askHeap, cp.Price)
		}
		lv.add(&cp)
	}

	ob.index[cp.ID] = orderRef{side: cp.Side, price: cp.Price}
}

// Cancel removes a resting order by ID. Returns false when the ID is
// unknown, already filled, or already cancelled.
func (ob *OrderBook) Cancel(id string) bool {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ref, ok := ob.index[id]
	if !ok {
		return false
	}
	delete(ob.index, id)

	if ref.side == Bid {
		lv := ob.bids[ref.price]
		if lv == nil || !lv.remove(id) {
			return false
		}
		if lv.empty() {
			ob.dropBidLevel(ref.price)
		}
	} else {
		lv := ob.asks[ref.price]
		if lv == nil || !lv.remove(id) {
			return false
		}
		if lv.empty() {
			ob.dropAskLevel(ref.price)
		}
	}
	return true
}

// BestBid returns the highest resting bid price, if any.
func (ob *OrderBook) BestBid() (Price, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	if ob.bidHeap.Len() == 0 {
		return 0, false
	}
	return ob.bidHeap.peek(), true
}

// BestAsk returns the lowest resting ask price, if any.
func (ob *OrderBook) BestAsk() (Price, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	if ob.askHeap.Len() == 0 {
		return 0, false
	}
	return ob.askHeap.peek(), true
}

// BidLevels returns aggregated bid levels sorted high to low (best bid
// first).
func (ob *OrderBook) BidLevels() []PriceLevel {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	levels := make([]PriceLevel, 0, len(ob.bids))
	for price, lv := range ob.bids {
		levels = append(levels, PriceLevel{Price: price, Qty: lv.totalQty()})
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price > levels[j].Price })
	return levels
}

// AskLevels returns aggregated ask levels sorted low to high (best ask
// first).
func (ob *OrderBook) AskLevels() []PriceLevel {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	levels := make([]PriceLevel, 0, len(ob.asks))
	for price, lv := range ob.asks {
		levels = append(levels, PriceLevel{Price: price, Qty: lv.totalQty()})
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price < levels[j].Price })
	return levels
}

// OpenOrders reports how many orders are resting on both sides.
func (ob *OrderBook) OpenOrders() int {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return len(ob.index)
}

// dropBidLevel prunes an emptied bid level: map entry plus heap entry.
// The heap scan is linear but levels empty out one price at a time.
func (ob *OrderBook) dropBidLevel(price Price) {
	delete(ob.bids, price)
	for i := 0; i < ob.bidHeap.Len(); i++ {
		if (*ob.bidHeap)[i] == price {
			heap.Remove(ob.bidHeap, i)
			return
		}
	}
}

// dropAskLevel prunes an emptied ask level.
func (ob *OrderBook) dropAskLevel(price Price) {
	delete(ob.asks, price)
	for i := 0; i < ob.askHeap.Len(); i++ {
		if (*ob.askHeap)[i] == price {
			heap.Remove(ob.askHeap, i)
			return
		}
	}
}
