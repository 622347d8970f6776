package orderbook

// level is the FIFO queue of orders resting at one exact price on one
// side. Orders are matched strictly in arrival order (price-time
// priority). Levels are created lazily on first use and must be pruned
// from the book the moment the last order leaves; an empty level must
// never be visible to best-price queries.
type level struct {
	price  Price
	orders []*Order
}

func newLevel(price Price) *level {
	return &level{price: price, orders: make([]*Order, 0, 4)}
}

func (l *level) add(o *Order) {
	l.orders = append(l.orders, o)
}

// match consumes resting orders front-first until the taker is filled
// or the level is empty. Fully consumed makers are removed and their
// IDs returned so the book can drop them from its cancel index; a
// partially consumed maker stays at the front with its quantity
// reduced. Every execution is appended to fills for trade reporting.
func (l *level) match(taker *Order, fills []Fill) ([]Fill, []string) {
	var done []string
	for taker.Qty > 0 && len(l.orders) > 0 {
		maker := l.orders[0]
		qty := min(taker.Qty, maker.Qty)
		if qty <= 0 {
			// A resting order with non-positive quantity means the
			// pruning invariant was broken upstream.
			panic("orderbook: non-positive execution quantity")
		}

		taker.Qty -= qty
		maker.Qty -= qty
		fills = append(fills, Fill{
			TakerID: taker.ID,
			MakerID: maker.ID,
			Price:   l.price,
			Qty:     qty,
		})

		if maker.Filled() {
			l.orders = l.orders[1:]
			done = append(done, maker.ID)
		}
	}
	return fills, done
}

// remove deletes the resting order with the given ID, preserving FIFO
// order of the rest. Returns false if the ID is not at this level.
func (l *level) remove(id string) bool {
	for i, o := range l.orders {
		if o.ID == id {
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
			return true
		}
	}
	return false
}

// totalQty is the resting volume at this price: the sum of remaining
// order quantities, zero for an empty level.
func (l *level) totalQty() int64 {
	var sum int64
	for _, o := range l.orders {
		sum += o.Qty
	}
	return sum
}

func (l *level) empty() bool { return len(l.orders) == 0 }

func min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
