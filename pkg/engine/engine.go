// Package engine routes orders to per-instrument books and fans
// executed trades out to registered sinks. There is exactly one book
// behavior; books differ only by the pair that keys them.
package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dkimq/matchbook/pkg/orderbook"
	"github.com/dkimq/matchbook/pkg/util"
)

// Engine owns one OrderBook per registered trading pair.
//
// The registry lock only guards the pair -> book mapping; each book
// serializes its own mutations, so placements on independent pairs
// proceed in parallel while a single book stays single-writer.
type Engine struct {
	mu    sync.RWMutex
	books map[string]*market
	pairs map[string]TradingPair

	sinkMu sync.RWMutex
	sinks  []TradeSink

	clock util.Clock
	log   *zap.SugaredLogger
}

// market pairs a book with its emission lock. Holding emitMu across
// the placement and its fan-out keeps the published trade stream in
// the same order as book execution.
type market struct {
	book   *orderbook.OrderBook
	emitMu sync.Mutex
}

// New creates an engine with no registered pairs.
func New(log *zap.SugaredLogger) *Engine {
	return &Engine{
		books: make(map[string]*market),
		pairs: make(map[string]TradingPair),
		clock: util.RealClock{},
		log:   log,
	}
}

// SetClock replaces the wall clock; used by tests for deterministic
// trade timestamps.
func (e *Engine) SetClock(c util.Clock) { e.clock = c }

// AddSink registers a trade consumer. Sinks receive every trade in
// execution order, after the book mutation completes.
func (e *Engine) AddSink(s TradeSink) {
	e.sinkMu.Lock()
	defer e.sinkMu.Unlock()
	e.sinks = append(e.sinks, s)
}

// RegisterPair opens an empty order book for a new pair. Registering
// the same pair twice fails with ErrPairExists.
func (e *Engine) RegisterPair(pair TradingPair) error {
	if pair.Base == "" || pair.Quote == "" {
		return fmt.Errorf("cannot register pair with empty base or quote")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	symbol := pair.Symbol()
	if _, exists := e.books[symbol]; exists {
		return fmt.Errorf("%w: %s", ErrPairExists, symbol)
	}

	e.books[symbol] = &market{book: orderbook.NewOrderBook()}
	e.pairs[symbol] = pair
	e.log.Infow("pair_registered", "symbol", symbol)
	return nil
}

// Pairs lists all registered pairs.
func (e *Engine) Pairs() []TradingPair {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]TradingPair, 0, len(e.pairs))
	for _, p := range e.pairs {
		out = append(out, p)
	}
	return out
}

// PlaceLimit matches a limit order against the pair's book and rests
// any remainder. An empty order ID is replaced with a fresh UUID; the
// effective ID travels back to the caller on the order itself.
func (e *Engine) PlaceLimit(pair TradingPair, o *orderbook.Order) (orderbook.FillOutcome, error) {
	if o == nil || o.Type != orderbook.Limit || o.Qty <= 0 {
		return orderbook.FillOutcome{}, fmt.Errorf("%w: PlaceLimit needs a valid limit order", orderbook.ErrInvalidOrder)
	}
	return e.place(pair, o)
}

// PlaceMarket sweeps the opposite side of the pair's book. The order
// never rests: insufficient liquidity shows up as RemainingQty, which
// is a normal outcome, not an error.
func (e *Engine) PlaceMarket(pair TradingPair, o *orderbook.Order) (orderbook.FillOutcome, error) {
	if o == nil || o.Type != orderbook.Market || o.Qty <= 0 {
		return orderbook.FillOutcome{}, fmt.Errorf("%w: PlaceMarket needs a valid market order", orderbook.ErrInvalidOrder)
	}
	return e.place(pair, o)
}

func (e *Engine) place(pair TradingPair, o *orderbook.Order) (orderbook.FillOutcome, error) {
	m, ok := e.market(pair)
	if !ok {
		return orderbook.FillOutcome{}, fmt.Errorf("%w: %s", ErrUnknownPair, pair.Symbol())
	}

	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	// Placement and emission happen under one per-pair lock so that
	// sinks observe trades in book execution order.
	m.emitMu.Lock()
	out, err := m.book.Place(o)
	if err == nil && len(out.Fills) > 0 {
		e.emit(pair, o.Side, out.Fills)
	}
	m.emitMu.Unlock()

	if err != nil {
		return orderbook.FillOutcome{}, err
	}

	e.log.Infow("order_placed",
		"symbol", pair.Symbol(),
		"order_id", o.ID,
		"side", o.Side.String(),
		"type", o.Type.String(),
		"filled", out.FilledQty,
		"remaining", out.RemainingQty)

	return out, nil
}

// Cancel removes a resting order by ID.
func (e *Engine) Cancel(pair TradingPair, orderID string) error {
	m, ok := e.market(pair)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPair, pair.Symbol())
	}
	if !m.book.Cancel(orderID) {
		return fmt.Errorf("%w: %s on %s", ErrOrderNotFound, orderID, pair.Symbol())
	}
	e.log.Infow("order_cancelled", "symbol", pair.Symbol(), "order_id", orderID)
	return nil
}

// Depth returns the aggregated levels of both sides, bids high-to-low
// and asks low-to-high.
func (e *Engine) Depth(pair TradingPair) (bids, asks []orderbook.PriceLevel, err error) {
	m, ok := e.market(pair)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPair, pair.Symbol())
	}
	return m.book.BidLevels(), m.book.AskLevels(), nil
}

// BestPrices returns the current best bid and ask for a pair.
func (e *Engine) BestPrices(pair TradingPair) (bid orderbook.Price, bidOK bool, ask orderbook.Price, askOK bool, err error) {
	m, ok := e.market(pair)
	if !ok {
		return 0, false, 0, false, fmt.Errorf("%w: %s", ErrUnknownPair, pair.Symbol())
	}
	bid, bidOK = m.book.BestBid()
	ask, askOK = m.book.BestAsk()
	return bid, bidOK, ask, askOK, nil
}

func (e *Engine) market(pair TradingPair) (*market, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.books[pair.Symbol()]
	return m, ok
}

// emit converts fills into trades and fans them out. Sink failures are
// logged and never surfaced to the order placer.
func (e *Engine) emit(pair TradingPair, takerSide orderbook.Side, fills []orderbook.Fill) {
	now := e.clock.Now().UnixMilli()
	symbol := pair.Symbol()

	e.sinkMu.RLock()
	defer e.sinkMu.RUnlock()

	for _, f := range fills {
		t := Trade{
			ID:           uuid.NewString(),
			Symbol:       symbol,
			TakerOrderID: f.TakerID,
			MakerOrderID: f.MakerID,
			TakerSide:    takerSide.String(),
			Price:        f.Price,
			Qty:          f.Qty,
			Timestamp:    now,
		}
		for _, s := range e.sinks {
			if err := s.PublishTrade(t); err != nil {
				e.log.Warnw("trade_sink_failed", "symbol", symbol, "trade_id", t.ID, "err", err)
			}
		}
	}
}
