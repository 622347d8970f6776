package engine

import "github.com/dkimq/matchbook/pkg/orderbook"

// Trade is one execution between an incoming (taker) order and a
// resting (maker) order, as reported to downstream consumers: the
// journal, the WebSocket stream, and the optional Kafka feed.
type Trade struct {
	ID           string
	Symbol       string
	TakerOrderID string
	MakerOrderID string
	TakerSide    string // "bid" or "ask"
	Price        orderbook.Price
	Qty          int64
	Timestamp    int64 // unix milliseconds
}

// TradeSink consumes trades after the book mutation has completed.
// Sinks must not block for long; slow transports should buffer
// internally. A sink error is logged by the engine, never propagated
// back to the order placer.
type TradeSink interface {
	PublishTrade(Trade) error
}
