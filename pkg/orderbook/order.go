package orderbook

import "fmt"

// Side of an order: Bid buys, Ask sells.
type Side int8

const (
	Bid Side = 1
	Ask Side = -1
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	default:
		return "unknown"
	}
}

// OrderType distinguishes resting-capable limit orders from
// sweep-only market orders.
type OrderType int8

const (
	Limit OrderType = iota
	Market
)

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "limit"
	case Market:
		return "market"
	default:
		return "unknown"
	}
}

// Order is one unit of trading intent. Qty is the remaining size in
// integer lots; it only ever decreases, and the order is filled exactly
// when Qty reaches zero. Price is meaningful for limit orders only.
type Order struct {
	ID    string
	Side  Side
	Type  OrderType
	Price Price
	Qty   int64
}

// NewLimitOrder validates and builds a resting-capable order.
// The ID may be empty; the engine assigns one before placement.
func NewLimitOrder(id string, side Side, price Price, qty int64) (*Order, error) {
	if err := validateSideQty(side, qty); err != nil {
		return nil, err
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: limit order needs a positive price, got %s", ErrInvalidPrice, price)
	}
	return &Order{ID: id, Side: side, Type: Limit, Price: price, Qty: qty}, nil
}

// NewMarketOrder validates and builds a sweep-only order with no price bound.
func NewMarketOrder(id string, side Side, qty int64) (*Order, error) {
	if err := validateSideQty(side, qty); err != nil {
		return nil, err
	}
	return &Order{ID: id, Side: side, Type: Market, Qty: qty}, nil
}

// Filled reports whether the order has no remaining quantity.
func (o *Order) Filled() bool { return o.Qty == 0 }

func validateSideQty(side Side, qty int64) error {
	if side != Bid && side != Ask {
		return fmt.Errorf("%w: unknown side %d", ErrInvalidOrder, side)
	}
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidOrder, qty)
	}
	return nil
}
