package api

// Request and response types for the REST endpoints and WebSocket
// messages. Prices travel as exact decimal strings on the wire.

// ==============================
// REST Response Types
// ==============================

// MarketInfo describes one tradable pair.
type MarketInfo struct {
	Symbol     string `json:"symbol"`     // e.g. "BTC-USDT"
	BaseAsset  string `json:"baseAsset"`  // e.g. "BTC"
	QuoteAsset string `json:"quoteAsset"` // e.g. "USDT"
}

// PriceLevel is one aggregated [price, qty] level.
type PriceLevel struct {
	Price string `json:"price"`
	Qty   int64  `json:"qty"`
}

// OrderbookSnapshot is the aggregated book at query time.
type OrderbookSnapshot struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"` // high to low
	Asks      []PriceLevel `json:"asks"` // low to high
	Timestamp int64        `json:"timestamp"` // unix ms
}

// TradeInfo is one executed trade.
type TradeInfo struct {
	ID           string `json:"id"`
	Symbol       string `json:"symbol"`
	Price        string `json:"price"`
	Qty          int64  `json:"qty"`
	TakerSide    string `json:"takerSide"` // "bid" or "ask"
	TakerOrderID string `json:"takerOrderId"`
	MakerOrderID string `json:"makerOrderId"`
	Timestamp    int64  `json:"timestamp"` // unix ms
}

// FillInfo is one execution produced by an order submission.
type FillInfo struct {
	MakerOrderID string `json:"makerOrderId"`
	Price        string `json:"price"`
	Qty          int64  `json:"qty"`
}

// SubmitOrderResponse reports what an order did on arrival.
type SubmitOrderResponse struct {
	OrderID      string     `json:"orderId"`
	Symbol       string     `json:"symbol"`
	FilledQty    int64      `json:"filledQty"`
	RemainingQty int64      `json:"remainingQty"`
	Fills        []FillInfo `json:"fills"`
}

// CancelOrderResponse acknowledges a cancellation.
type CancelOrderResponse struct {
	Status  string `json:"status"` // "cancelled"
	OrderID string `json:"orderId"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// REST Request Types
// ==============================

// SubmitOrderRequest is the payload for POST /api/v1/orders.
type SubmitOrderRequest struct {
	Symbol string `json:"symbol"`
	Side   string `json:"side"` // "buy" or "sell"
	Type   string `json:"type"` // "limit" or "market"
	Price  string `json:"price,omitempty"` // required for limit orders
	Qty    int64  `json:"qty"`
	// Optional client-supplied order ID; one is assigned when empty.
	OrderID string `json:"orderId,omitempty"`
}

// CancelOrderRequest is the payload for POST /api/v1/orders/cancel.
type CancelOrderRequest struct {
	Symbol  string `json:"symbol"`
	OrderID string `json:"orderId"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by a client to manage channel
// subscriptions, e.g. {"op":"subscribe","channels":["trades:BTC-USDT"]}.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// TradeUpdate is broadcast on the "trades:<symbol>" channel when a
// trade executes.
type TradeUpdate struct {
	Type      string `json:"type"` // "trade"
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Qty       int64  `json:"qty"`
	TakerSide string `json:"takerSide"`
	Timestamp int64  `json:"timestamp"`
}
