package orderbook

import "errors"

var (
	// ErrInvalidPrice is returned when a price is negative or not
	// representable at tick resolution.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInvalidOrder is returned for an order with a non-positive
	// quantity or an unknown side.
	ErrInvalidOrder = errors.New("invalid order")
)
