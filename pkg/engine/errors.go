package engine

import "errors"

var (
	// ErrUnknownPair is returned for operations on a pair that was
	// never registered. No state is mutated in that case.
	ErrUnknownPair = errors.New("unknown trading pair")

	// ErrPairExists is returned when registering a pair twice.
	// Re-registration is an error rather than a silent replacement:
	// replacing a live book would destroy its resting liquidity.
	ErrPairExists = errors.New("trading pair already registered")

	// ErrOrderNotFound is returned when cancelling an order that is
	// not resting (unknown ID, already filled, or already cancelled).
	ErrOrderNotFound = errors.New("order not found")
)
