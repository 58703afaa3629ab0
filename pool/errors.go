package pool

import "errors"

// ErrPoolExhausted is returned by Checkout when a key already has
// MaxPerKey connections idle or in flight.
var ErrPoolExhausted = errors.New("pool: key at capacity")

// ErrCircuitOpen is returned by Checkout when the per-key circuit breaker
// is open, suppressing dial attempts to a destination that has recently
// failed repeatedly.
var ErrCircuitOpen = errors.New("pool: circuit open for key")
