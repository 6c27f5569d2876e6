package broker

import "time"

// OrderRequest is what a strategy submits to the engine. The limit price is
// quantized to the instrument's tick before the order enters the book.
type OrderRequest struct {
	Symbol    string
	Direction Direction
	Offset    Offset
	Price     float64
	Volume    float64
}

// Order is a resting limit order in the simulated book. Owned by the book;
// strategies hold only the opaque ID.
type Order struct {
	ID        string
	Symbol    string
	Direction Direction
	Offset    Offset
	Price     float64
	Volume    float64
	Traded    float64
	Status    Status
	Time      time.Time
}

// Trade is a fill produced by the matching unit. Immutable. One order
// produces at most one trade (full fills only).
type Trade struct {
	ID        string
	OrderID   string
	Symbol    string
	Direction Direction
	Offset    Offset
	Price     float64
	Volume    float64
	Time      time.Time
}

// SignedVolume is the position change this trade applies.
func (t Trade) SignedVolume() float64 {
	return t.Direction.Sign() * t.Volume
}
