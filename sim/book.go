package sim

import (
	"fmt"
	"time"

	"github.com/tidwall/btree"

	"github.com/quantfold/backsim/broker"
	"github.com/quantfold/backsim/pkg/id"
)

// Book is the simulated order book for one engine run. It owns every order
// ever submitted during the run; active orders are kept in an ordered map so
// matching always walks them in submission order.
//
// Ids are <runID>-o<seq> and <runID>-t<seq> with zero-padded sequence
// numbers: monotonically increasing, never reused, and lexicographic order
// equals submission order. The ULID run id keeps coexisting engines from
// colliding.
type Book struct {
	runID    string
	orderSeq int
	tradeSeq int

	active   *btree.Map[string, *broker.Order]
	orders   map[string]*broker.Order
	orderLog []string // ids in submission order
	trades   []broker.Trade
}

func NewBook() *Book {
	return &Book{
		runID:  id.New(),
		active: btree.NewMap[string, *broker.Order](16),
		orders: make(map[string]*broker.Order),
	}
}

func (b *Book) RunID() string { return b.runID }

// Submit accepts a new limit order. The price must already be quantized to
// the instrument's tick.
func (b *Book) Submit(req broker.OrderRequest, now time.Time) *broker.Order {
	b.orderSeq++
	o := &broker.Order{
		ID:        fmt.Sprintf("%s-o%08d", b.runID, b.orderSeq),
		Symbol:    req.Symbol,
		Direction: req.Direction,
		Offset:    req.Offset,
		Price:     req.Price,
		Volume:    req.Volume,
		Status:    broker.Submitting,
		Time:      now,
	}

	b.active.Set(o.ID, o)
	b.orders[o.ID] = o
	b.orderLog = append(b.orderLog, o.ID)
	return o
}

// Cancel removes an active order from the book and marks it Cancelled,
// returning it. Cancelling an order that is not active (already filled,
// already cancelled, or unknown) is a no-op and returns nil; this mirrors
// exchange idempotence expectations.
func (b *Book) Cancel(orderID string) *broker.Order {
	o, ok := b.active.Get(orderID)
	if !ok {
		return nil
	}
	b.active.Delete(orderID)
	o.Status = broker.Cancelled
	return o
}

// Active returns the resting orders in submission order.
func (b *Book) Active() []*broker.Order {
	out := make([]*broker.Order, 0, b.active.Len())
	b.active.Scan(func(_ string, o *broker.Order) bool {
		out = append(out, o)
		return true
	})
	return out
}

// Orders returns every order of the run in submission order.
func (b *Book) Orders() []broker.Order {
	out := make([]broker.Order, 0, len(b.orderLog))
	for _, oid := range b.orderLog {
		out = append(out, *b.orders[oid])
	}
	return out
}

// Trades returns every fill of the run in execution order.
func (b *Book) Trades() []broker.Trade {
	out := make([]broker.Trade, len(b.trades))
	copy(out, b.trades)
	return out
}
