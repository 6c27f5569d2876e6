package sim

import (
	"fmt"
	"time"

	"github.com/quantfold/backsim/broker"
	"github.com/quantfold/backsim/market"
)

// Events receives the order and trade updates produced while crossing.
// The replay engine implements it to forward notifications to the strategy
// and record fills in the ledger.
type Events interface {
	UpdateOrder(o broker.Order)
	UpdateTrade(t broker.Trade)
}

// Cross matches the active orders against the current bars, one instrument
// bar per order. Orders whose symbol has no bar in the snapshot rest
// untouched until data appears.
//
// Per order:
//   - a Submitting order first transitions to NotTraded (one bar of exchange
//     acknowledgment latency) and the update is pushed even when the order
//     fills on the same bar, so observers always see the two-step transition
//   - a long fills when order.Price >= bar.Low and bar.Low > 0, at
//     min(order.Price, bar.Open); a short fills when order.Price <= bar.High
//     and bar.High > 0, at max(order.Price, bar.Open). The > 0 guard keeps
//     degenerate bars from matching.
//   - fills are always for the full volume; the order leaves the active set
//     as AllTraded and exactly one Trade is emitted.
func (b *Book) Cross(bars map[string]market.Bar, now time.Time, ev Events) {
	for _, o := range b.Active() {
		bar, ok := bars[o.Symbol]
		if !ok {
			continue
		}

		if o.Status == broker.Submitting {
			o.Status = broker.NotTraded
			ev.UpdateOrder(*o)
		}

		longCross := o.Direction == broker.Long &&
			o.Price >= bar.Low && bar.Low > 0
		shortCross := o.Direction == broker.Short &&
			o.Price <= bar.High && bar.High > 0

		if !longCross && !shortCross {
			continue
		}

		o.Traded = o.Volume
		o.Status = broker.AllTraded
		ev.UpdateOrder(*o)
		b.active.Delete(o.ID)

		price := o.Price
		if longCross {
			// never trade worse than the bid, and take a favorable gap open
			price = min(o.Price, bar.Open)
		} else {
			price = max(o.Price, bar.Open)
		}

		b.tradeSeq++
		trade := broker.Trade{
			ID:        fmt.Sprintf("%s-t%08d", b.runID, b.tradeSeq),
			OrderID:   o.ID,
			Symbol:    o.Symbol,
			Direction: o.Direction,
			Offset:    o.Offset,
			Price:     price,
			Volume:    o.Volume,
			Time:      now,
		}
		b.trades = append(b.trades, trade)
		ev.UpdateTrade(trade)
	}
}
