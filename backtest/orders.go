package backtest

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/quantfold/backsim/broker"
	"github.com/quantfold/backsim/market"
)

// SendOrder accepts a limit order from the strategy. The price is quantized
// to the instrument's tick before the order enters the book. Referencing an
// unconfigured symbol refuses just this operation.
func (e *Engine) SendOrder(req broker.OrderRequest) ([]string, error) {
	inst, err := e.cfg.instrument(req.Symbol)
	if err != nil {
		return nil, err
	}

	req.Price = market.RoundToTick(req.Price, inst.PriceTick)
	o := e.book.Submit(req, e.now)

	return []string{o.ID}, nil
}

// CancelOrder cancels an active order. Cancelling an order that already
// filled or was already cancelled is a silent no-op.
func (e *Engine) CancelOrder(orderID string) {
	o := e.book.Cancel(orderID)
	if o == nil {
		return
	}
	e.strategy.UpdateOrder(*o)
}

// WriteLog records a strategy message stamped with the simulation time.
func (e *Engine) WriteLog(msg string) {
	line := fmt.Sprintf("%s\t%s", e.now.Format("2006-01-02 15:04:05"), msg)
	e.logs = append(e.logs, line)
	e.log.Debug("strategy log", zap.String("msg", msg), zap.Time("sim_time", e.now))
}

// UpdateOrder forwards order state changes from matching to the strategy.
func (e *Engine) UpdateOrder(o broker.Order) {
	e.strategy.UpdateOrder(o)
}

// UpdateTrade records a fill in the ledger and notifies the strategy.
func (e *Engine) UpdateTrade(t broker.Trade) {
	e.ledger.RecordTrade(t)
	e.strategy.UpdateTrade(t)
}
