package strategies

import (
	"github.com/quantfold/backsim/backtest"
	"github.com/quantfold/backsim/broker"
	"github.com/quantfold/backsim/market"
)

// Noop never trades. Useful as a baseline and for exercising the replay
// plumbing in tests.
type Noop struct{}

func (Noop) OnInit(e *backtest.Engine) error  { return nil }
func (Noop) OnStart(e *backtest.Engine) error { return nil }

func (Noop) OnBars(e *backtest.Engine, bars map[string]market.Bar) error { return nil }

func (Noop) UpdateOrder(o broker.Order) {}
func (Noop) UpdateTrade(t broker.Trade) {}
