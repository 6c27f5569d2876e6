// Package journal persists finished backtest runs for later comparison.
package journal

import (
	"time"

	"github.com/quantfold/backsim/broker"
	"github.com/quantfold/backsim/ledger"
)

// Run is one finished backtest run's header row.
type Run struct {
	RunID    string
	Created  time.Time
	Strategy string
	Start    time.Time
	End      time.Time

	Capital     float64
	EndBalance  float64
	TotalNetPnL float64
	MaxDrawdown float64
	SharpeRatio float64
	TotalDays   int
	TradeCount  int
}

// Journal records runs, their trades, and their daily results.
type Journal interface {
	RecordRun(r Run) error
	RecordTrade(runID string, t broker.Trade) error
	RecordDailyResult(runID string, d *ledger.PortfolioDailyResult) error
	Close() error
}
