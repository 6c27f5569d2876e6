// Package ledger accumulates per-instrument, per-date accounting during a
// replay and folds it into a strictly ordered daily portfolio series.
package ledger

import (
	"fmt"
	"sort"

	"github.com/tidwall/btree"

	"github.com/quantfold/backsim/broker"
	"github.com/quantfold/backsim/market"
)

// Ledger collects closing prices and trades per date during replay.
// Nothing is derived until Finalize, which threads pre-close and position
// state forward date by date. One ledger belongs to one engine run; there is
// no intra-run concurrency.
type Ledger struct {
	days *btree.Map[string, *PortfolioDailyResult]
}

func New() *Ledger {
	return &Ledger{days: btree.NewMap[string, *PortfolioDailyResult](8)}
}

func (l *Ledger) day(d Date) *PortfolioDailyResult {
	p, ok := l.days.Get(string(d))
	if !ok {
		p = newPortfolioDailyResult(d)
		l.days.Set(string(d), p)
	}
	return p
}

// RecordClose notes the instrument's closing price for the date. Multiple
// bars share a date on intraday intervals; the last write wins.
func (l *Ledger) RecordClose(d Date, symbol string, closePrice float64) {
	p := l.day(d)
	p.Closes[symbol] = closePrice
	p.result(symbol).Close = closePrice
}

// RecordTrade appends a fill to its instrument's record for the trade date.
func (l *Ledger) RecordTrade(t broker.Trade) {
	d := DateOf(t.Time)
	r := l.day(d).result(t.Symbol)
	r.Trades = append(r.Trades, t)
}

// Len reports how many dates the ledger covers.
func (l *Ledger) Len() int { return l.days.Len() }

// Finalize computes every daily result in ascending date order, carrying
// each instrument's close price and closing position into the next date.
// The very first date (and any instrument never seen before) starts from a
// zero position.
//
// All derived state is recomputed from the raw trades and closes, so calling
// Finalize repeatedly yields identical output. An instrument with no
// configuration entry is a configuration error.
func (l *Ledger) Finalize(instruments map[string]market.Instrument) ([]*PortfolioDailyResult, error) {
	preCloses := make(map[string]float64)
	startPoses := make(map[string]float64)

	out := make([]*PortfolioDailyResult, 0, l.days.Len())
	var ferr error

	l.days.Scan(func(_ string, p *PortfolioDailyResult) bool {
		p.TradeCount = 0
		p.Turnover = 0
		p.Commission = 0
		p.Slippage = 0
		p.TradingPnL = 0
		p.HoldingPnL = 0
		p.TotalPnL = 0
		p.NetPnL = 0

		for _, symbol := range sortedSymbols(p.Results) {
			inst, ok := instruments[symbol]
			if !ok {
				ferr = fmt.Errorf("ledger: no instrument configuration for %q", symbol)
				return false
			}

			r := p.Results[symbol]
			r.calculate(preCloses[symbol], startPoses[symbol], inst)

			preCloses[symbol] = r.Close
			startPoses[symbol] = r.EndPos

			p.sum(r)
		}

		out = append(out, p)
		return true
	})
	if ferr != nil {
		return nil, ferr
	}

	return out, nil
}

func sortedSymbols(m map[string]*DailyResult) []string {
	symbols := make([]string, 0, len(m))
	for s := range m {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
