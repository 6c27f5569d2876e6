package ledger

import (
	"time"

	"github.com/quantfold/backsim/broker"
	"github.com/quantfold/backsim/market"
)

// Date is a calendar date in "2006-01-02" form. Lexicographic order equals
// chronological order, which is what keys the ledger's ordered map.
type Date string

const dateLayout = "2006-01-02"

func DateOf(t time.Time) Date {
	return Date(t.UTC().Format(dateLayout))
}

// Time returns midnight UTC of the date.
func (d Date) Time() (time.Time, error) {
	return time.ParseInLocation(dateLayout, string(d), time.UTC)
}

// DailyResult is the accounting record for one instrument on one date.
// Trades and the closing price accumulate during replay; every derived
// field is computed by a single Finalize pass.
type DailyResult struct {
	Date   Date
	Symbol string

	PreClose float64
	Close    float64

	StartPos float64
	EndPos   float64

	Trades     []broker.Trade
	TradeCount int

	Turnover   float64
	Commission float64
	Slippage   float64

	TradingPnL float64
	HoldingPnL float64
	TotalPnL   float64
	NetPnL     float64
}

// calculate derives the day's accounting from its trades and closing price,
// seeded with the previous date's close and closing position. It resets
// every derived field first so repeated passes are idempotent.
//
// Trading PnL attributes each trade's gain from fill price to the day's
// close; holding PnL is the carry on the position held into the day.
func (r *DailyResult) calculate(preClose, startPos float64, inst market.Instrument) {
	r.PreClose = preClose
	r.StartPos = startPos
	r.EndPos = startPos
	r.TradeCount = len(r.Trades)

	r.Turnover = 0
	r.Commission = 0
	r.Slippage = 0
	r.TradingPnL = 0

	for _, t := range r.Trades {
		posChange := t.SignedVolume()
		r.EndPos += posChange

		turnover := t.Price * t.Volume * inst.Size
		r.Turnover += turnover
		r.Commission += turnover * inst.Rate
		r.Slippage += t.Volume * inst.Size * inst.Slippage

		r.TradingPnL += posChange * (r.Close - t.Price) * inst.Size
	}

	r.HoldingPnL = startPos * (r.Close - preClose) * inst.Size
	r.TotalPnL = r.TradingPnL + r.HoldingPnL
	r.NetPnL = r.TotalPnL - r.Commission - r.Slippage
}

// PortfolioDailyResult aggregates every instrument's DailyResult for one
// date, plus the per-symbol close map that seeds the next date's pre-close.
type PortfolioDailyResult struct {
	Date    Date
	Closes  map[string]float64
	Results map[string]*DailyResult

	TradeCount int
	Turnover   float64
	Commission float64
	Slippage   float64
	TradingPnL float64
	HoldingPnL float64
	TotalPnL   float64
	NetPnL     float64
}

func newPortfolioDailyResult(d Date) *PortfolioDailyResult {
	return &PortfolioDailyResult{
		Date:    d,
		Closes:  make(map[string]float64),
		Results: make(map[string]*DailyResult),
	}
}

// result returns the per-symbol record, creating the shell lazily.
func (p *PortfolioDailyResult) result(symbol string) *DailyResult {
	r, ok := p.Results[symbol]
	if !ok {
		r = &DailyResult{Date: p.Date, Symbol: symbol}
		p.Results[symbol] = r
	}
	return r
}

// sum folds one finalized instrument result into the portfolio totals.
func (p *PortfolioDailyResult) sum(r *DailyResult) {
	p.TradeCount += r.TradeCount
	p.Turnover += r.Turnover
	p.Commission += r.Commission
	p.Slippage += r.Slippage
	p.TradingPnL += r.TradingPnL
	p.HoldingPnL += r.HoldingPnL
	p.TotalPnL += r.TotalPnL
	p.NetPnL += r.NetPnL
}
