package market

import (
	"github.com/shopspring/decimal"
)

// Instrument holds the per-instrument simulation parameters. Every symbol a
// backtest touches must be configured explicitly; there are no global defaults.
type Instrument struct {
	Symbol    string
	Size      float64 // contract multiplier
	Rate      float64 // commission rate applied to turnover
	Slippage  float64 // modeled cost per unit traded
	PriceTick float64 // minimum price increment
}

// RoundToTick quantizes price to the nearest multiple of tick.
// Decimal arithmetic avoids the float64 drift that bites right at tick
// boundaries (e.g. 0.1-sized ticks). A tick of zero leaves price untouched.
func RoundToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	p := decimal.NewFromFloat(price)
	t := decimal.NewFromFloat(tick)
	q := p.Div(t).Round(0).Mul(t)
	return q.InexactFloat64()
}
