package strategies

import (
	"fmt"
	"sort"

	"github.com/quantfold/backsim/backtest"
	"github.com/quantfold/backsim/broker"
	"github.com/quantfold/backsim/market"
)

// SMACross trades a fast/slow moving-average crossover per symbol: long one
// clip when the fast average is above the slow one, short when below. Orders
// are limit orders at the current close.
//
// Matching runs during warm-up too, so the strategy gates itself on the
// engine state and only submits once trading has started.
type SMACross struct {
	Fast   int
	Slow   int
	Volume float64

	closes    map[string][]float64
	positions map[string]float64
	pending   map[string][]string
}

func NewSMACross(fast, slow int, volume float64) *SMACross {
	if fast <= 0 {
		fast = 5
	}
	if slow <= fast {
		slow = fast * 4
	}
	if volume <= 0 {
		volume = 1
	}
	return &SMACross{
		Fast:      fast,
		Slow:      slow,
		Volume:    volume,
		closes:    make(map[string][]float64),
		positions: make(map[string]float64),
		pending:   make(map[string][]string),
	}
}

func (s *SMACross) OnInit(e *backtest.Engine) error {
	e.WriteLog(fmt.Sprintf("sma-cross init fast=%d slow=%d volume=%.0f", s.Fast, s.Slow, s.Volume))
	return nil
}

func (s *SMACross) OnStart(e *backtest.Engine) error {
	e.WriteLog("sma-cross trading started")
	return nil
}

func (s *SMACross) OnBars(e *backtest.Engine, bars map[string]market.Bar) error {
	symbols := make([]string, 0, len(bars))
	for symbol := range bars {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		bar := bars[symbol]

		window := append(s.closes[symbol], bar.Close)
		if len(window) > s.Slow {
			window = window[len(window)-s.Slow:]
		}
		s.closes[symbol] = window

		if e.State() != backtest.Trading || len(window) < s.Slow {
			continue
		}

		fast := mean(window[len(window)-s.Fast:])
		slow := mean(window)

		target := s.Volume
		if fast < slow {
			target = -s.Volume
		}

		diff := target - s.positions[symbol]
		if diff == 0 {
			continue
		}

		// replace any resting orders with one sized to the new target
		for _, oid := range s.pending[symbol] {
			e.CancelOrder(oid)
		}

		req := broker.OrderRequest{
			Symbol:    symbol,
			Direction: broker.Long,
			Offset:    broker.Open,
			Price:     bar.Close,
			Volume:    diff,
		}
		if diff < 0 {
			req.Direction = broker.Short
			req.Volume = -diff
		}

		ids, err := e.SendOrder(req)
		if err != nil {
			return err
		}
		s.pending[symbol] = append(s.pending[symbol], ids...)
	}

	return nil
}

func (s *SMACross) UpdateOrder(o broker.Order) {
	if o.Status.Active() {
		return
	}
	rest := s.pending[o.Symbol][:0]
	for _, oid := range s.pending[o.Symbol] {
		if oid != o.ID {
			rest = append(rest, oid)
		}
	}
	s.pending[o.Symbol] = rest
}

func (s *SMACross) UpdateTrade(t broker.Trade) {
	s.positions[t.Symbol] += t.SignedVolume()
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
