package backtest

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quantfold/backsim/market"
)

// BarSource supplies historical bars. Implementations must return bars
// ascending in time and attributed to the requested symbol; the CSV source
// in the market package is the stock implementation.
type BarSource interface {
	LoadBars(symbol string, interval market.Interval, start, end time.Time) ([]market.Bar, error)
}

// loadWindow bounds how much data one LoadBars call may span, so sources
// backed by remote stores can page and the engine can report progress.
const loadWindow = 30 * 24 * time.Hour

// LoadData pulls every configured symbol's bars from the source in bounded
// windows and indexes them for replay. The timeline is the sorted set of
// distinct bar timestamps across all symbols.
//
// A span with start >= end is a configuration error: nothing is loaded and
// the subsequent replay is a no-op over an empty timeline.
func (e *Engine) LoadData(source BarSource) error {
	if !e.cfg.Start.Before(e.cfg.End) {
		return ErrInvalidSpan
	}

	step := e.cfg.Interval.Duration()
	if step <= 0 {
		return fmt.Errorf("backtest: invalid interval %q", e.cfg.Interval)
	}

	for _, symbol := range e.cfg.Symbols {
		if _, err := e.cfg.instrument(symbol); err != nil {
			return err
		}

		count := 0
		winStart := e.cfg.Start
		for winStart.Before(e.cfg.End) {
			winEnd := winStart.Add(loadWindow)
			if winEnd.After(e.cfg.End) {
				winEnd = e.cfg.End
			}

			bars, err := source.LoadBars(symbol, e.cfg.Interval, winStart, winEnd)
			if err != nil {
				return fmt.Errorf("backtest: load %s bars: %w", symbol, err)
			}

			for _, bar := range bars {
				e.dts.Insert(bar.Time.UnixNano())
				e.history[barKey{ts: bar.Time.UnixNano(), symbol: symbol}] = bar
				count++
			}

			e.log.Debug("loaded bar window",
				zap.String("symbol", symbol),
				zap.Time("from", winStart),
				zap.Time("to", winEnd),
				zap.Int("bars", len(bars)))

			winStart = winEnd.Add(step)
		}

		e.log.Info("historical data loaded",
			zap.String("symbol", symbol),
			zap.Int("bars", count))
	}

	return nil
}
