package market

import (
	"fmt"
	"time"
)

// Bar is one OHLC sample for a single instrument over one interval.
// Bars are immutable once loaded.
type Bar struct {
	Symbol string
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Interval is the bar granularity of a dataset.
type Interval string

const (
	Minute Interval = "1m"
	Hour   Interval = "1h"
	Daily  Interval = "1d"
)

func (i Interval) Duration() time.Duration {
	switch i {
	case Minute:
		return time.Minute
	case Hour:
		return time.Hour
	case Daily:
		return 24 * time.Hour
	}
	return 0
}

func ParseInterval(s string) (Interval, error) {
	switch Interval(s) {
	case Minute, Hour, Daily:
		return Interval(s), nil
	}
	return "", fmt.Errorf("market: unknown interval %q (supported: 1m, 1h, 1d)", s)
}
