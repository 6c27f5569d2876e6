// Package stats derives summary statistics from a finalized daily portfolio
// series. Everything here is post-hoc arithmetic over the ledger export; the
// replay core never depends on it.
package stats

import (
	"math"

	"github.com/quantfold/backsim/ledger"
)

// tradingDaysPerYear annualizes returns on the futures-market convention.
const tradingDaysPerYear = 240

// Summary is the aggregate view of one backtest run.
type Summary struct {
	StartDate ledger.Date
	EndDate   ledger.Date

	TotalDays  int
	ProfitDays int
	LossDays   int

	Capital    float64
	EndBalance float64

	MaxDrawdown         float64
	MaxDDPercent        float64
	MaxDrawdownDuration int // calendar days from peak to trough

	TotalNetPnL float64
	DailyNetPnL float64

	TotalCommission float64
	DailyCommission float64

	TotalSlippage float64
	DailySlippage float64

	TotalTurnover float64
	DailyTurnover float64

	TotalTradeCount int
	DailyTradeCount float64

	TotalReturn  float64 // percent
	AnnualReturn float64 // percent
	DailyReturn  float64 // mean daily log return, percent
	ReturnStd    float64 // percent

	SharpeRatio         float64
	ReturnDrawdownRatio float64
}

// Calculate computes the summary for a daily series and starting capital.
// An empty series yields the zero Summary. Non-finite intermediate values
// (zero capital, zero variance) are clamped to 0 rather than propagated.
func Calculate(days []*ledger.PortfolioDailyResult, capital float64) Summary {
	var s Summary
	if len(days) == 0 {
		return s
	}

	s.StartDate = days[0].Date
	s.EndDate = days[len(days)-1].Date
	s.TotalDays = len(days)
	s.Capital = capital

	balances := make([]float64, len(days))
	returns := make([]float64, len(days))
	drawdowns := make([]float64, len(days))

	balance := capital
	high := math.Inf(-1)
	maxDDIdx := 0

	for i, d := range days {
		if d.NetPnL > 0 {
			s.ProfitDays++
		} else if d.NetPnL < 0 {
			s.LossDays++
		}

		prev := balance
		balance += d.NetPnL
		balances[i] = balance

		if prev > 0 && balance > 0 {
			returns[i] = math.Log(balance / prev)
		}
		if balance > high {
			high = balance
		}
		drawdowns[i] = balance - high
		if drawdowns[i] < drawdowns[maxDDIdx] {
			maxDDIdx = i
		}

		s.TotalNetPnL += d.NetPnL
		s.TotalCommission += d.Commission
		s.TotalSlippage += d.Slippage
		s.TotalTurnover += d.Turnover
		s.TotalTradeCount += d.TradeCount
	}

	s.EndBalance = balance
	s.MaxDrawdown = drawdowns[maxDDIdx]

	ddHigh := balances[maxDDIdx] - drawdowns[maxDDIdx]
	if ddHigh != 0 {
		s.MaxDDPercent = s.MaxDrawdown / ddHigh * 100
	}
	s.MaxDrawdownDuration = drawdownDuration(days, balances, maxDDIdx)

	n := float64(s.TotalDays)
	s.DailyNetPnL = s.TotalNetPnL / n
	s.DailyCommission = s.TotalCommission / n
	s.DailySlippage = s.TotalSlippage / n
	s.DailyTurnover = s.TotalTurnover / n
	s.DailyTradeCount = float64(s.TotalTradeCount) / n

	if capital != 0 {
		s.TotalReturn = (s.EndBalance/capital - 1) * 100
		s.AnnualReturn = s.TotalReturn / n * tradingDaysPerYear
	}
	s.DailyReturn = mean(returns) * 100
	s.ReturnStd = stddev(returns) * 100

	pnls := make([]float64, len(days))
	for i, d := range days {
		pnls[i] = d.NetPnL
	}
	if sd := stddev(pnls); sd != 0 {
		s.SharpeRatio = s.DailyNetPnL / sd * math.Sqrt(tradingDaysPerYear)
	}
	if s.MaxDrawdown != 0 {
		s.ReturnDrawdownRatio = -s.TotalNetPnL / s.MaxDrawdown
	}

	s.sanitize()
	return s
}

// drawdownDuration measures calendar days between the balance peak preceding
// the max drawdown trough and the trough itself.
func drawdownDuration(days []*ledger.PortfolioDailyResult, balances []float64, trough int) int {
	peak := 0
	for i := 1; i <= trough; i++ {
		if balances[i] > balances[peak] {
			peak = i
		}
	}

	peakTime, err1 := days[peak].Date.Time()
	troughTime, err2 := days[trough].Date.Time()
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(troughTime.Sub(peakTime).Hours() / 24)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// sanitize clamps non-finite ratios to zero so a degenerate run exports
// clean numbers.
func (s *Summary) sanitize() {
	for _, f := range []*float64{
		&s.MaxDrawdown, &s.MaxDDPercent,
		&s.DailyNetPnL, &s.DailyCommission, &s.DailySlippage,
		&s.DailyTurnover, &s.DailyTradeCount,
		&s.TotalReturn, &s.AnnualReturn, &s.DailyReturn, &s.ReturnStd,
		&s.SharpeRatio, &s.ReturnDrawdownRatio,
	} {
		if math.IsNaN(*f) || math.IsInf(*f, 0) {
			*f = 0
		}
	}
}
