package stats

import (
	"fmt"
	"io"
)

// Print writes the summary as a plain text report.
func Print(w io.Writer, s Summary) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Summary")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "First trading day:   %s\n", s.StartDate)
	fmt.Fprintf(w, "Last trading day:    %s\n", s.EndDate)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total days:          %d\n", s.TotalDays)
	fmt.Fprintf(w, "Profit days:         %d\n", s.ProfitDays)
	fmt.Fprintf(w, "Loss days:           %d\n", s.LossDays)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Starting capital:    %.2f\n", s.Capital)
	fmt.Fprintf(w, "Ending balance:      %.2f\n", s.EndBalance)
	fmt.Fprintf(w, "Total return:        %.2f%%\n", s.TotalReturn)
	fmt.Fprintf(w, "Annualized return:   %.2f%%\n", s.AnnualReturn)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Max drawdown:        %.2f\n", s.MaxDrawdown)
	fmt.Fprintf(w, "Max drawdown pct:    %.2f%%\n", s.MaxDDPercent)
	fmt.Fprintf(w, "Drawdown duration:   %d days\n", s.MaxDrawdownDuration)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total net PnL:       %.2f\n", s.TotalNetPnL)
	fmt.Fprintf(w, "Total commission:    %.2f\n", s.TotalCommission)
	fmt.Fprintf(w, "Total slippage:      %.2f\n", s.TotalSlippage)
	fmt.Fprintf(w, "Total turnover:      %.2f\n", s.TotalTurnover)
	fmt.Fprintf(w, "Total trades:        %d\n", s.TotalTradeCount)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Daily net PnL:       %.2f\n", s.DailyNetPnL)
	fmt.Fprintf(w, "Daily commission:    %.2f\n", s.DailyCommission)
	fmt.Fprintf(w, "Daily slippage:      %.2f\n", s.DailySlippage)
	fmt.Fprintf(w, "Daily turnover:      %.2f\n", s.DailyTurnover)
	fmt.Fprintf(w, "Daily trades:        %.2f\n", s.DailyTradeCount)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Daily return:        %.2f%%\n", s.DailyReturn)
	fmt.Fprintf(w, "Return std dev:      %.2f%%\n", s.ReturnStd)
	fmt.Fprintf(w, "Sharpe ratio:        %.2f\n", s.SharpeRatio)
	fmt.Fprintf(w, "Return/drawdown:     %.2f\n", s.ReturnDrawdownRatio)
}
