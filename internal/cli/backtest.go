package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantfold/backsim/backtest"
	"github.com/quantfold/backsim/config"
	"github.com/quantfold/backsim/journal"
	"github.com/quantfold/backsim/ledger"
	"github.com/quantfold/backsim/market"
	"github.com/quantfold/backsim/stats"
	"github.com/quantfold/backsim/strategies"
)

func newBacktestCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay historical bars through the configured strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBacktest(opts)
		},
	}
	return cmd
}

func runBacktest(opts *rootOptions) error {
	log, err := newLogger(opts.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := config.LoadFromFile(opts.ConfigPath)
	if err != nil {
		return err
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}

	strat, err := strategies.ByName(cfg.Strategy.Name, strategies.Params{
		Fast:   cfg.Strategy.Fast,
		Slow:   cfg.Strategy.Slow,
		Volume: cfg.Strategy.Volume,
	})
	if err != nil {
		return err
	}

	engine := backtest.NewEngine(engineCfg, strat, log)

	source := &market.CSVSource{Dir: opts.DataDir}
	if err := engine.LoadData(source); err != nil {
		return err
	}

	if err := engine.Run(); err != nil {
		return err
	}

	days, err := engine.Finalize()
	if err != nil {
		return err
	}

	summary := stats.Calculate(days, engineCfg.Capital)
	stats.Print(os.Stdout, summary)

	if cfg.Journal.DBPath != "" {
		if err := journalRun(cfg, engine, days, summary); err != nil {
			return err
		}
		fmt.Printf("run %s journaled to %s\n", engine.RunID(), cfg.Journal.DBPath)
	}

	return nil
}

func journalRun(cfg *config.Config, engine *backtest.Engine, days []*ledger.PortfolioDailyResult, summary stats.Summary) error {
	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return err
	}
	defer j.Close()

	start, _ := summary.StartDate.Time()
	end, _ := summary.EndDate.Time()

	run := journal.Run{
		RunID:       engine.RunID(),
		Created:     time.Now().UTC(),
		Strategy:    cfg.Strategy.Name,
		Start:       start,
		End:         end,
		Capital:     summary.Capital,
		EndBalance:  summary.EndBalance,
		TotalNetPnL: summary.TotalNetPnL,
		MaxDrawdown: summary.MaxDrawdown,
		SharpeRatio: summary.SharpeRatio,
		TotalDays:   summary.TotalDays,
		TradeCount:  summary.TotalTradeCount,
	}
	if err := j.RecordRun(run); err != nil {
		return err
	}

	for _, t := range engine.Trades() {
		if err := j.RecordTrade(engine.RunID(), t); err != nil {
			return err
		}
	}
	for _, d := range days {
		if err := j.RecordDailyResult(engine.RunID(), d); err != nil {
			return err
		}
	}
	return nil
}
