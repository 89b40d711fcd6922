package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/whiterabbit74/stonks-sub000/internal/backtest"
	"github.com/whiterabbit74/stonks-sub000/internal/config"
	"github.com/whiterabbit74/stonks-sub000/internal/core"
	"github.com/whiterabbit74/stonks-sub000/internal/loader"
	"github.com/whiterabbit74/stonks-sub000/internal/logger"
	"github.com/whiterabbit74/stonks-sub000/internal/margin"
	"github.com/whiterabbit74/stonks-sub000/internal/options"
	"github.com/whiterabbit74/stonks-sub000/internal/stats"
)

var (
	backtestCSV     string
	backtestSymbol  string
	backtestMargin  bool
	backtestOptions bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run the IBS rule against a CSV bar series",
	Long:  "Run the IBS mean-reversion rule against historical daily bars and show performance statistics",
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestCSV, "csv", "", "CSV bar file (required)")
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Ticker symbol (required)")
	backtestCmd.Flags().BoolVar(&backtestMargin, "margin", false, "Replay trades under margin leverage")
	backtestCmd.Flags().BoolVar(&backtestOptions, "options", false, "Replay trades as a long-call overlay")

	backtestCmd.MarkFlagRequired("csv")
	backtestCmd.MarkFlagRequired("symbol")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	log := logger.Must(cfg.Logging.Development || debug)
	defer log.Sync()

	bars, err := loader.LoadCSV(backtestCSV)
	if err != nil {
		return err
	}

	params := strategyParams(cfg)
	engine := backtest.NewEngine(params, log)
	result, err := engine.Run(backtestSymbol, bars)
	if err != nil {
		return err
	}

	fmt.Println("=== stonks backtest ===")
	fmt.Printf("Symbol: %s  Bars: %d  Trades: %d\n", backtestSymbol, len(bars), len(result.Trades))
	fmt.Println()

	trades := result.Trades
	equity := result.Equity

	if backtestMargin || cfg.Margin.Enabled {
		sim := margin.New(margin.Params{
			InitialCapital:       params.InitialCapital,
			Leverage:             cfg.Margin.Leverage,
			MaintenanceMarginPct: cfg.Margin.MaintenanceMarginPct,
			CapitalUsagePct:      params.CapitalUsagePct,
		}, log)
		mres, err := sim.Run(trades, bars)
		if err != nil {
			return err
		}
		trades = mres.Trades
		equity = mres.Equity
		fmt.Printf("Margin replay: leverage %.1fx, %d liquidation(s)\n",
			cfg.Margin.Leverage, len(mres.Liquidations))
		for _, l := range mres.Liquidations {
			fmt.Printf("  %s  %s  drop %.2f%%\n",
				l.Date.Format("2006-01-02"), l.Type, l.PositionDropPct)
		}
		fmt.Println()
	}

	if backtestOptions || cfg.Options.Enabled {
		sim := options.New(optionParams(cfg, params.InitialCapital), log)
		ores, err := sim.Run(backtestSymbol, trades, bars, options.NewVolCache())
		if err != nil {
			return err
		}
		fmt.Printf("Options overlay: %d call trade(s), final value %.2f\n", len(ores.Trades), ores.FinalValue)
		printMetrics(optionMetrics(ores))
		fmt.Println()
	}

	printMetrics(stats.Calculate(trades, equity))
	printTrades(trades)
	return nil
}

func strategyParams(cfg *config.Config) backtest.Params {
	p := backtest.Params{
		LowIBS:          cfg.Strategy.LowIBS,
		HighIBS:         cfg.Strategy.HighIBS,
		MaxHoldDays:     cfg.Strategy.MaxHoldDays,
		CapitalUsagePct: cfg.Strategy.CapitalUsagePct,
		InitialCapital:  cfg.Strategy.InitialCapital,
	}
	switch {
	case cfg.Strategy.CommissionFixed > 0 && cfg.Strategy.CommissionPercent > 0:
		p.Commission = backtest.CombinedCommission{
			PerTrade: cfg.Strategy.CommissionFixed,
			Percent:  cfg.Strategy.CommissionPercent,
		}
	case cfg.Strategy.CommissionFixed > 0:
		p.Commission = backtest.FixedCommission{PerTrade: cfg.Strategy.CommissionFixed}
	case cfg.Strategy.CommissionPercent > 0:
		p.Commission = backtest.PercentCommission{Percent: cfg.Strategy.CommissionPercent}
	}
	return p
}

func optionParams(cfg *config.Config, initialCapital float64) options.Params {
	p := options.Params{
		StrikePct:       cfg.Options.StrikePct,
		VolAdjPct:       cfg.Options.VolAdjPct,
		CapitalPct:      cfg.Options.CapitalPct,
		DefaultRate:     cfg.Options.RiskFreeRate,
		ExpirationWeeks: cfg.Options.ExpirationWeeks,
		MaxHoldingDays:  cfg.Options.MaxHoldingDays,
		InitialCapital:  initialCapital,
		VolWindow:       cfg.Options.VolWindow,
	}
	if len(cfg.Options.RateTable) > 0 {
		p.Rate = options.RateTable(cfg.Options.RateTable)
	}
	return p
}

func optionMetrics(res *options.Result) stats.Metrics {
	plain := make([]core.Trade, 0, len(res.Trades))
	for _, t := range res.Trades {
		plain = append(plain, t.Trade)
	}
	return stats.Calculate(plain, res.Equity)
}

func printMetrics(m stats.Metrics) {
	fmt.Printf("Trades:        %d (%d W / %d L, win rate %.1f%%)\n",
		m.TotalTrades, m.WinningTrades, m.LosingTrades, m.WinRate)
	fmt.Printf("Total return:  %.2f%%   CAGR: %.2f%%\n", m.TotalReturn, m.CAGR)
	fmt.Printf("Max drawdown:  %.2f%%\n", m.MaxDrawdown)
	fmt.Printf("Avg win/loss:  %.2f / %.2f   Profit factor: %.2f\n", m.AvgWin, m.AvgLoss, m.ProfitFactor)
	fmt.Printf("Sharpe: %.2f   Sortino: %.2f   Calmar: %.2f\n",
		m.SharpeRatio, m.SortinoRatio, m.CalmarRatio)
}

func printTrades(trades []core.Trade) {
	if len(trades) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Entry       Exit        Entry$    Exit$     PnL        PnL%     Days  Reason")
	for _, t := range trades {
		fmt.Printf("%s  %s  %-8.2f  %-8.2f  %-9.2f  %-7.2f  %-4d  %s\n",
			t.EntryDate.Format("2006-01-02"), t.ExitDate.Format("2006-01-02"),
			t.EntryPrice, t.ExitPrice, t.PnL, t.PnLPercent, t.Duration, t.ExitReason)
	}
}
