package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/whiterabbit74/stonks-sub000/internal/config"
	"github.com/whiterabbit74/stonks-sub000/internal/core"
	"github.com/whiterabbit74/stonks-sub000/internal/loader"
	"github.com/whiterabbit74/stonks-sub000/internal/logger"
	"github.com/whiterabbit74/stonks-sub000/internal/options"
	"github.com/whiterabbit74/stonks-sub000/internal/runner"
)

var batchOptions bool

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run backtests for every symbol in the config",
	Long:  "Run the IBS rule for every symbol listed under data.files, in parallel, and show per-symbol statistics",
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().BoolVar(&batchOptions, "options", false, "Also run the pooled multi-ticker options overlay")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if len(cfg.Data.Files) == 0 {
		return core.ErrConfigMissing
	}

	log := logger.Must(cfg.Logging.Development || debug)
	defer log.Sync()

	symbols := make([]string, 0, len(cfg.Data.Files))
	for sym := range cfg.Data.Files {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	params := strategyParams(cfg)
	series := make(map[string][]core.Bar, len(symbols))
	jobs := make([]runner.Job, 0, len(symbols))
	for _, sym := range symbols {
		bars, err := loader.LoadCSV(cfg.Data.Files[sym])
		if err != nil {
			return fmt.Errorf("loading %s: %w", sym, err)
		}
		series[sym] = bars
		jobs = append(jobs, runner.Job{Symbol: sym, Bars: bars, Params: params})
	}

	outcomes := runner.Run(context.Background(), jobs, cfg.Runner.Workers, log)

	fmt.Println("=== stonks batch ===")
	fmt.Println("Symbol    Trades  WinRate  Return%   CAGR%    MaxDD%   Sharpe")
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Printf("%-8s  failed: %v\n", o.Symbol, o.Err)
			continue
		}
		m := o.Metrics
		fmt.Printf("%-8s  %-6d  %-6.1f  %-8.2f  %-7.2f  %-7.2f  %.2f\n",
			o.Symbol, m.TotalTrades, m.WinRate, m.TotalReturn, m.CAGR, m.MaxDrawdown, m.SharpeRatio)
	}

	if batchOptions || cfg.Options.Enabled {
		trades := make(map[string][]core.Trade, len(outcomes))
		for _, o := range outcomes {
			if o.Err == nil {
				trades[o.Symbol] = o.Result.Trades
			}
		}
		mp := options.MultiParams{
			Params:      optionParams(cfg, params.InitialCapital),
			MissingData: options.MissingDataPolicy(cfg.Options.MissingData),
		}
		sim := options.NewMulti(mp, log)
		res, err := sim.Run(series, trades, options.NewVolCache())
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Printf("Pooled options overlay: %d call trade(s), final value %.2f, max drawdown %.2f%%\n",
			len(res.Trades), res.FinalValue, res.MaxDrawdown)
	}

	return nil
}
