// Package runner fans independent backtests out over a bounded worker
// pool. Each job is a deterministic function of its inputs, so runs
// are embarrassingly parallel.
package runner

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/whiterabbit74/stonks-sub000/internal/backtest"
	"github.com/whiterabbit74/stonks-sub000/internal/core"
	"github.com/whiterabbit74/stonks-sub000/internal/stats"
)

// Job is one backtest to run: a symbol's bar series plus parameters
type Job struct {
	Symbol string
	Bars   []core.Bar
	Params backtest.Params
}

// Outcome pairs a job with its result, metrics, or error
type Outcome struct {
	Symbol  string
	Result  *backtest.Result
	Metrics stats.Metrics
	Err     error
}

// Run executes all jobs with at most workers running concurrently and
// returns outcomes in job order. A canceled context marks the
// remaining jobs with ctx.Err() instead of running them.
func Run(ctx context.Context, jobs []Job, workers int, logger *zap.Logger) []Outcome {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}

	outcomes := make([]Outcome, len(jobs))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				job := jobs[i]
				if err := ctx.Err(); err != nil {
					outcomes[i] = Outcome{Symbol: job.Symbol, Err: err}
					continue
				}

				engine := backtest.NewEngine(job.Params, logger)
				result, err := engine.Run(job.Symbol, job.Bars)
				if err != nil {
					logger.Warn("backtest failed",
						zap.String("symbol", job.Symbol),
						zap.Error(err),
					)
					outcomes[i] = Outcome{Symbol: job.Symbol, Err: err}
					continue
				}
				outcomes[i] = Outcome{
					Symbol:  job.Symbol,
					Result:  result,
					Metrics: stats.Calculate(result.Trades, result.Equity),
				}
			}
		}()
	}

	for i := range jobs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return outcomes
}
