// Package stats turns a trade list and a day-by-day equity curve into
// summary performance statistics. Degenerate inputs (no trades, a
// single-point curve, zero volatility) yield zeroed or neutral values
// rather than errors.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/whiterabbit74/stonks-sub000/internal/core"
)

// TradingDaysPerYear is the annualization base for daily return series
const TradingDaysPerYear = 252

// Metrics summarizes backtest performance
type Metrics struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // percent
	TotalReturn   float64 // percent
	CAGR          float64 // percent, from elapsed calendar days
	MaxDrawdown   float64 // percent, peak-to-trough
	AvgWin        float64 // mean pnl of winning trades, 0 when none
	AvgLoss       float64 // mean pnl of losing trades (negative), 0 when none
	ProfitFactor  float64 // gross wins / gross losses; +Inf with no losses, 0 with no wins
	SharpeRatio   float64
	SortinoRatio  float64
	CalmarRatio   float64
}

// Calculate computes metrics from trades and an equity curve. The
// equity curve drives the return, drawdown, and ratio figures; the
// trades drive the win/loss figures.
func Calculate(trades []core.Trade, equity []core.EquityPoint) Metrics {
	m := Metrics{TotalTrades: len(trades)}

	var grossWin, grossLoss, sumWin, sumLoss float64
	for _, t := range trades {
		if t.IsWin() {
			m.WinningTrades++
			grossWin += t.PnL
			sumWin += t.PnL
		} else {
			m.LosingTrades++
			grossLoss += -t.PnL
			sumLoss += t.PnL
		}
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
	}
	if m.WinningTrades > 0 {
		m.AvgWin = sumWin / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = sumLoss / float64(m.LosingTrades)
	}
	switch {
	case grossLoss == 0 && grossWin > 0:
		m.ProfitFactor = math.Inf(1)
	case grossWin == 0:
		m.ProfitFactor = 0
	default:
		m.ProfitFactor = grossWin / grossLoss
	}

	if len(equity) == 0 {
		return m
	}

	initial := equity[0].Value
	final := equity[len(equity)-1].Value
	if initial > 0 {
		m.TotalReturn = (final/initial - 1) * 100
	}
	m.CAGR = cagr(equity)
	m.MaxDrawdown = maxDrawdown(equity)

	returns := dailyReturns(equity)
	m.SharpeRatio = sharpe(returns)
	m.SortinoRatio = sortino(returns)
	if m.MaxDrawdown > 0 {
		m.CalmarRatio = m.CAGR / m.MaxDrawdown
	}

	return m
}

// CalculateFromBars derives an equity curve from trades plus raw bars
// and starting capital, then computes metrics over it
func CalculateFromBars(trades []core.Trade, bars []core.Bar, startCapital float64) Metrics {
	return Calculate(trades, EquityFromTrades(trades, bars, startCapital))
}

// EquityFromTrades builds a curve with one point per bar, marking
// capital flat between trades and stepping it at each exit
func EquityFromTrades(trades []core.Trade, bars []core.Bar, startCapital float64) []core.EquityPoint {
	equity := make([]core.EquityPoint, 0, len(bars))
	capital := startCapital
	next := 0
	for _, bar := range bars {
		for next < len(trades) && !trades[next].ExitDate.After(bar.Date) {
			capital += trades[next].PnL
			next++
		}
		equity = append(equity, core.EquityPoint{Date: bar.Date, Value: capital})
	}
	core.FillDrawdowns(equity)
	return equity
}

func cagr(equity []core.EquityPoint) float64 {
	if len(equity) < 2 {
		return 0
	}
	initial := equity[0].Value
	final := equity[len(equity)-1].Value
	days := core.DaysBetween(equity[0].Date, equity[len(equity)-1].Date)
	if initial <= 0 || final <= 0 || days <= 0 {
		return 0
	}
	return (math.Pow(final/initial, 365.0/float64(days)) - 1) * 100
}

func maxDrawdown(equity []core.EquityPoint) float64 {
	var peak, maxDD float64
	for _, p := range equity {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			dd := (peak - p.Value) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func dailyReturns(equity []core.EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev <= 0 {
			continue
		}
		returns = append(returns, equity[i].Value/prev-1)
	}
	return returns
}

func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := stat.Mean(returns, nil)
	sd := stat.StdDev(returns, nil)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}
	return mean / sd * math.Sqrt(TradingDaysPerYear)
}

func sortino(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := stat.Mean(returns, nil)
	var downside float64
	for _, r := range returns {
		if r < 0 {
			downside += r * r
		}
	}
	dd := math.Sqrt(downside / float64(len(returns)))
	if dd == 0 {
		return 0
	}
	return mean / dd * math.Sqrt(TradingDaysPerYear)
}
