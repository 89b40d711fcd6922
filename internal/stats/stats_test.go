package stats

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whiterabbit74/stonks-sub000/internal/core"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func tradeWithPnL(pnl float64) core.Trade {
	return core.Trade{PnL: pnl}
}

func TestCalculate_ProfitFactorEdgeCases(t *testing.T) {
	t.Run("all winners", func(t *testing.T) {
		m := Calculate([]core.Trade{tradeWithPnL(10), tradeWithPnL(5)}, nil)
		assert.True(t, math.IsInf(m.ProfitFactor, 1))
		assert.Equal(t, 100.0, m.WinRate)
		assert.InDelta(t, 7.5, m.AvgWin, 1e-9)
		assert.Equal(t, 0.0, m.AvgLoss)
	})

	t.Run("all losers", func(t *testing.T) {
		m := Calculate([]core.Trade{tradeWithPnL(-10), tradeWithPnL(-5)}, nil)
		assert.Equal(t, 0.0, m.ProfitFactor)
		assert.Equal(t, 0.0, m.WinRate)
		assert.Equal(t, 0.0, m.AvgWin)
		assert.InDelta(t, -7.5, m.AvgLoss, 1e-9)
	})

	t.Run("mixed", func(t *testing.T) {
		m := Calculate([]core.Trade{tradeWithPnL(30), tradeWithPnL(-10)}, nil)
		assert.InDelta(t, 3.0, m.ProfitFactor, 1e-9)
		assert.Equal(t, 50.0, m.WinRate)
	})

	t.Run("no trades", func(t *testing.T) {
		m := Calculate(nil, nil)
		assert.Equal(t, 0, m.TotalTrades)
		assert.Equal(t, 0.0, m.WinRate)
		assert.Equal(t, 0.0, m.ProfitFactor)
	})
}

func TestCalculate_DegenerateCurves(t *testing.T) {
	t.Run("empty curve", func(t *testing.T) {
		m := Calculate(nil, nil)
		assert.Equal(t, 0.0, m.TotalReturn)
		assert.Equal(t, 0.0, m.CAGR)
		assert.Equal(t, 0.0, m.MaxDrawdown)
	})

	t.Run("single point has no elapsed time", func(t *testing.T) {
		m := Calculate(nil, []core.EquityPoint{{Date: day(1), Value: 10000}})
		assert.Equal(t, 0.0, m.CAGR)
		assert.Equal(t, 0.0, m.TotalReturn)
		assert.Equal(t, 0.0, m.SharpeRatio)
	})

	t.Run("flat curve has zero ratios", func(t *testing.T) {
		equity := []core.EquityPoint{
			{Date: day(1), Value: 10000},
			{Date: day(2), Value: 10000},
			{Date: day(3), Value: 10000},
		}
		m := Calculate(nil, equity)
		assert.Equal(t, 0.0, m.SharpeRatio, "zero volatility is undefined, not an error")
		assert.Equal(t, 0.0, m.SortinoRatio)
		assert.Equal(t, 0.0, m.CalmarRatio)
		assert.Equal(t, 0.0, m.MaxDrawdown)
	})
}

func TestCalculate_ReturnsAndDrawdown(t *testing.T) {
	equity := []core.EquityPoint{
		{Date: day(1), Value: 10000},
		{Date: day(100), Value: 12000},
		{Date: day(200), Value: 9000},
		{Date: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), Value: 11000},
	}
	m := Calculate(nil, equity)

	assert.InDelta(t, 10.0, m.TotalReturn, 1e-9)
	assert.InDelta(t, 25.0, m.MaxDrawdown, 1e-9) // 12000 -> 9000

	days := core.DaysBetween(equity[0].Date, equity[len(equity)-1].Date)
	wantCAGR := (math.Pow(1.1, 365.0/float64(days)) - 1) * 100
	assert.InDelta(t, wantCAGR, m.CAGR, 1e-9)
	assert.InDelta(t, m.CAGR/m.MaxDrawdown, m.CalmarRatio, 1e-9)
}

func TestCalculate_SortinoUsesDownsideOnly(t *testing.T) {
	equity := []core.EquityPoint{
		{Date: day(1), Value: 10000},
		{Date: day(2), Value: 10500},
		{Date: day(3), Value: 10200},
		{Date: day(4), Value: 10800},
	}
	m := Calculate(nil, equity)
	assert.NotEqual(t, 0.0, m.SharpeRatio)
	assert.NotEqual(t, 0.0, m.SortinoRatio)
	// only one losing day: downside deviation < total deviation, so
	// sortino magnifies the same mean return
	assert.Greater(t, m.SortinoRatio, m.SharpeRatio)
}

func TestEquityFromTrades(t *testing.T) {
	bars := []core.Bar{
		{Date: day(1)}, {Date: day(2)}, {Date: day(3)}, {Date: day(4)}, {Date: day(5)},
	}
	trades := []core.Trade{
		{EntryDate: day(2), ExitDate: day(3), PnL: 100},
		{EntryDate: day(4), ExitDate: day(5), PnL: -50},
	}

	equity := EquityFromTrades(trades, bars, 10000)
	require.Len(t, equity, len(bars))

	// capital is flat between trades and steps at each exit
	assert.Equal(t, 10000.0, equity[0].Value)
	assert.Equal(t, 10000.0, equity[1].Value)
	assert.Equal(t, 10100.0, equity[2].Value)
	assert.Equal(t, 10100.0, equity[3].Value)
	assert.Equal(t, 10050.0, equity[4].Value)

	assert.Equal(t, 0.0, equity[2].Drawdown)
	assert.InDelta(t, 100*50.0/10100.0, equity[4].Drawdown, 1e-9)
}

func TestCalculateFromBars(t *testing.T) {
	bars := []core.Bar{{Date: day(1)}, {Date: day(2)}, {Date: day(3)}}
	trades := []core.Trade{{EntryDate: day(1), ExitDate: day(2), PnL: 500}}

	m := CalculateFromBars(trades, bars, 10000)
	assert.InDelta(t, 5.0, m.TotalReturn, 1e-9)
	assert.Equal(t, 1, m.WinningTrades)
}
