package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whiterabbit74/stonks-sub000/internal/core"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func bar(d int, o, h, l, c float64) core.Bar {
	return core.Bar{Date: day(d), Open: o, High: h, Low: l, Close: c, Volume: 1000}
}

func TestEngine_EntryAndSignalExit(t *testing.T) {
	bars := []core.Bar{
		bar(1, 105, 110, 100, 100), // IBS 0 -> entry signal for next bar
		bar(2, 100, 105, 95, 100),  // entry executes at this close, IBS 0.5
		bar(3, 100, 105, 100, 105), // IBS 1 -> exit signal for next bar
		bar(4, 105, 112, 104, 110), // exit executes at this close
	}

	engine := NewEngine(DefaultParams())
	result, err := engine.Run("TEST", bars)
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	tr := result.Trades[0]
	assert.Equal(t, day(2), tr.EntryDate)
	assert.Equal(t, day(4), tr.ExitDate)
	assert.Equal(t, 100.0, tr.EntryPrice)
	assert.Equal(t, 110.0, tr.ExitPrice)
	assert.Equal(t, core.ExitSignal, tr.ExitReason)
	assert.Equal(t, 2, tr.Duration)
	assert.InDelta(t, 100.0, tr.Quantity, 1e-9) // 10000 / 100
	assert.InDelta(t, 1000.0, tr.PnL, 1e-9)
	assert.InDelta(t, 10.0, tr.PnLPercent, 1e-9)

	assert.InDelta(t, 11000.0, result.FinalValue, 1e-9)
	assert.Len(t, result.Equity, len(bars))
	assert.Equal(t, "TEST", tr.Symbol)
	assert.NotEmpty(t, tr.ID)
	assert.InDelta(t, 11000.0, tr.Context["capitalAfterExit"].(float64), 1e-9)
}

func TestEngine_ZeroRangeBarDecidesNextBarOnly(t *testing.T) {
	bars := []core.Bar{
		bar(1, 100, 105, 95, 100),    // IBS 0.5, no trigger
		bar(2, 100, 100, 100, 100),   // zero range: IBS 0, cannot trigger on its own bar
		bar(3, 100, 105, 95, 101),    // entry executes here, on the previous bar's IBS
		bar(4, 101, 106, 100, 106),   // IBS 1 -> exit next bar
		bar(5, 106, 108, 104, 107),
	}

	engine := NewEngine(DefaultParams())
	result, err := engine.Run("TEST", bars)
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	assert.Equal(t, day(3), result.Trades[0].EntryDate, "entry must wait for the bar after the zero-range signal bar")
}

func TestEngine_MaxHoldExit(t *testing.T) {
	// entry signal, then a flat drift that never reaches the exit IBS
	bars := []core.Bar{bar(1, 105, 110, 100, 100)}
	for d := 2; d <= 40; d++ {
		bars = append(bars, bar(d, 100, 105, 95, 100)) // IBS 0.5
	}

	params := DefaultParams()
	params.LowIBS = 0.10
	params.MaxHoldDays = 10
	engine := NewEngine(params)

	result, err := engine.Run("TEST", bars)
	require.NoError(t, err)
	require.NotEmpty(t, result.Trades)

	first := result.Trades[0]
	assert.Equal(t, core.ExitMaxHold, first.ExitReason)
	assert.Equal(t, 10, first.Duration)
	assert.Equal(t, day(2), first.EntryDate)
	assert.Equal(t, day(12), first.ExitDate)
}

func TestEngine_EndOfDataExit(t *testing.T) {
	bars := []core.Bar{
		bar(1, 105, 110, 100, 100), // IBS 0
		bar(2, 100, 105, 95, 100),  // entry
		bar(3, 100, 105, 95, 103),  // series ends while holding
	}

	engine := NewEngine(DefaultParams())
	result, err := engine.Run("TEST", bars)
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	tr := result.Trades[0]
	assert.Equal(t, core.ExitEndOfData, tr.ExitReason)
	assert.Equal(t, day(3), tr.ExitDate)
	assert.Equal(t, 103.0, tr.ExitPrice)
}

func TestEngine_Commission(t *testing.T) {
	bars := []core.Bar{
		bar(1, 105, 110, 100, 100),
		bar(2, 100, 105, 95, 100),
		bar(3, 100, 105, 100, 105),
		bar(4, 105, 112, 104, 110),
	}

	tests := []struct {
		name    string
		model   CommissionModel
		wantPnL float64
	}{
		{"fixed", FixedCommission{PerTrade: 5}, 995},
		{"percent of notional", PercentCommission{Percent: 1}, 900}, // 1% of 10000
		{"combined", CombinedCommission{PerTrade: 5, Percent: 1}, 895},
		{"nil model is free", nil, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			params.Commission = tt.model
			result, err := NewEngine(params).Run("TEST", bars)
			require.NoError(t, err)
			require.Len(t, result.Trades, 1)
			assert.InDelta(t, tt.wantPnL, result.Trades[0].PnL, 1e-9)
		})
	}
}

func TestEngine_CapitalUsage(t *testing.T) {
	bars := []core.Bar{
		bar(1, 105, 110, 100, 100),
		bar(2, 100, 105, 95, 100),
		bar(3, 100, 105, 100, 105),
		bar(4, 105, 112, 104, 110),
	}

	params := DefaultParams()
	params.CapitalUsagePct = 50
	result, err := NewEngine(params).Run("TEST", bars)
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	tr := result.Trades[0]
	assert.InDelta(t, 50.0, tr.Quantity, 1e-9) // 5000 / 100
	assert.InDelta(t, 5000.0, tr.Context["invested"].(float64), 1e-9)
	assert.InDelta(t, 10500.0, result.FinalValue, 1e-9)
}

func TestEngine_RejectsInvalidSeries(t *testing.T) {
	bars := []core.Bar{bar(2, 100, 105, 95, 100), bar(1, 100, 105, 95, 100)}
	_, err := NewEngine(DefaultParams()).Run("TEST", bars)
	assert.ErrorIs(t, err, core.ErrBarsUnsorted)
}

func TestEngine_EmptySeries(t *testing.T) {
	result, err := NewEngine(DefaultParams()).Run("TEST", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
	assert.Empty(t, result.Equity)
	assert.InDelta(t, 10000.0, result.FinalValue, 1e-9)
}

func TestEngine_TradesDoNotOverlap(t *testing.T) {
	// two complete entry/exit cycles
	bars := []core.Bar{
		bar(1, 105, 110, 100, 100), // IBS 0
		bar(2, 100, 105, 95, 100),  // entry 1
		bar(3, 100, 105, 100, 105), // IBS 1
		bar(4, 105, 112, 104, 110), // exit 1
		bar(5, 110, 115, 105, 105), // IBS 0
		bar(6, 105, 110, 100, 104), // entry 2
		bar(7, 104, 108, 104, 108), // IBS 1
		bar(8, 108, 112, 106, 111), // exit 2
	}

	result, err := NewEngine(DefaultParams()).Run("TEST", bars)
	require.NoError(t, err)
	require.Len(t, result.Trades, 2)

	for i := 1; i < len(result.Trades); i++ {
		prev, cur := result.Trades[i-1], result.Trades[i]
		assert.False(t, cur.EntryDate.Before(prev.ExitDate),
			"entry of trade %d must not precede exit of trade %d", i, i-1)
	}
}
