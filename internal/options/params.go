package options

import "github.com/whiterabbit74/stonks-sub000/internal/core"

// Params configures the long-call overlay
type Params struct {
	StrikePct       float64 // strike offset from spot, percent (positive = out of the money)
	VolAdjPct       float64 // scaling applied to realized volatility, percent
	CapitalPct      float64 // percent of current capital committed per entry
	DefaultRate     float64 // annualized risk-free rate used when Rate has no entry
	Rate            RateFn  // optional per-date rate source
	ExpirationWeeks int     // calendar weeks from entry to expiry
	MaxHoldingDays  int     // force exit after this many calendar days
	InitialCapital  float64
	VolWindow       int // trailing bars for realized volatility
}

// DefaultParams returns the stock overlay configuration
func DefaultParams() Params {
	return Params{
		StrikePct:       5,
		VolAdjPct:       0,
		CapitalPct:      100,
		DefaultRate:     0.04,
		ExpirationWeeks: 4,
		MaxHoldingDays:  30,
		InitialCapital:  10000,
		VolWindow:       30,
	}
}

// Result holds the overlay's option trades and equity curve
type Result struct {
	Trades      []core.OptionTrade
	Equity      []core.EquityPoint
	FinalValue  float64
	MaxDrawdown float64 // percent
}
