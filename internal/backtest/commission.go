package backtest

// CommissionModel prices the round-trip cost of a trade from its
// entry notional. Deducted from pnl at exit.
type CommissionModel interface {
	Cost(notional float64) float64
}

// FixedCommission charges a flat amount per trade
type FixedCommission struct {
	PerTrade float64
}

func (c FixedCommission) Cost(notional float64) float64 {
	return c.PerTrade
}

// PercentCommission charges a percentage of the entry notional
type PercentCommission struct {
	Percent float64
}

func (c PercentCommission) Cost(notional float64) float64 {
	return notional * c.Percent / 100
}

// CombinedCommission charges a flat amount plus a percentage of notional
type CombinedCommission struct {
	PerTrade float64
	Percent  float64
}

func (c CombinedCommission) Cost(notional float64) float64 {
	return c.PerTrade + notional*c.Percent/100
}

func commissionCost(m CommissionModel, notional float64) float64 {
	if m == nil {
		return 0
	}
	return m.Cost(notional)
}
