package backtest

// Params configures the IBS mean-reversion rule and position sizing
type Params struct {
	LowIBS          float64         // enter when previous-bar IBS <= this
	HighIBS         float64         // exit when previous-bar IBS >= this
	MaxHoldDays     int             // force exit after this many calendar days
	CapitalUsagePct float64         // percent of current cash committed at entry
	InitialCapital  float64         // starting cash
	Commission      CommissionModel // nil means free execution
}

// DefaultParams returns the stock IBS rule configuration
func DefaultParams() Params {
	return Params{
		LowIBS:          0.10,
		HighIBS:         0.75,
		MaxHoldDays:     30,
		CapitalUsagePct: 100,
		InitialCapital:  10000,
	}
}
