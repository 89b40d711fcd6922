package backtest

import (
	"github.com/whiterabbit74/stonks-sub000/internal/core"
)

// Result holds the complete output of one signal-engine run
type Result struct {
	Symbol      string
	Trades      []core.Trade
	Equity      []core.EquityPoint
	FinalValue  float64
	MaxDrawdown float64 // percent
}
