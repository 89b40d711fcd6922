package core

import "time"

// ExitReason explains why a position was closed
type ExitReason string

const (
	ExitSignal            ExitReason = "signal"
	ExitMaxHold           ExitReason = "max_hold"
	ExitMarginLiquidation ExitReason = "margin_liquidation"
	ExitOptionExpired     ExitReason = "option_expired"
	ExitEndOfData         ExitReason = "end_of_data"
)

// Bar represents one trading day of split-adjusted OHLCV data.
// Bars are treated as immutable once loaded.
type Bar struct {
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	AdjClose float64 // optional, 0 when the feed carries none
}

// SplitEvent records a stock split applied upstream of the simulators
type SplitEvent struct {
	Date   time.Time
	Factor float64 // >0 and != 1
}

// Trade represents one closed position from entry to exit
type Trade struct {
	ID         string
	Symbol     string
	EntryDate  time.Time
	ExitDate   time.Time
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64
	PnL        float64 // signed currency, net of commission
	PnLPercent float64
	Duration   int // whole calendar days held
	ExitReason ExitReason
	Context    map[string]any // per-trade bookkeeping (invested amount, capital after exit)
}

// IsWin returns true if the trade was profitable
func (t Trade) IsWin() bool {
	return t.PnL > 0
}

// OptionTrade extends Trade with long-call contract details.
// Entry/exit prices on the embedded Trade refer to the underlying;
// OptionEntryPrice/OptionExitPrice are per-share premiums.
type OptionTrade struct {
	Trade
	Strike            float64
	ExpirationDate    time.Time
	ImpliedVolAtEntry float64
	ImpliedVolAtExit  float64
	OptionEntryPrice  float64
	OptionExitPrice   float64
	Contracts         int
}

// LiquidationType classifies a forced unwind
type LiquidationType string

const LiquidationMaintenanceMargin LiquidationType = "maintenance_margin"

// LiquidationEvent records a forced exit of a leveraged position
type LiquidationEvent struct {
	Date            time.Time
	Type            LiquidationType
	PositionDropPct float64 // price decline from entry that triggered the unwind
	TradeID         string
}

// EquityPoint is one day of portfolio value including any open
// position's mark-to-market
type EquityPoint struct {
	Date     time.Time
	Value    float64
	Drawdown float64 // percentage decline from the running peak, >= 0
}

// FillDrawdowns recomputes every point's drawdown against the running
// peak of Value, as a second pass once all values are known.
func FillDrawdowns(points []EquityPoint) {
	var peak float64
	for i := range points {
		if points[i].Value > peak {
			peak = points[i].Value
		}
		if peak > 0 {
			points[i].Drawdown = (peak - points[i].Value) / peak * 100
		} else {
			points[i].Drawdown = 0
		}
	}
}

// MaxDrawdown returns the largest drawdown on the curve in percent
func MaxDrawdown(points []EquityPoint) float64 {
	var maxDD float64
	for _, p := range points {
		if p.Drawdown > maxDD {
			maxDD = p.Drawdown
		}
	}
	return maxDD
}

// DaysBetween returns whole calendar days between two dates,
// ignoring the time-of-day component
func DaysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

// ValidateBars rejects series the simulators cannot run on: empty
// input is allowed, unsorted or duplicate dates are fatal.
func ValidateBars(bars []Bar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date) {
			if bars[i].Date.Equal(bars[i-1].Date) {
				return ErrDuplicateDate
			}
			return ErrBarsUnsorted
		}
	}
	return nil
}
