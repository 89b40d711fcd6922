// Package margin replays a trade list under leverage and truncates any
// trade whose mark-to-market loss breaches the maintenance-margin
// threshold, replacing its exit with a forced liquidation. Input trades
// and bars are never mutated; truncated trades are new records.
package margin

import (
	"go.uber.org/zap"

	"github.com/whiterabbit74/stonks-sub000/internal/core"
)

// Params configures the leverage replay
type Params struct {
	InitialCapital       float64
	Leverage             float64 // >= 1; at 1 nothing is borrowed
	MaintenanceMarginPct float64 // 0-100
	CapitalUsagePct      float64 // percent of current capital committed per trade
}

// DefaultParams returns an unleveraged pass-through configuration
func DefaultParams() Params {
	return Params{
		InitialCapital:       10000,
		Leverage:             1,
		MaintenanceMarginPct: 25,
		CapitalUsagePct:      100,
	}
}

// Result holds the replayed trades plus every forced liquidation in
// chronological order. Callers needing "the" liquidation should pick
// from the ordered list; LastLiquidation is a convenience accessor.
type Result struct {
	Trades       []core.Trade
	Liquidations []core.LiquidationEvent
	Equity       []core.EquityPoint
	FinalValue   float64
	MaxDrawdown  float64 // percent
}

// LastLiquidation returns the most recent liquidation event, or nil
func (r *Result) LastLiquidation() *core.LiquidationEvent {
	if len(r.Liquidations) == 0 {
		return nil
	}
	return &r.Liquidations[len(r.Liquidations)-1]
}

// LiquidationPrice computes the price at which a long position opened
// at entryPrice with the given leverage hits the maintenance margin.
// It is independent of capital magnitude. Returns 0 when leverage <= 1
// (nothing is borrowed, liquidation is impossible) or when the margin
// fraction leaves no room for a solution.
func LiquidationPrice(entryPrice, leverage, maintenanceMarginPct float64) float64 {
	if leverage <= 1 {
		return 0
	}
	m := maintenanceMarginPct / 100
	if m >= 1 {
		return 0
	}
	return entryPrice * (leverage - 1) / (leverage * (1 - m))
}

// Simulator replays trades with borrowed exposure
type Simulator struct {
	params Params
	logger *zap.Logger
}

// New creates a margin simulator with the given parameters
func New(params Params, logger ...*zap.Logger) *Simulator {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Simulator{params: params, logger: l}
}

// Run replays the trade list against the bar series. Every trade is
// re-sized from current capital at Leverage; a trade whose walk from
// entry to original exit touches the liquidation price is truncated
// and exits exactly at that price. Later trades still run, sized from
// whatever capital remains.
func (s *Simulator) Run(trades []core.Trade, bars []core.Bar) (*Result, error) {
	if err := core.ValidateBars(bars); err != nil {
		return nil, err
	}

	p := s.params
	barIdx := make(map[string]int, len(bars))
	for i, b := range bars {
		barIdx[b.Date.Format("2006-01-02")] = i
	}

	capital := p.InitialCapital
	out := make([]core.Trade, 0, len(trades))
	var liquidations []core.LiquidationEvent

	var legs []leg

	for _, t := range trades {
		entryIdx, okEntry := barIdx[t.EntryDate.Format("2006-01-02")]
		exitIdx, okExit := barIdx[t.ExitDate.Format("2006-01-02")]
		if !okEntry || !okExit || exitIdx < entryIdx {
			return nil, core.ErrTradeOutOfRange
		}

		equityUsed := capital * p.CapitalUsagePct / 100
		positionValue := equityUsed * p.Leverage
		quantity := 0.0
		if t.EntryPrice > 0 {
			quantity = positionValue / t.EntryPrice
		}

		exitDate := t.ExitDate
		exitPrice := t.ExitPrice
		reason := t.ExitReason
		finalExitIdx := exitIdx

		liqPrice := LiquidationPrice(t.EntryPrice, p.Leverage, p.MaintenanceMarginPct)
		if liqPrice > 0 {
			for i := entryIdx; i <= exitIdx; i++ {
				if bars[i].Low <= liqPrice {
					exitDate = bars[i].Date
					exitPrice = liqPrice
					reason = core.ExitMarginLiquidation
					finalExitIdx = i
					break
				}
			}
		}

		commission, _ := t.Context["commission"].(float64)
		pnl := (exitPrice-t.EntryPrice)*quantity - commission
		notional := t.EntryPrice * quantity
		var pnlPct float64
		if notional > 0 {
			pnlPct = pnl / notional * 100
		}
		capital += pnl

		nt := core.Trade{
			ID:         t.ID,
			Symbol:     t.Symbol,
			EntryDate:  t.EntryDate,
			ExitDate:   exitDate,
			EntryPrice: t.EntryPrice,
			ExitPrice:  exitPrice,
			Quantity:   quantity,
			PnL:        pnl,
			PnLPercent: pnlPct,
			Duration:   core.DaysBetween(t.EntryDate, exitDate),
			ExitReason: reason,
			Context: map[string]any{
				"symbol":           t.Symbol,
				"invested":         equityUsed,
				"commission":       commission,
				"capitalAfterExit": capital,
			},
		}
		out = append(out, nt)
		legs = append(legs, leg{entryIdx: entryIdx, exitIdx: finalExitIdx, entryPrice: t.EntryPrice, quantity: quantity})

		if reason == core.ExitMarginLiquidation {
			liquidations = append(liquidations, core.LiquidationEvent{
				Date:            exitDate,
				Type:            core.LiquidationMaintenanceMargin,
				PositionDropPct: 100 * (1 - liqPrice/t.EntryPrice),
				TradeID:         t.ID,
			})
			s.logger.Warn("position liquidated",
				zap.String("symbol", t.Symbol),
				zap.Time("date", exitDate),
				zap.Float64("liquidationPrice", liqPrice),
			)
		}
	}

	equity := s.buildEquity(bars, out, legs)
	core.FillDrawdowns(equity)

	return &Result{
		Trades:       out,
		Liquidations: liquidations,
		Equity:       equity,
		FinalValue:   capital,
		MaxDrawdown:  core.MaxDrawdown(equity),
	}, nil
}

// leg is per-trade leveraged position state for the equity walk
type leg struct {
	entryIdx, exitIdx int
	entryPrice        float64
	quantity          float64
}

// buildEquity marks capital flat outside positions and marks the
// leveraged position to market at each close while one is open.
func (s *Simulator) buildEquity(bars []core.Bar, trades []core.Trade, legs []leg) []core.EquityPoint {
	equity := make([]core.EquityPoint, 0, len(bars))
	capital := s.params.InitialCapital
	next := 0

	for i, bar := range bars {
		// settle any trade exiting at this bar
		value := capital
		if next < len(legs) && i >= legs[next].entryIdx {
			l := legs[next]
			if i < l.exitIdx {
				value = capital + l.quantity*(bar.Close-l.entryPrice)
			} else {
				capital = trades[next].Context["capitalAfterExit"].(float64)
				value = capital
				next++
			}
		}
		equity = append(equity, core.EquityPoint{Date: bar.Date, Value: value})
	}
	return equity
}
