package backtest

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/whiterabbit74/stonks-sub000/internal/core"
	"github.com/whiterabbit74/stonks-sub000/internal/indicator"
)

// Engine turns a daily bar series into a chronological,
// non-overlapping trade list using the IBS mean-reversion rule.
// At most one position is open at a time; entry and exit both
// execute at the current bar's close, decided on the previous
// bar's IBS.
type Engine struct {
	params Params
	logger *zap.Logger
}

// NewEngine creates a signal engine with the given parameters
func NewEngine(params Params, logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Engine{params: params, logger: l}
}

// position tracks the single open position between entry and exit bars
type position struct {
	entryDate  time.Time
	entryPrice float64
	quantity   float64
	invested   float64
}

// Run executes the backtest over the full bar series
func (e *Engine) Run(symbol string, bars []core.Bar) (*Result, error) {
	if err := core.ValidateBars(bars); err != nil {
		return nil, err
	}

	p := e.params
	cash := p.InitialCapital
	var pos *position
	var trades []core.Trade
	equity := make([]core.EquityPoint, 0, len(bars))

	for i, bar := range bars {
		// all decisions read the previous, completed bar
		var prevIBS float64
		if i > 0 {
			prevIBS = indicator.IBS(bars[i-1])
		}

		if pos != nil {
			held := core.DaysBetween(pos.entryDate, bar.Date)
			switch {
			case i > 0 && prevIBS >= p.HighIBS:
				cash = e.closePosition(&trades, symbol, pos, bar.Date, bar.Close, core.ExitSignal, cash)
				pos = nil
			case held >= p.MaxHoldDays:
				cash = e.closePosition(&trades, symbol, pos, bar.Date, bar.Close, core.ExitMaxHold, cash)
				pos = nil
			}
		} else if i > 0 && prevIBS <= p.LowIBS && bar.Close > 0 {
			invested := cash * p.CapitalUsagePct / 100
			if invested > 0 {
				pos = &position{
					entryDate:  bar.Date,
					entryPrice: bar.Close,
					quantity:   invested / bar.Close,
					invested:   invested,
				}
				cash -= invested
				e.logger.Debug("position opened",
					zap.String("symbol", symbol),
					zap.Time("date", bar.Date),
					zap.Float64("price", bar.Close),
				)
			}
		}

		value := cash
		if pos != nil {
			value += pos.quantity * bar.Close
		}
		equity = append(equity, core.EquityPoint{Date: bar.Date, Value: value})
	}

	// series ended with an open position
	if pos != nil {
		last := bars[len(bars)-1]
		cash = e.closePosition(&trades, symbol, pos, last.Date, last.Close, core.ExitEndOfData, cash)
		pos = nil
		// the final point should reflect the commission taken at the forced exit
		equity[len(equity)-1].Value = cash
	}

	core.FillDrawdowns(equity)

	return &Result{
		Symbol:      symbol,
		Trades:      trades,
		Equity:      equity,
		FinalValue:  cash,
		MaxDrawdown: core.MaxDrawdown(equity),
	}, nil
}

func (e *Engine) closePosition(trades *[]core.Trade, symbol string, pos *position, exitDate time.Time, exitPrice float64, reason core.ExitReason, cash float64) float64 {
	notional := pos.entryPrice * pos.quantity
	commission := commissionCost(e.params.Commission, notional)

	pnl := (exitPrice-pos.entryPrice)*pos.quantity - commission
	var pnlPct float64
	if notional > 0 {
		pnlPct = pnl / notional * 100
	}
	cash += pos.invested + pnl

	*trades = append(*trades, core.Trade{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		EntryDate:  pos.entryDate,
		ExitDate:   exitDate,
		EntryPrice: pos.entryPrice,
		ExitPrice:  exitPrice,
		Quantity:   pos.quantity,
		PnL:        pnl,
		PnLPercent: pnlPct,
		Duration:   core.DaysBetween(pos.entryDate, exitDate),
		ExitReason: reason,
		Context: map[string]any{
			"symbol":           symbol,
			"invested":         pos.invested,
			"commission":       commission,
			"capitalAfterExit": cash,
		},
	})

	e.logger.Debug("position closed",
		zap.String("symbol", symbol),
		zap.Time("date", exitDate),
		zap.Float64("price", exitPrice),
		zap.String("reason", string(reason)),
		zap.Float64("pnl", pnl),
	)
	return cash
}
