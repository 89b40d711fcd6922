// Package options re-prices a stock trade skeleton as long-call
// positions sized by available capital, priced with Black-Scholes and
// rolling realized volatility.
package options

import (
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/whiterabbit74/stonks-sub000/internal/core"
)

const daysPerYear = 365.0

// Simulator runs the single-ticker overlay
type Simulator struct {
	params Params
	logger *zap.Logger
}

// New creates an overlay simulator with the given parameters
func New(params Params, logger ...*zap.Logger) *Simulator {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Simulator{params: params, logger: l}
}

// openCall tracks one open long-call position
type openCall struct {
	symbol         string
	entryDate      time.Time
	entryIdx       int
	entrySpot      float64
	strike         float64
	expiration     time.Time
	contracts      int
	entryPremium   float64
	entryVol       float64
	invested       float64
	stockExit      time.Time
	stockExitSpot  float64
	stockReason    core.ExitReason
	lastMarkValue  float64 // contracts * premium * multiplier at the last priceable bar
	lastMarkVol    float64
	lastMarkSpot   float64
	lastMarkPrem   float64
}

func (s *Simulator) rateFor(date time.Time) float64 {
	if s.params.Rate != nil {
		if r, ok := s.params.Rate(date); ok {
			return r
		}
	}
	return s.params.DefaultRate
}

func yearsBetween(from, to time.Time) float64 {
	return float64(core.DaysBetween(from, to)) / daysPerYear
}

// Run derives a long-call trade for each stock trade whose entry date
// matches a bar date, marks it to market daily, and exits on whichever
// comes first: the stock trade's exit date, expiry, or MaxHoldingDays.
func (s *Simulator) Run(symbol string, trades []core.Trade, bars []core.Bar, cache *VolCache) (*Result, error) {
	if err := core.ValidateBars(bars); err != nil {
		return nil, err
	}
	if cache == nil {
		cache = NewVolCache()
	}

	p := s.params
	barIdx := make(map[string]int, len(bars))
	for i, b := range bars {
		barIdx[b.Date.Format("2006-01-02")] = i
	}

	capital := p.InitialCapital
	var out []core.OptionTrade
	var open *openCall
	next := 0
	equity := make([]core.EquityPoint, 0, len(bars))

	for i, bar := range bars {
		if open != nil {
			vol := s.scaledVol(cache, symbol, bars, i)
			ttm := yearsBetween(bar.Date, open.expiration)
			premium := CallPrice(bar.Close, open.strike, ttm, s.rateFor(bar.Date), vol)
			open.lastMarkPrem = premium
			open.lastMarkVol = vol
			open.lastMarkSpot = bar.Close
			open.lastMarkValue = float64(open.contracts) * premium * ContractMultiplier

			var reason core.ExitReason
			switch {
			case !bar.Date.Before(open.stockExit):
				reason = open.stockReason
			case ttm <= 0:
				reason = core.ExitOptionExpired
			case core.DaysBetween(open.entryDate, bar.Date) >= p.MaxHoldingDays:
				reason = core.ExitMaxHold
			}
			if reason != "" {
				capital = s.closeCall(&out, open, bar.Date, reason, capital)
				open = nil
			}
		}

		// entries follow the stock trade skeleton, one position at a time
		if open == nil {
			for next < len(trades) && bars[i].Date.After(trades[next].EntryDate) {
				next++ // stock entry fell on a date with no bar
			}
			if next < len(trades) && bar.Date.Equal(trades[next].EntryDate) {
				open = s.tryEnter(cache, symbol, trades[next], bars, i, capital)
				if open != nil {
					capital -= open.invested
				}
				next++
			}
		}

		value := capital
		if open != nil {
			value += open.lastMarkValue
		}
		equity = append(equity, core.EquityPoint{Date: bar.Date, Value: value})
	}

	if open != nil {
		last := bars[len(bars)-1]
		capital = s.closeCall(&out, open, last.Date, core.ExitEndOfData, capital)
		open = nil
		equity[len(equity)-1].Value = capital
	}

	core.FillDrawdowns(equity)

	return &Result{
		Trades:      out,
		Equity:      equity,
		FinalValue:  capital,
		MaxDrawdown: core.MaxDrawdown(equity),
	}, nil
}

func (s *Simulator) scaledVol(cache *VolCache, symbol string, bars []core.Bar, idx int) float64 {
	v := cache.Volatility(symbol, bars, idx, s.params.VolWindow)
	return v * (1 + s.params.VolAdjPct/100)
}

// tryEnter opens a call at the entry bar's close, or returns nil when
// the position cannot be sized (no volatility, or fewer than one
// contract affordable)
func (s *Simulator) tryEnter(cache *VolCache, symbol string, stock core.Trade, bars []core.Bar, idx int, capital float64) *openCall {
	p := s.params
	bar := bars[idx]
	spot := bar.Close
	if spot <= 0 {
		return nil
	}

	vol := s.scaledVol(cache, symbol, bars, idx)
	if vol <= 0 {
		return nil
	}

	strike := math.Round(spot * (1 + p.StrikePct/100))
	expiration := bar.Date.AddDate(0, 0, 7*p.ExpirationWeeks)
	ttm := yearsBetween(bar.Date, expiration)
	premium := CallPrice(spot, strike, ttm, s.rateFor(bar.Date), vol)

	investAmount := capital * p.CapitalPct / 100
	contracts := int(math.Floor(investAmount / (premium * ContractMultiplier)))
	if contracts < 1 {
		s.logger.Debug("option entry skipped",
			zap.String("symbol", symbol),
			zap.Time("date", bar.Date),
			zap.Float64("premium", premium),
		)
		return nil
	}

	cost := float64(contracts) * premium * ContractMultiplier
	return &openCall{
		symbol:        symbol,
		entryDate:     bar.Date,
		entryIdx:      idx,
		entrySpot:     spot,
		strike:        strike,
		expiration:    expiration,
		contracts:     contracts,
		entryPremium:  premium,
		entryVol:      vol,
		invested:      cost,
		stockExit:     stock.ExitDate,
		stockExitSpot: stock.ExitPrice,
		stockReason:   stock.ExitReason,
		lastMarkValue: cost,
		lastMarkVol:   vol,
		lastMarkSpot:  spot,
		lastMarkPrem:  premium,
	}
}

// closeCall settles the position at its current mark-to-market premium
func (s *Simulator) closeCall(out *[]core.OptionTrade, open *openCall, exitDate time.Time, reason core.ExitReason, capital float64) float64 {
	proceeds := open.lastMarkValue
	pnl := proceeds - open.invested
	var pnlPct float64
	if open.invested > 0 {
		pnlPct = pnl / open.invested * 100
	}
	capital += proceeds

	*out = append(*out, core.OptionTrade{
		Trade: core.Trade{
			ID:         uuid.NewString(),
			Symbol:     open.symbol,
			EntryDate:  open.entryDate,
			ExitDate:   exitDate,
			EntryPrice: open.entrySpot,
			ExitPrice:  open.lastMarkSpot,
			Quantity:   float64(open.contracts),
			PnL:        pnl,
			PnLPercent: pnlPct,
			Duration:   core.DaysBetween(open.entryDate, exitDate),
			ExitReason: reason,
			Context: map[string]any{
				"symbol":           open.symbol,
				"invested":         open.invested,
				"capitalAfterExit": capital,
			},
		},
		Strike:            open.strike,
		ExpirationDate:    open.expiration,
		ImpliedVolAtEntry: open.entryVol,
		ImpliedVolAtExit:  open.lastMarkVol,
		OptionEntryPrice:  open.entryPremium,
		OptionExitPrice:   open.lastMarkPrem,
		Contracts:         open.contracts,
	})

	s.logger.Debug("call closed",
		zap.String("symbol", open.symbol),
		zap.Time("date", exitDate),
		zap.String("reason", string(reason)),
		zap.Float64("pnl", pnl),
	)
	return capital
}
