package options

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/whiterabbit74/stonks-sub000/internal/core"
)

// MissingDataPolicy controls how a ticker with no bar on a given date
// contributes to that day's portfolio value
type MissingDataPolicy string

const (
	// CarryForward keeps the position's last known mark
	CarryForward MissingDataPolicy = "carry_forward"
	// ZeroFill counts the position as worthless for the day
	ZeroFill MissingDataPolicy = "zero_fill"
	// ExcludeFromEquity leaves the position out of the day's value
	// without overwriting its last known mark
	ExcludeFromEquity MissingDataPolicy = "exclude_from_equity"
)

// MultiParams configures the multi-ticker overlay
type MultiParams struct {
	Params
	MissingData MissingDataPolicy
}

// DefaultMultiParams returns the stock multi-ticker configuration
func DefaultMultiParams() MultiParams {
	return MultiParams{Params: DefaultParams(), MissingData: CarryForward}
}

// MultiResult holds the pooled overlay output across all tickers
type MultiResult struct {
	Trades      []core.OptionTrade
	Equity      []core.EquityPoint
	FinalValue  float64
	MaxDrawdown float64 // percent
}

// MultiSimulator generalizes the overlay to N independent underlyings
// sharing one capital pool. Unlike the stock engine it supports one
// simultaneously open call per ticker.
type MultiSimulator struct {
	params MultiParams
	logger *zap.Logger
}

// NewMulti creates a multi-ticker overlay simulator
func NewMulti(params MultiParams, logger ...*zap.Logger) *MultiSimulator {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &MultiSimulator{params: params, logger: l}
}

// Run processes the union of all tickers' trading dates in
// chronological order, entering calls from each ticker's stock trade
// skeleton and marking every open position to market daily.
func (m *MultiSimulator) Run(series map[string][]core.Bar, trades map[string][]core.Trade, cache *VolCache) (*MultiResult, error) {
	for _, bars := range series {
		if err := core.ValidateBars(bars); err != nil {
			return nil, err
		}
	}
	if cache == nil {
		cache = NewVolCache()
	}

	p := m.params
	single := &Simulator{params: p.Params, logger: m.logger}

	symbols := make([]string, 0, len(series))
	for sym := range series {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	// union of trading dates across every ticker
	dateSet := make(map[string]time.Time)
	barIdx := make(map[string]map[string]int, len(series))
	for sym, bars := range series {
		idx := make(map[string]int, len(bars))
		for i, b := range bars {
			key := b.Date.Format("2006-01-02")
			idx[key] = i
			dateSet[key] = b.Date
		}
		barIdx[sym] = idx
	}
	dates := make([]time.Time, 0, len(dateSet))
	for _, d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	cash := p.InitialCapital
	open := make(map[string]*openCall, len(symbols))
	next := make(map[string]int, len(symbols))
	var out []core.OptionTrade
	equity := make([]core.EquityPoint, 0, len(dates))

	for _, date := range dates {
		key := date.Format("2006-01-02")

		for _, sym := range symbols {
			i, hasBar := barIdx[sym][key]
			if !hasBar {
				continue
			}
			bars := series[sym]
			bar := bars[i]

			if oc := open[sym]; oc != nil {
				vol := single.scaledVol(cache, sym, bars, i)
				ttm := yearsBetween(bar.Date, oc.expiration)
				premium := CallPrice(bar.Close, oc.strike, ttm, single.rateFor(bar.Date), vol)
				oc.lastMarkPrem = premium
				oc.lastMarkVol = vol
				oc.lastMarkSpot = bar.Close
				oc.lastMarkValue = float64(oc.contracts) * premium * ContractMultiplier

				var reason core.ExitReason
				switch {
				case !bar.Date.Before(oc.stockExit):
					reason = oc.stockReason
				case ttm <= 0:
					reason = core.ExitOptionExpired
				case core.DaysBetween(oc.entryDate, bar.Date) >= p.MaxHoldingDays:
					reason = core.ExitMaxHold
				}
				if reason != "" {
					cash = single.closeCall(&out, oc, bar.Date, reason, cash)
					delete(open, sym)
				}
			}

			if open[sym] == nil {
				tl := trades[sym]
				for next[sym] < len(tl) && bar.Date.After(tl[next[sym]].EntryDate) {
					next[sym]++
				}
				if next[sym] < len(tl) && bar.Date.Equal(tl[next[sym]].EntryDate) {
					if oc := single.tryEnter(cache, sym, tl[next[sym]], bars, i, cash); oc != nil {
						cash -= oc.invested
						open[sym] = oc
					}
					next[sym]++
				}
			}
		}

		value := cash
		for _, sym := range symbols {
			oc := open[sym]
			if oc == nil {
				continue
			}
			if _, hasBar := barIdx[sym][key]; hasBar {
				value += oc.lastMarkValue
				continue
			}
			switch p.MissingData {
			case ZeroFill:
				oc.lastMarkValue = 0
			case ExcludeFromEquity:
				// position left out for the day, last mark preserved
			default: // CarryForward
				value += oc.lastMarkValue
			}
		}
		equity = append(equity, core.EquityPoint{Date: date, Value: value})
	}

	// settle positions still open when the data runs out
	for _, sym := range symbols {
		if oc := open[sym]; oc != nil {
			bars := series[sym]
			cash = single.closeCall(&out, oc, bars[len(bars)-1].Date, core.ExitEndOfData, cash)
			delete(open, sym)
		}
	}
	if len(equity) > 0 {
		equity[len(equity)-1].Value = cash
	}

	sort.Slice(out, func(i, j int) bool { return out[i].EntryDate.Before(out[j].EntryDate) })
	core.FillDrawdowns(equity)

	return &MultiResult{
		Trades:      out,
		Equity:      equity,
		FinalValue:  cash,
		MaxDrawdown: core.MaxDrawdown(equity),
	}, nil
}
