package indicator

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/whiterabbit74/stonks-sub000/internal/core"
)

// TradingDaysPerYear is the annualization base for daily series
const TradingDaysPerYear = 252

// RealizedVolatility estimates annualized volatility from the sample
// standard deviation of daily log returns over the trailing window of
// bars ending at index idx (inclusive). Fewer bars are used near the
// start of the series. Returns 0 when fewer than two returns exist or
// any close in the window is non-positive.
func RealizedVolatility(bars []core.Bar, idx, window int) float64 {
	if idx < 0 || idx >= len(bars) || window < 2 {
		return 0
	}
	start := idx - window + 1
	if start < 0 {
		start = 0
	}

	returns := make([]float64, 0, idx-start)
	for i := start + 1; i <= idx; i++ {
		prev, cur := bars[i-1].Close, bars[i].Close
		if prev <= 0 || cur <= 0 {
			return 0
		}
		returns = append(returns, math.Log(cur/prev))
	}
	if len(returns) < 2 {
		return 0
	}

	sd := stat.StdDev(returns, nil)
	if math.IsNaN(sd) {
		return 0
	}
	return sd * math.Sqrt(TradingDaysPerYear)
}
