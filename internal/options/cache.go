package options

import (
	"fmt"

	"github.com/whiterabbit74/stonks-sub000/internal/core"
	"github.com/whiterabbit74/stonks-sub000/internal/indicator"
)

// VolCache memoizes rolling realized-volatility lookups for one
// simulation run. It is owned by the caller and scoped to a single
// backtest; do not reuse it across different bar series.
type VolCache struct {
	vols map[string]float64
}

// NewVolCache creates an empty volatility cache
func NewVolCache() *VolCache {
	return &VolCache{vols: make(map[string]float64)}
}

// Volatility returns the annualized realized volatility of the
// trailing window ending at bar idx, memoized per (symbol, idx, window)
func (c *VolCache) Volatility(symbol string, bars []core.Bar, idx, window int) float64 {
	key := fmt.Sprintf("%s:%d:%d", symbol, idx, window)
	if v, ok := c.vols[key]; ok {
		return v
	}
	v := indicator.RealizedVolatility(bars, idx, window)
	c.vols[key] = v
	return v
}
