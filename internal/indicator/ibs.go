package indicator

import "github.com/whiterabbit74/stonks-sub000/internal/core"

// IBS calculates Internal Bar Strength: (close - low) / (high - low).
// A zero-range bar (high == low) yields 0 rather than a division by zero.
func IBS(b core.Bar) float64 {
	r := b.High - b.Low
	if r <= 0 {
		return 0
	}
	return (b.Close - b.Low) / r
}
