package options

import "time"

// RateFn resolves the annualized risk-free rate for a date. The second
// return value reports whether the source had an entry; callers fall
// back to a configured default when it is false.
type RateFn func(date time.Time) (float64, bool)

// FixedRate returns a RateFn that answers the same rate for every date
func FixedRate(rate float64) RateFn {
	return func(time.Time) (float64, bool) {
		return rate, true
	}
}

// RateTable returns a RateFn backed by a per-date table keyed by
// YYYY-MM-DD strings
func RateTable(rates map[string]float64) RateFn {
	return func(date time.Time) (float64, bool) {
		r, ok := rates[date.Format("2006-01-02")]
		return r, ok
	}
}
