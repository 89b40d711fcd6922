// Package loader reads daily bar series from CSV files and applies
// split back-adjustment before the series reaches the simulators.
package loader

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/whiterabbit74/stonks-sub000/internal/core"
)

// csvBar is the on-disk row shape: date,open,high,low,close,volume[,adj_close]
type csvBar struct {
	Date     string  `csv:"date"`
	Open     float64 `csv:"open"`
	High     float64 `csv:"high"`
	Low      float64 `csv:"low"`
	Close    float64 `csv:"close"`
	Volume   int64   `csv:"volume"`
	AdjClose float64 `csv:"adj_close,omitempty"`
}

// LoadCSV reads a bar series from path and validates its ordering
func LoadCSV(path string) ([]core.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapError(core.ErrLoadFailed, err)
	}
	defer f.Close()

	var rows []*csvBar
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, core.WrapError(core.ErrLoadFailed, err)
	}

	bars := make([]core.Bar, 0, len(rows))
	for i, r := range rows {
		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			return nil, core.WrapError(core.ErrLoadFailed, fmt.Errorf("row %d: %w", i+1, err))
		}
		bars = append(bars, core.Bar{
			Date:     date,
			Open:     r.Open,
			High:     r.High,
			Low:      r.Low,
			Close:    r.Close,
			Volume:   r.Volume,
			AdjClose: r.AdjClose,
		})
	}

	if err := core.ValidateBars(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// ApplySplits back-adjusts the series so prices are continuous across
// splits: every bar strictly before a split date has its prices
// divided by the split factor and its volume scaled up. Returns a new
// slice; the input is not modified.
func ApplySplits(bars []core.Bar, splits []core.SplitEvent) []core.Bar {
	out := make([]core.Bar, len(bars))
	copy(out, bars)

	for _, s := range splits {
		if s.Factor <= 0 || s.Factor == 1 {
			continue
		}
		for i := range out {
			if !out[i].Date.Before(s.Date) {
				break
			}
			out[i].Open /= s.Factor
			out[i].High /= s.Factor
			out[i].Low /= s.Factor
			out[i].Close /= s.Factor
			if out[i].AdjClose != 0 {
				out[i].AdjClose /= s.Factor
			}
			out[i].Volume = int64(float64(out[i].Volume) * s.Factor)
		}
	}
	return out
}
