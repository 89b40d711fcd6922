package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/whiterabbit74/stonks-sub000/internal/core"
)

func barsWithCloses(closes ...float64) []core.Bar {
	bars := make([]core.Bar, len(closes))
	for i, c := range closes {
		bars[i] = core.Bar{
			Date:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Close: c,
		}
	}
	return bars
}

func TestRealizedVolatility(t *testing.T) {
	t.Run("constant prices have zero volatility", func(t *testing.T) {
		bars := barsWithCloses(100, 100, 100, 100, 100)
		assert.Equal(t, 0.0, RealizedVolatility(bars, 4, 30))
	})

	t.Run("too few returns", func(t *testing.T) {
		bars := barsWithCloses(100, 101)
		assert.Equal(t, 0.0, RealizedVolatility(bars, 0, 30))
		assert.Equal(t, 0.0, RealizedVolatility(bars, 1, 30))
	})

	t.Run("alternating returns match hand-computed value", func(t *testing.T) {
		// log returns alternate +r, -r with r = ln(1.02)
		bars := barsWithCloses(100, 102, 100, 102, 100, 102)
		got := RealizedVolatility(bars, 5, 30)
		r := math.Log(1.02)
		// sample stddev of {r,-r,r,-r,r}, annualized
		returns := []float64{r, -r, r, -r, r}
		mean := r / 5
		var v float64
		for _, x := range returns {
			v += (x - mean) * (x - mean)
		}
		want := math.Sqrt(v/4) * math.Sqrt(252)
		assert.InDelta(t, want, got, 1e-9)
	})

	t.Run("non-positive close yields zero", func(t *testing.T) {
		bars := barsWithCloses(100, 0, 102)
		assert.Equal(t, 0.0, RealizedVolatility(bars, 2, 30))
	})

	t.Run("window shorter than series", func(t *testing.T) {
		long := barsWithCloses(100, 105, 95, 100, 110, 90, 100, 105)
		// window 3 uses only the last two returns
		got := RealizedVolatility(long, 7, 3)
		assert.Greater(t, got, 0.0)
	})
}
