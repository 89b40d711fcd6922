package options

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ContractMultiplier is the standard equity option contract size
const ContractMultiplier = 100

// MinPrice is the floor applied to every model price. It keeps deep
// out-of-the-money contracts tradeable and guards against non-finite
// results leaking into position sizing.
const MinPrice = 0.01

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// CallPrice returns the Black-Scholes price of a European call.
// years is time to maturity in years (ACT/365), rate and vol are
// annualized. At or past expiry the price is intrinsic value. The
// result is always >= MinPrice and always finite.
func CallPrice(spot, strike, years, rate, vol float64) float64 {
	if spot <= 0 || strike <= 0 {
		return MinPrice
	}
	if years <= 0 || vol <= 0 {
		return clampPrice(math.Max(spot-strike, 0))
	}

	sqrtT := math.Sqrt(years)
	d1 := (math.Log(spot/strike) + (rate+0.5*vol*vol)*years) / (vol * sqrtT)
	d2 := d1 - vol*sqrtT

	price := spot*stdNormal.CDF(d1) - strike*math.Exp(-rate*years)*stdNormal.CDF(d2)
	return clampPrice(price)
}

func clampPrice(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < MinPrice {
		return MinPrice
	}
	return p
}
