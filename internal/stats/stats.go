// Package stats implements the statistical estimators behind the market
// correlation graph: log returns, dispersion, Pearson and Spearman
// correlation, regression beta, annualization and sample-size confidence.
//
// Every function is total over its input domain. Undersized, mismatched or
// zero-variance inputs resolve to a defined zero/empty result instead of an
// error, so callers composing a full market snapshot never have to branch
// on failure.
package stats

import (
	"math"
	"sort"
)

// TradingDaysPerYear is the annualization convention used for volatility
// and Sharpe scaling.
const TradingDaysPerYear = 252

// LogReturns computes ln(p[i]/p[i-1]) for each consecutive pair of prices.
// Pairs where either price is non-positive are skipped silently. Fewer than
// two prices yield an empty slice.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i] > 0 && prices[i-1] > 0 {
			returns = append(returns, math.Log(prices[i]/prices[i-1]))
		}
	}
	return returns
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the sample standard deviation (N-1 denominator).
// Fewer than two observations yield 0.
func StdDev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	mean := Mean(xs)
	sumSq := 0.0
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// PearsonCorr computes the Pearson correlation coefficient between two
// series. It returns 0 when the series lengths differ, fewer than two
// observations are available, or either series has zero variance.
func PearsonCorr(a, b []float64) float64 {
	n := len(a)
	if n != len(b) || n < 2 {
		return 0
	}
	meanA := Mean(a)
	meanB := Mean(b)
	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// SpearmanCorr computes the Spearman rank correlation by converting both
// series to tie-averaged ranks and delegating to PearsonCorr.
func SpearmanCorr(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	return PearsonCorr(ranks(a), ranks(b))
}

// ranks maps values to their 1-based rank positions. Tied values receive
// the mean of the rank positions they occupy.
func ranks(xs []float64) []float64 {
	n := len(xs)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return xs[idx[i]] < xs[idx[j]] })

	ranked := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && xs[idx[j+1]] == xs[idx[i]] {
			j++
		}
		// Positions i..j hold equal values; average their ranks.
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranked[idx[k]] = avg
		}
		i = j + 1
	}
	return ranked
}

// Beta computes the regression slope of asset returns against market
// returns, Cov(asset, market) / Var(market). It returns 0 when the series
// are mismatched, too short, or the market series has zero variance.
func Beta(asset, market []float64) float64 {
	n := len(asset)
	if n != len(market) || n < 2 {
		return 0
	}
	meanA := Mean(asset)
	meanM := Mean(market)
	var cov, varM float64
	for i := 0; i < n; i++ {
		dm := market[i] - meanM
		cov += (asset[i] - meanA) * dm
		varM += dm * dm
	}
	if varM == 0 {
		return 0
	}
	return cov / varM
}

// AnnualizedVol scales the sample standard deviation of periodic returns by
// the square root of the trading-day count.
func AnnualizedVol(returns []float64) float64 {
	return StdDev(returns) * math.Sqrt(TradingDaysPerYear)
}

// SharpeRatio returns the annualized mean return divided by annualized
// volatility. The risk-free rate is treated as zero. A zero-volatility
// series yields 0.
func SharpeRatio(returns []float64) float64 {
	vol := AnnualizedVol(returns)
	if vol == 0 {
		return 0
	}
	return Mean(returns) * TradingDaysPerYear / vol
}

// Confidence is a coarse reliability bucket for a correlation estimate,
// derived purely from the number of paired observations.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ConfidenceForSample buckets a sample size: n < 10 is low, 10..50 medium,
// above 50 high.
func ConfidenceForSample(n int) Confidence {
	switch {
	case n < 10:
		return ConfidenceLow
	case n <= 50:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}
