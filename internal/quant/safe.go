// Package quant holds the shared numeric utilities for the analytics core.
// Nullable metrics travel as *float64; nil means "unknown" and every helper
// here propagates it instead of guessing.
package quant

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Ptr returns a pointer to v.
func Ptr(v float64) *float64 { return &v }

// SafeDiv divides a by b. Returns nil when either operand is nil or the
// denominator is zero; division never panics and never yields Inf/NaN.
func SafeDiv(a, b *float64) *float64 {
	if a == nil || b == nil || *b == 0 {
		return nil
	}
	v := *a / *b
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// SafeDivVal is SafeDiv over concrete operands.
func SafeDivVal(a, b float64) *float64 {
	return SafeDiv(&a, &b)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NormalizeRate converts percentage-shaped rates to fractions.
// Upstreams disagree on whether 5% arrives as 0.05 or 5; anything with
// |x| > 2 is assumed to be a percentage and divided by 100. Lossy for true
// rates above 200%, kept for compatibility with downstream score tuning.
func NormalizeRate(p *float64) *float64 {
	return normalizeOver(p, 2)
}

// NormalizeDebtEquity applies the looser |x| > 10 variant used for
// debt/equity, which legitimately exceeds 2.
func NormalizeDebtEquity(p *float64) *float64 {
	return normalizeOver(p, 10)
}

func normalizeOver(p *float64, threshold float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	if math.Abs(v) > threshold {
		v = v / 100
	}
	return &v
}

// Mean returns the arithmetic mean, nil for an empty slice.
func Mean(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	v := stat.Mean(xs, nil)
	return &v
}

// StdDev returns the sample standard deviation, nil below two observations.
func StdDev(xs []float64) *float64 {
	if len(xs) < 2 {
		return nil
	}
	v := stat.StdDev(xs, nil)
	return &v
}

// Median returns the middle value, nil for an empty slice.
func Median(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	var v float64
	if n%2 == 1 {
		v = sorted[n/2]
	} else {
		v = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return &v
}

// PercentileRank returns the share of xs strictly below v, as 0..100.
func PercentileRank(xs []float64, v float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	below := 0
	for _, x := range xs {
		if x < v {
			below++
		}
	}
	return float64(below) / float64(len(xs)) * 100
}

// MedianOfPtrs filters out nils and returns the median of the rest.
func MedianOfPtrs(xs []*float64) *float64 {
	vals := make([]float64, 0, len(xs))
	for _, x := range xs {
		if x != nil {
			vals = append(vals, *x)
		}
	}
	return Median(vals)
}
