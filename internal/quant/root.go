package quant

import "math"

// Bisect finds a root of f in [lo, hi] by bisection. The interval must
// bracket a sign change; otherwise ok is false. Stops after maxIter
// iterations or once the interval shrinks below tol.
func Bisect(f func(float64) float64, lo, hi float64, maxIter int, tol float64) (root float64, ok bool) {
	flo := f(lo)
	fhi := f(hi)
	if math.IsNaN(flo) || math.IsNaN(fhi) || flo*fhi > 0 {
		return 0, false
	}
	if flo == 0 {
		return lo, true
	}
	if fhi == 0 {
		return hi, true
	}

	for i := 0; i < maxIter; i++ {
		mid := (lo + hi) / 2
		fmid := f(mid)
		if math.IsNaN(fmid) {
			return 0, false
		}
		if fmid == 0 || (hi-lo)/2 < tol {
			return mid, true
		}
		if flo*fmid < 0 {
			hi = mid
		} else {
			lo = mid
			flo = fmid
		}
	}
	return (lo + hi) / 2, true
}
