package quant

// RSI computes the Relative Strength Index over the given period using
// Wilder smoothing, returning the latest value. Nil when the series is too
// short. All-gain windows saturate at 100.
func RSI(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}

	gains := 0.0
	losses := 0.0
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	// Wilder smoothing over the remainder of the series
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain := 0.0
		loss := 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		v := 100.0
		return &v
	}
	rs := avgGain / avgLoss
	v := 100 - 100/(1+rs)
	return &v
}

// ChangeOverOffset is the fractional change of the latest close versus the
// close offset bars earlier. Nil when the series is too short or the
// reference close is non-positive.
func ChangeOverOffset(closes []float64, offset int) *float64 {
	if offset <= 0 || len(closes) <= offset {
		return nil
	}
	ref := closes[len(closes)-1-offset]
	if ref <= 0 {
		return nil
	}
	v := closes[len(closes)-1]/ref - 1
	return &v
}

// Breakout reports whether the latest close exceeds the maximum of the prior
// window (excluding the latest bar itself).
func Breakout(closes []float64, window int) bool {
	if window <= 0 || len(closes) < window+1 {
		return false
	}
	latest := closes[len(closes)-1]
	prior := closes[len(closes)-1-window : len(closes)-1]
	for _, c := range prior {
		if c >= latest {
			return false
		}
	}
	return true
}

// VolumeSpike reports whether the latest volume is at least ratio times the
// trailing average over the given window (excluding the latest bar).
func VolumeSpike(volumes []int64, window int, ratio float64) bool {
	if window <= 0 || len(volumes) < window+1 {
		return false
	}
	latest := float64(volumes[len(volumes)-1])
	sum := 0.0
	for _, v := range volumes[len(volumes)-1-window : len(volumes)-1] {
		sum += float64(v)
	}
	avg := sum / float64(window)
	if avg <= 0 {
		return false
	}
	return latest >= ratio*avg
}
