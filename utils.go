package smaccv

import "math"

//////
// Helper functions.
//////

// crashCost is the cost recorded for a trial whose evaluation failed. Half
// of MaxFloat64 leaves headroom for comparisons without overflowing.
const crashCost = math.MaxFloat64 / 2

// Helper function used by PI and EI to compute the cumulative distribution
// function of the standard normal distribution.
func normalCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

// Helper function used by EI to compute the probability density function of
// the standard normal distribution.
func normalPDF(x float64) float64 {
	return math.Exp(-x*x/2.0) / math.Sqrt(2.0*math.Pi)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
