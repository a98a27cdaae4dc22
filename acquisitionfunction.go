package smaccv

import (
	"math"
	"math/rand"
)

//////
// Available acquisition functions for the optimization loop.
// Each function scores a candidate configuration from the surrogate's
// predicted mean and variance; lower values mark more promising candidates
// (the search minimizes loss). They balance exploration (uncertain areas)
// against exploitation (areas known to be good).
//////

// AcquisitionFunc scores a candidate point. mean and variance come from the
// surrogate model; params carries the function-specific knobs. Lower return
// values indicate more promising candidates.
type AcquisitionFunc func(mean, variance float64, params AcquisitionParams) float64

// AcquisitionParams holds the knobs the built-in acquisition functions use.
type AcquisitionParams struct {
	// Beta is the UCB exploration weight: higher values favor uncertain
	// regions, lower values favor known good ones. 2.0 is a sound default.
	Beta float64

	// Xi is the minimum-improvement margin used by PI and EI. Typical
	// values are 0.01 to 0.1.
	Xi float64

	// BestSoFar is the incumbent loss. The driver refreshes it before each
	// candidate round.
	BestSoFar float64

	// RandomState is the generator Thompson sampling draws from. The driver
	// supplies its own seeded generator so candidate scoring stays
	// deterministic.
	RandomState *rand.Rand
}

// UCB is the (lower) confidence-bound function: predicted mean minus
// Beta-weighted uncertainty.
func UCB(mean, variance float64, params AcquisitionParams) float64 {
	return mean - params.Beta*math.Sqrt(variance)
}

// ProbabilityOfImprovement scores candidates by how likely they are to beat
// the incumbent by at least Xi. Conservative: prefers small, reliable
// improvements.
func ProbabilityOfImprovement(mean, variance float64, params AcquisitionParams) float64 {
	z := (mean - params.BestSoFar - params.Xi) / math.Sqrt(variance)

	return normalCDF(z)
}

// ExpectedImprovement weighs both the probability and the magnitude of
// improvement over the incumbent. The usual default in practice.
func ExpectedImprovement(mean, variance float64, params AcquisitionParams) float64 {
	sigma := math.Sqrt(variance)
	z := (mean - params.BestSoFar - params.Xi) / sigma

	return (mean-params.BestSoFar-params.Xi)*normalCDF(z) + sigma*normalPDF(z)
}

// ThompsonSampling draws a random sample from the posterior at the
// candidate. Requires AcquisitionParams.RandomState.
func ThompsonSampling(mean, variance float64, params AcquisitionParams) float64 {
	return mean + math.Sqrt(variance)*params.RandomState.NormFloat64()
}
