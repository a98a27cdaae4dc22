package smaccv

import "math"

//////
// Const, vars, types.
//////

// gaussianProcess is the surrogate model of the search: a Gaussian-Process
// regression over encoded configuration vectors and their observed losses.
// The driver is single-threaded (one trial runs to completion before the
// next is sampled), so the model carries no locking.
//
// Memory grows linearly with observations; prediction is O(n) for the mean
// and O(n^2) for the variance, acceptable for run-count budgets in the
// hundreds.
type gaussianProcess struct {
	// X holds the observed configuration vectors.
	X [][]float64

	// Y holds the observed loss at each point of X.
	Y []float64

	// sigma is the RBF kernel width. Configuration vectors are normalized
	// to [0, 1] per dimension, so 1.0 is a reasonable width.
	sigma float64
}

func newGaussianProcess() *gaussianProcess {
	return &gaussianProcess{sigma: 1.0}
}

//////
// Methods.
//////

// kernel is the RBF (Gaussian) kernel: similarity decays exponentially with
// squared Euclidean distance. Identical points score 1.0, distant points
// approach 0.
func (gp *gaussianProcess) kernel(x1, x2 []float64) float64 {
	if len(x1) != len(x2) {
		panic("gaussian process: input vectors must have the same length")
	}

	var sum float64
	for i := range x1 {
		diff := x1[i] - x2[i]
		sum += diff * diff
	}

	return math.Exp(-sum / (2 * gp.sigma * gp.sigma))
}

// Predict estimates the expected loss and uncertainty at a point. With no
// observations it returns (0, 1): no opinion, full uncertainty.
func (gp *gaussianProcess) Predict(x []float64) (mean, variance float64) {
	if len(gp.X) == 0 {
		return 0, 1
	}

	k := make([]float64, len(gp.X))
	for i := range gp.X {
		k[i] = gp.kernel(x, gp.X[i])
	}

	var sum float64
	for i := range gp.X {
		sum += k[i] * gp.Y[i]
	}

	mean = sum / float64(len(gp.X))

	variance = 1.0
	for i := range gp.X {
		for j := range gp.X {
			variance -= k[i] * k[j] / float64(len(gp.X))
		}
	}

	return mean, variance
}

// Update adds one observation. The input vector is copied so later caller
// mutations cannot corrupt the model.
func (gp *gaussianProcess) Update(x []float64, y float64) {
	point := make([]float64, len(x))
	copy(point, x)

	gp.X = append(gp.X, point)
	gp.Y = append(gp.Y, y)
}
