package pipeline

import (
	"fmt"
	"math"
	"sort"
)

//////
// Logistic regression.
//////

// LogisticRegression is a binary logistic-regression operator trained with
// full-batch gradient descent. It is the default estimator of the tuner and
// doubles as the reference implementation of the Operator contract.
//
// Hyperparameters:
//   - lr: learning rate, log-uniform in [1e-4, 1].
//   - epochs: gradient-descent passes over the data.
//   - penalty: "none" or "l2".
//   - lambda: L2 strength, only active while penalty is "l2".
type LogisticRegression struct{}

// Name implements Operator.
func (LogisticRegression) Name() string { return "logistic_regression" }

// Schema implements Operator.
func (LogisticRegression) Schema() *Schema {
	return NewSchema(
		FloatParam("lr", 1e-4, 1.0).LogScale().WithDefault(0.01),
		IntParam("epochs", 10, 200).WithDefault(50),
		ChoiceParam("penalty", "none", "l2").WithDefault("none"),
		FloatParam("lambda", 1e-6, 1.0).LogScale().WithDefault(1e-3).When("penalty", "l2"),
	)
}

// Build implements Operator.
func (lr LogisticRegression) Build(cfg Config) (Trainable, error) {
	rate := cfg.Float("lr", 0.01)
	if rate <= 0 {
		return nil, fmt.Errorf("logistic_regression: learning rate must be positive, got %v", rate)
	}

	epochs := cfg.Int("epochs", 50)
	if epochs < 1 {
		return nil, fmt.Errorf("logistic_regression: epochs must be at least 1, got %d", epochs)
	}

	lambda := 0.0
	if cfg.String("penalty", "none") == "l2" {
		lambda = cfg.Float("lambda", 1e-3)
	}

	return &logisticTrainable{rate: rate, epochs: epochs, lambda: lambda}, nil
}

type logisticTrainable struct {
	rate   float64
	epochs int
	lambda float64
}

// Fit implements Trainable. Weights start at zero so identical inputs always
// produce identical models.
func (t *logisticTrainable) Fit(X [][]float64, y []float64) (Trained, error) {
	if err := checkXY(X, y); err != nil {
		return nil, fmt.Errorf("logistic_regression: %w", err)
	}

	for _, label := range y {
		if label != 0 && label != 1 {
			return nil, fmt.Errorf("logistic_regression: labels must be 0 or 1, got %v", label)
		}
	}

	nFeatures := len(X[0])
	w := make([]float64, nFeatures)
	b := 0.0
	n := float64(len(X))

	for epoch := 0; epoch < t.epochs; epoch++ {
		gw := make([]float64, nFeatures)
		gb := 0.0

		for i, row := range X {
			p := sigmoid(dot(w, row) + b)
			d := p - y[i]

			for j, v := range row {
				gw[j] += d * v
			}

			gb += d
		}

		for j := range w {
			w[j] -= t.rate * (gw[j]/n + t.lambda*w[j])
		}

		b -= t.rate * gb / n
	}

	return &logisticModel{w: w, b: b}, nil
}

type logisticModel struct {
	w []float64
	b float64
}

// Predict implements Trained using a 0.5 probability threshold.
func (m *logisticModel) Predict(X [][]float64) ([]float64, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(proba))
	for i, p := range proba {
		if p[1] >= 0.5 {
			out[i] = 1
		}
	}

	return out, nil
}

// PredictProba implements ProbabilisticTrained; column c holds p(y=c).
func (m *logisticModel) PredictProba(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))

	for i, row := range X {
		if len(row) != len(m.w) {
			return nil, fmt.Errorf("logistic_regression: expected %d features, got %d", len(m.w), len(row))
		}

		p := sigmoid(dot(m.w, row) + m.b)
		out[i] = []float64{1 - p, p}
	}

	return out, nil
}

//////
// K-nearest neighbors.
//////

// KNN is a k-nearest-neighbors classifier over integer class labels.
//
// Hyperparameters:
//   - k: neighborhood size.
//   - weights: "uniform" or "distance" vote weighting.
type KNN struct{}

// Name implements Operator.
func (KNN) Name() string { return "knn" }

// Schema implements Operator.
func (KNN) Schema() *Schema {
	return NewSchema(
		IntParam("k", 1, 25).WithDefault(5),
		ChoiceParam("weights", "uniform", "distance").WithDefault("uniform"),
	)
}

// Build implements Operator.
func (KNN) Build(cfg Config) (Trainable, error) {
	k := cfg.Int("k", 5)
	if k < 1 {
		return nil, fmt.Errorf("knn: k must be at least 1, got %d", k)
	}

	weights := cfg.String("weights", "uniform")
	if weights != "uniform" && weights != "distance" {
		return nil, fmt.Errorf("knn: unknown vote weighting %q", weights)
	}

	return &knnTrainable{k: k, distanceWeighted: weights == "distance"}, nil
}

type knnTrainable struct {
	k                int
	distanceWeighted bool
}

// Fit implements Trainable by memorizing the training data.
func (t *knnTrainable) Fit(X [][]float64, y []float64) (Trained, error) {
	if err := checkXY(X, y); err != nil {
		return nil, fmt.Errorf("knn: %w", err)
	}

	if t.k > len(X) {
		return nil, fmt.Errorf("knn: k=%d exceeds %d training samples", t.k, len(X))
	}

	nClasses := 0
	for _, label := range y {
		c := int(label)
		if float64(c) != label || c < 0 {
			return nil, fmt.Errorf("knn: labels must be non-negative integers, got %v", label)
		}

		if c+1 > nClasses {
			nClasses = c + 1
		}
	}

	model := &knnModel{knnTrainable: *t, nClasses: nClasses}
	model.X = make([][]float64, len(X))
	model.y = make([]float64, len(y))
	copy(model.X, X)
	copy(model.y, y)

	return model, nil
}

type knnModel struct {
	knnTrainable

	X        [][]float64
	y        []float64
	nClasses int
}

// Predict implements Trained by plurality vote among the k nearest training
// points.
func (m *knnModel) Predict(X [][]float64) ([]float64, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(proba))
	for i, votes := range proba {
		best := 0
		for c, v := range votes {
			if v > votes[best] {
				best = c
			}
		}

		out[i] = float64(best)
	}

	return out, nil
}

// PredictProba implements ProbabilisticTrained with normalized vote mass per
// class.
func (m *knnModel) PredictProba(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))

	for i, row := range X {
		if len(row) != len(m.X[0]) {
			return nil, fmt.Errorf("knn: expected %d features, got %d", len(m.X[0]), len(row))
		}

		type neighbor struct {
			dist  float64
			label int
		}

		neighbors := make([]neighbor, len(m.X))
		for j, train := range m.X {
			neighbors[j] = neighbor{dist: euclidean(row, train), label: int(m.y[j])}
		}

		sort.Slice(neighbors, func(a, b int) bool { return neighbors[a].dist < neighbors[b].dist })

		votes := make([]float64, m.nClasses)
		total := 0.0

		for _, nb := range neighbors[:m.k] {
			weight := 1.0
			if m.distanceWeighted {
				weight = 1.0 / (nb.dist + 1e-9)
			}

			votes[nb.label] += weight
			total += weight
		}

		for c := range votes {
			votes[c] /= total
		}

		out[i] = votes
	}

	return out, nil
}

//////
// Shared helpers.
//////

func checkXY(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training set")
	}

	if len(X) != len(y) {
		return fmt.Errorf("%d rows but %d labels", len(X), len(y))
	}

	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("ragged row %d: %d features, expected %d", i, len(row), width)
		}
	}

	return nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}

	return s
}

func euclidean(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}

	return math.Sqrt(s)
}
