package pipeline

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobs builds a deterministic linearly separable binary dataset: class 0
// clustered around (-2, -2), class 1 around (+2, +2).
func blobs(n int) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(7))

	X := make([][]float64, 0, 2*n)
	y := make([]float64, 0, 2*n)

	for i := 0; i < n; i++ {
		X = append(X, []float64{rng.NormFloat64()*0.5 - 2, rng.NormFloat64()*0.5 - 2})
		y = append(y, 0)

		X = append(X, []float64{rng.NormFloat64()*0.5 + 2, rng.NormFloat64()*0.5 + 2})
		y = append(y, 1)
	}

	return X, y
}

func TestLogisticRegressionLearnsSeparableData(t *testing.T) {
	X, y := blobs(30)

	trainable, err := LogisticRegression{}.Build(Config{"lr": 0.5, "epochs": 100})
	require.NoError(t, err)

	trained, err := trainable.Fit(X, y)
	require.NoError(t, err)

	pred, err := trained.Predict(X)
	require.NoError(t, err)
	assert.Greater(t, Accuracy(y, pred), 0.95)
}

func TestLogisticRegressionProbabilities(t *testing.T) {
	X, y := blobs(20)

	trainable, err := LogisticRegression{}.Build(Config{})
	require.NoError(t, err)

	trained, err := trainable.Fit(X, y)
	require.NoError(t, err)

	prob, ok := trained.(ProbabilisticTrained)
	require.True(t, ok)

	proba, err := prob.PredictProba(X)
	require.NoError(t, err)
	require.Len(t, proba, len(X))

	for _, row := range proba {
		require.Len(t, row, 2)
		assert.InDelta(t, 1.0, row[0]+row[1], 1e-9)
		assert.GreaterOrEqual(t, row[0], 0.0)
		assert.GreaterOrEqual(t, row[1], 0.0)
	}
}

func TestLogisticRegressionIsDeterministic(t *testing.T) {
	X, y := blobs(15)
	cfg := Config{"lr": 0.2, "epochs": 40}

	fit := func() []float64 {
		trainable, err := LogisticRegression{}.Build(cfg)
		require.NoError(t, err)

		trained, err := trainable.Fit(X, y)
		require.NoError(t, err)

		pred, err := trained.Predict(X)
		require.NoError(t, err)

		return pred
	}

	assert.Equal(t, fit(), fit())
}

func TestLogisticRegressionRejectsBadInput(t *testing.T) {
	_, err := LogisticRegression{}.Build(Config{"lr": -1.0})
	assert.Error(t, err)

	_, err = LogisticRegression{}.Build(Config{"epochs": 0})
	assert.Error(t, err)

	trainable, err := LogisticRegression{}.Build(Config{})
	require.NoError(t, err)

	_, err = trainable.Fit(nil, nil)
	assert.Error(t, err)

	_, err = trainable.Fit([][]float64{{1}, {2}}, []float64{0})
	assert.Error(t, err)

	_, err = trainable.Fit([][]float64{{1}, {2, 3}}, []float64{0, 1})
	assert.Error(t, err)

	// Non-binary labels.
	_, err = trainable.Fit([][]float64{{1}, {2}}, []float64{0, 3})
	assert.Error(t, err)
}

func TestLogisticRegressionFeatureMismatchAtPredict(t *testing.T) {
	X, y := blobs(10)

	trainable, err := LogisticRegression{}.Build(Config{})
	require.NoError(t, err)

	trained, err := trainable.Fit(X, y)
	require.NoError(t, err)

	_, err = trained.Predict([][]float64{{1, 2, 3}})
	assert.Error(t, err)
}

func TestKNNPredictsNearestClass(t *testing.T) {
	X, y := blobs(20)

	trainable, err := KNN{}.Build(Config{"k": 3})
	require.NoError(t, err)

	trained, err := trainable.Fit(X, y)
	require.NoError(t, err)

	pred, err := trained.Predict([][]float64{{-2, -2}, {2, 2}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, pred)
}

func TestKNNDistanceWeighting(t *testing.T) {
	// Two class-0 points far away, one class-1 point close: uniform k=3
	// votes 0, distance weighting votes 1.
	X := [][]float64{{0}, {10}, {10.5}}
	y := []float64{1, 0, 0}
	query := [][]float64{{0.1}}

	uniform, err := KNN{}.Build(Config{"k": 3, "weights": "uniform"})
	require.NoError(t, err)
	trainedU, err := uniform.Fit(X, y)
	require.NoError(t, err)
	predU, err := trainedU.Predict(query)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, predU)

	weighted, err := KNN{}.Build(Config{"k": 3, "weights": "distance"})
	require.NoError(t, err)
	trainedW, err := weighted.Fit(X, y)
	require.NoError(t, err)
	predW, err := trainedW.Predict(query)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, predW)
}

func TestKNNRejectsBadInput(t *testing.T) {
	_, err := KNN{}.Build(Config{"k": 0})
	assert.Error(t, err)

	_, err = KNN{}.Build(Config{"weights": "sideways"})
	assert.Error(t, err)

	trainable, err := KNN{}.Build(Config{"k": 5})
	require.NoError(t, err)

	// Fewer samples than k.
	_, err = trainable.Fit([][]float64{{1}, {2}}, []float64{0, 1})
	assert.Error(t, err)

	// Non-integer labels.
	_, err = trainable.Fit([][]float64{{1}, {2}, {3}, {4}, {5}}, []float64{0, 1, 0.5, 1, 0})
	assert.Error(t, err)
}

func TestOperatorSchemasValidate(t *testing.T) {
	for _, op := range []Operator{LogisticRegression{}, KNN{}} {
		assert.NoError(t, op.Schema().Validate(), op.Name())
	}
}
