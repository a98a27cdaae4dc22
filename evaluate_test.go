package smaccv

import (
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipetune/smaccv/pipeline"
)

//////
// Test doubles.
//////

// echoOp predicts the first feature verbatim, so labels equal to that
// feature give a perfect score. It is deliberately not probabilistic.
type echoOp struct{}

func (echoOp) Name() string { return "echo" }

func (echoOp) Schema() *pipeline.Schema {
	return pipeline.NewSchema(pipeline.FloatParam("noise", 0.0, 1.0))
}

func (echoOp) Build(pipeline.Config) (pipeline.Trainable, error) {
	return echoTrainable{}, nil
}

type echoTrainable struct{}

func (echoTrainable) Fit(X [][]float64, y []float64) (pipeline.Trained, error) {
	if len(X) == 0 {
		return nil, errors.New("echo: empty training set")
	}

	return echoModel{}, nil
}

type echoModel struct{}

func (echoModel) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = row[0]
	}

	return out, nil
}

// failingOp builds fine but always fails to fit.
type failingOp struct{}

func (failingOp) Name() string { return "failing" }

func (failingOp) Schema() *pipeline.Schema {
	return pipeline.NewSchema(pipeline.FloatParam("x", 0.0, 1.0))
}

func (failingOp) Build(pipeline.Config) (pipeline.Trainable, error) {
	return failingTrainable{}, nil
}

type failingTrainable struct{}

func (failingTrainable) Fit([][]float64, []float64) (pipeline.Trained, error) {
	return nil, errors.New("fit exploded")
}

// emptyTrainSplitter yields a single fold that trains on nothing, so every
// fold of every trial fails during fit.
type emptyTrainSplitter struct{}

func (emptyTrainSplitter) Split(n int) ([]pipeline.Fold, error) {
	test := make([]int, n)
	for i := range test {
		test[i] = i
	}

	return []pipeline.Fold{{Train: nil, Test: test}}, nil
}

func echoDataset(n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)

	for i := range X {
		label := float64(i % 2)
		X[i] = []float64{label, float64(i)}
		y[i] = label
	}

	return X, y
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEvaluator(op pipeline.Operator, X [][]float64, y []float64) *evaluator {
	return &evaluator{
		op:       op,
		X:        X,
		y:        y,
		splitter: pipeline.NewKFold(2, 42),
		scorer:   pipeline.Accuracy,
		rng:      rand.New(rand.NewSource(9)),
		log:      discardLogger(),
	}
}

//////
// Tests.
//////

func TestEvaluateComputesLossFromScore(t *testing.T) {
	X, y := echoDataset(20)
	ev := newTestEvaluator(echoOp{}, X, y)

	rec := ev.evaluate(pipeline.Config{"noise": 0.5})

	assert.Equal(t, TrialSuccess, rec.Status)
	// Perfect accuracy with BestScore 0 gives loss -1.
	assert.Equal(t, -1.0, rec.Loss)
	// echoOp has no probabilities, so the auxiliary log-loss records 0.
	assert.Equal(t, 0.0, rec.LogLoss)
	assert.Greater(t, rec.Elapsed.Nanoseconds(), int64(0))
}

func TestEvaluateBestScoreShiftsLoss(t *testing.T) {
	X, y := echoDataset(20)
	ev := newTestEvaluator(echoOp{}, X, y)
	ev.bestScore = 1.0

	rec := ev.evaluate(pipeline.Config{})

	assert.Equal(t, 0.0, rec.Loss)
}

func TestEvaluateRecordsLogLossForProbabilisticEstimators(t *testing.T) {
	X := [][]float64{
		{-2, -2}, {2, 2}, {-2.2, -1.9}, {1.9, 2.1},
		{-1.8, -2.1}, {2.1, 1.8}, {-2.1, -2.2}, {1.8, 2.2},
	}
	y := []float64{0, 1, 0, 1, 0, 1, 0, 1}

	ev := newTestEvaluator(pipeline.LogisticRegression{}, X, y)

	rec := ev.evaluate(pipeline.Config{"lr": 0.5, "epochs": 100})

	require.Equal(t, TrialSuccess, rec.Status)
	assert.Greater(t, rec.LogLoss, 0.0)
}

func TestEvaluateCrashesWithoutFailureHandling(t *testing.T) {
	X, y := echoDataset(20)
	ev := newTestEvaluator(failingOp{}, X, y)

	rec := ev.evaluate(pipeline.Config{"x": 0.1})

	assert.Equal(t, TrialCrashed, rec.Status)
	assert.Equal(t, crashCost, rec.Loss)
	// The diagnostic carries the serialized pipeline and the cause.
	assert.Contains(t, rec.Error, `"failing"`)
	assert.Contains(t, rec.Error, "fit exploded")
}

func TestEvaluateFallsBackToSingleSplit(t *testing.T) {
	X, y := echoDataset(20)

	ev := newTestEvaluator(echoOp{}, X, y)
	ev.splitter = emptyTrainSplitter{}
	ev.handleCVFailure = true

	rec := ev.evaluate(pipeline.Config{})

	// Every fold fails, but the 80/20 fallback still produces a result.
	assert.Equal(t, TrialSuccess, rec.Status)
	assert.Equal(t, -1.0, rec.Loss)
}

func TestEvaluateCrashesWhenFallbackAlsoFails(t *testing.T) {
	X, y := echoDataset(20)

	ev := newTestEvaluator(failingOp{}, X, y)
	ev.handleCVFailure = true

	rec := ev.evaluate(pipeline.Config{})

	assert.Equal(t, TrialCrashed, rec.Status)
	assert.Equal(t, crashCost, rec.Loss)
}

func TestEvaluateCrashesOnUndecodableConfig(t *testing.T) {
	X, y := echoDataset(20)
	ev := newTestEvaluator(pipeline.LogisticRegression{}, X, y)

	rec := ev.evaluate(pipeline.Config{"lr": -5.0})

	assert.Equal(t, TrialCrashed, rec.Status)
	assert.Equal(t, crashCost, rec.Loss)
}
