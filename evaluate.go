package smaccv

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/pipetune/smaccv/pipeline"
)

//////
// Objective evaluation.
//////

// evaluator wraps the cross-validated train/score loop as the black-box
// objective the optimizer minimizes. It holds no mutable state across
// evaluations; run-history bookkeeping belongs to the driver.
type evaluator struct {
	op              pipeline.Operator
	X               [][]float64
	y               []float64
	splitter        pipeline.Splitter
	scorer          pipeline.Scorer
	bestScore       float64
	handleCVFailure bool

	// rng shuffles the fallback 80/20 split.
	rng *rand.Rand
	log *slog.Logger
}

// evaluate runs one trial for the sampled configuration: decode it into a
// trainable pipeline, cross-validate, and convert the mean score to a loss
// (bestScore - score, lower is better).
//
// When cross-validation fails and handleCVFailure is set, the trial falls
// back to a single randomized 80/20 train/validation split. Otherwise the
// trial is recorded as crashed with the crash cost, and the diagnostic log
// carries the serialized pipeline.
func (e *evaluator) evaluate(cfg pipeline.Config) TrialRecord {
	start := time.Now()

	trainable, err := e.op.Build(cfg)
	if err != nil {
		return e.crashed(cfg, start, err)
	}

	score, logloss, err := e.crossValScore(trainable)
	if err != nil {
		if !e.handleCVFailure {
			return e.crashed(cfg, start, err)
		}

		e.log.Debug("cross-validation failed, falling back to single split",
			"operator", e.op.Name(), "error", err.Error())

		score, logloss, err = e.fallbackSplit(trainable)
		if err != nil {
			return e.crashed(cfg, start, err)
		}
	}

	return TrialRecord{
		Config:  cfg,
		Loss:    e.bestScore - score,
		Elapsed: time.Since(start),
		LogLoss: logloss,
		Status:  TrialSuccess,
	}
}

// crossValScore fits and scores the trainable on every fold, returning the
// mean score and the mean auxiliary log-loss. The log-loss is 0 when the
// estimator type cannot produce probabilities; a failing fold fails the
// whole cross-validation.
func (e *evaluator) crossValScore(trainable pipeline.Trainable) (score, logloss float64, err error) {
	folds, err := e.splitter.Split(len(e.X))
	if err != nil {
		return 0, 0, err
	}

	var scoreSum, logSum float64
	computable := 0

	for _, fold := range folds {
		trainX, trainY := pipeline.Subset(e.X, e.y, fold.Train)
		testX, testY := pipeline.Subset(e.X, e.y, fold.Test)

		trained, err := trainable.Fit(trainX, trainY)
		if err != nil {
			return 0, 0, err
		}

		pred, err := trained.Predict(testX)
		if err != nil {
			return 0, 0, err
		}

		scoreSum += e.scorer(testY, pred)

		if ll, ok := e.tryLogLoss(trained, testX, testY); ok {
			logSum += ll
			computable++
		}
	}

	score = scoreSum / float64(len(folds))
	if computable > 0 {
		logloss = logSum / float64(computable)
	}

	return score, logloss, nil
}

// fallbackSplit scores the trainable on one randomized 80/20
// train/validation split. Log-loss stays best effort: 0 when it cannot be
// computed.
func (e *evaluator) fallbackSplit(trainable pipeline.Trainable) (score, logloss float64, err error) {
	trainIdx, testIdx, err := pipeline.TrainTestSplit(e.rng, len(e.X), 0.20)
	if err != nil {
		return 0, 0, err
	}

	trainX, trainY := pipeline.Subset(e.X, e.y, trainIdx)
	testX, testY := pipeline.Subset(e.X, e.y, testIdx)

	trained, err := trainable.Fit(trainX, trainY)
	if err != nil {
		return 0, 0, err
	}

	pred, err := trained.Predict(testX)
	if err != nil {
		return 0, 0, err
	}

	score = e.scorer(testY, pred)

	ll, ok := e.tryLogLoss(trained, testX, testY)
	if !ok {
		e.log.Debug("log loss cannot be computed for fallback split", "operator", e.op.Name())
	}

	logloss = ll

	return score, logloss, nil
}

func (e *evaluator) tryLogLoss(trained pipeline.Trained, X [][]float64, y []float64) (float64, bool) {
	prob, ok := trained.(pipeline.ProbabilisticTrained)
	if !ok {
		return 0, false
	}

	proba, err := prob.PredictProba(X)
	if err != nil {
		return 0, false
	}

	ll, err := pipeline.LogLoss(y, proba)
	if err != nil {
		return 0, false
	}

	return ll, true
}

// crashed records a failed trial with the crash cost and logs the serialized
// pipeline for diagnostics.
func (e *evaluator) crashed(cfg pipeline.Config, start time.Time, cause error) TrialRecord {
	terr := &TrialError{Pipeline: pipeline.Describe(e.op, cfg), Err: cause}

	e.log.Warn("trial evaluation failed, recording crash cost",
		"pipeline", terr.Pipeline, "error", cause.Error())

	return TrialRecord{
		Config:  cfg,
		Loss:    crashCost,
		Elapsed: time.Since(start),
		Status:  TrialCrashed,
		Error:   terr.Error(),
	}
}
