package smaccv

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pipetune/smaccv/pipeline"
)

//////
// Exported functionalities.
//////

// ExportFormat selects the representation ExportBest renders the best
// pipeline into.
type ExportFormat int

// FormatJSON renders the best pipeline as a portable JSON document holding
// the operator name, the resolved hyperparameters, and the observed loss,
// for consumption outside this library.
const FormatJSON ExportFormat = iota

// Tuner searches an operator's hyperparameter space with sequential
// model-based optimization, scoring each sampled configuration by
// cross-validation and materializing the best one into a pipeline trained on
// the full training set.
//
// Usage:
//
//	opts := smaccv.DefaultOptions()
//	opts.Estimator = pipeline.Choice(pipeline.LogisticRegression{}, pipeline.KNN{})
//	opts.MaxEvals = 25
//
//	tuner, err := smaccv.New(opts)
//	if err != nil {
//	    // the estimator's hyperparameter schema is malformed
//	}
//
//	tuner.Fit(XTrain, yTrain)
//
//	predictions := tuner.Predict(XEval)
//	if predictions == nil {
//	    // the search produced no usable pipeline; inspect tuner.Trials()
//	}
//
// Fit never surfaces search failures: budget exhaustion and evaluation
// errors are logged and leave the tuner usable but empty, detectable through
// BestPipeline returning nil. A Tuner is single-threaded; trials run to
// completion one after another.
type Tuner struct {
	opts  Options
	space *ConfigurationSpace
	log   *slog.Logger

	state      SearchState
	history    *RunHistory
	best       pipeline.Trained
	bestConfig pipeline.Config
	bestLoss   float64
}

// New validates the options and translates the estimator's hyperparameter
// schema into a configuration space. A schema that cannot be translated
// fails here, before any search starts, with a *SchemaError; an unknown
// scoring metric or invalid budget fails with a plain error.
func New(opts Options) (*Tuner, error) {
	opts = opts.withDefaults()

	if opts.MaxEvals < 1 {
		return nil, fmt.Errorf("max evals must be at least 1, got %d", opts.MaxEvals)
	}

	if opts.Splitter == nil && opts.CV < 2 {
		return nil, fmt.Errorf("cross-validation needs at least 2 folds, got %d", opts.CV)
	}

	if opts.Scorer == nil {
		scorer, err := pipeline.ScorerByName(opts.Scoring)
		if err != nil {
			return nil, err
		}

		opts.Scorer = scorer
	}

	space, err := SpaceFromOperator(opts.Estimator, opts.MaxGrids)
	if err != nil {
		return nil, err
	}

	return &Tuner{
		opts:    opts,
		space:   space,
		log:     opts.Logger.With("component", "smaccv", "operator", opts.Estimator.Name()),
		state:   StateInit,
		history: newRunHistory(),
	}, nil
}

// Fit runs the search over the training data and trains the best found
// configuration on the full training set. Search failures never propagate:
// budget exhaustion, trial crashes, and even panics out of estimator code
// are logged, and the tuner is left usable but empty (BestPipeline returns
// nil). Fit returns the tuner for chaining.
func (t *Tuner) Fit(X [][]float64, y []float64) *Tuner {
	t.state = StateRunning
	t.history = newRunHistory()
	t.best = nil
	t.bestConfig = nil
	t.bestLoss = 0

	rng := rand.New(rand.NewSource(t.opts.Seed))

	splitter := t.opts.Splitter
	if splitter == nil {
		splitter = pipeline.NewKFold(t.opts.CV, t.opts.Seed)
	}

	ev := &evaluator{
		op:              t.opts.Estimator,
		X:               X,
		y:               y,
		splitter:        splitter,
		scorer:          t.opts.Scorer,
		bestScore:       t.opts.BestScore,
		handleCVFailure: t.opts.HandleCVFailure,
		rng:             rand.New(rand.NewSource(t.opts.Seed + 1)),
		log:             t.log,
	}

	sc := scenario{
		runLimit:   t.opts.MaxEvals,
		wallClock:  t.opts.MaxOptTime,
		initial:    t.opts.InitialSamples,
		candidates: t.opts.NumCandidates,
		acq:        t.opts.Acquisition,
		acqParams: AcquisitionParams{
			Beta:        2.0,
			Xi:          0.01,
			BestSoFar:   crashCost,
			RandomState: rng,
		},
	}

	t.log.Info("starting hyperparameter search",
		"max_evals", sc.runLimit, "samples", len(X), "grids", t.space.GridCount())

	incumbent, err := t.search(sc, rng, ev)

	switch {
	case err == nil:
		if incumbent == nil {
			t.log.Warn("search completed without a successful trial")
			t.state = StateFailed

			return t
		}

		if !t.materialize(incumbent, X, y) {
			t.state = StateFailed

			return t
		}

		t.state = StateDone
		t.log.Info("search done", "trials", t.history.Len(), "best_loss", t.bestLoss)
	case errors.Is(err, ErrBudgetExhausted):
		// Expected termination: keep whatever incumbent exists,
		// best-effort.
		t.state = StateBudgetExceeded
		t.log.Warn("maximum allotted optimization time exceeded, optimization exited prematurely")

		if incumbent != nil {
			t.materialize(incumbent, X, y)
		}
	default:
		t.state = StateFailed
		t.log.Warn("error during optimization", "error", err.Error())
	}

	return t
}

// Predict delegates to the best estimator. When the estimator is absent, or
// prediction itself fails, Predict returns nil and logs a warning instead of
// propagating the failure; callers must check for the nil sentinel.
func (t *Tuner) Predict(X [][]float64) []float64 {
	if t.best == nil {
		t.log.Warn("predict called without a trained best estimator", "state", t.state.String())

		return nil
	}

	predictions, err := t.best.Predict(X)
	if err != nil {
		t.log.Warn("prediction with best estimator failed", "error", err.Error())

		return nil
	}

	return predictions
}

// Trials returns the full run history of the last search, retained after the
// search ends for inspection.
func (t *Tuner) Trials() *RunHistory { return t.history }

// State reports where the tuner is in its search lifecycle.
func (t *Tuner) State() SearchState { return t.state }

// BestPipeline returns the pipeline trained on the full training set with
// the best found configuration, or nil when the search produced none.
func (t *Tuner) BestPipeline() pipeline.Trained { return t.best }

// BestConfig returns a copy of the best found configuration, or nil.
func (t *Tuner) BestConfig() pipeline.Config {
	if t.bestConfig == nil {
		return nil
	}

	out := pipeline.Config{}
	for k, v := range t.bestConfig {
		out[k] = v
	}

	return out
}

// ExportBest renders the best pipeline into a foreign-ecosystem-compatible
// representation. It fails when the search produced no pipeline or the
// format is unknown.
func (t *Tuner) ExportBest(format ExportFormat) ([]byte, error) {
	if t.best == nil {
		return nil, fmt.Errorf("no best pipeline: search state is %s", t.state)
	}

	if format != FormatJSON {
		return nil, fmt.Errorf("unknown export format %d", format)
	}

	doc := struct {
		Operator string          `json:"operator"`
		Config   pipeline.Config `json:"config"`
		Loss     float64         `json:"loss"`
	}{Operator: t.opts.Estimator.Name(), Config: t.bestConfig, Loss: t.bestLoss}

	return json.MarshalIndent(doc, "", "  ")
}

//////
// Unexported functionalities.
//////

// search runs the optimizer loop, converting panics out of estimator code
// into a *SearchError so Fit can treat them as the unrecoverable catch-all.
func (t *Tuner) search(sc scenario, rng *rand.Rand, ev *evaluator) (incumbent pipeline.Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			incumbent = nil
			err = &SearchError{Err: fmt.Errorf("panic during search: %v", r)}
		}
	}()

	return runSearch(t.space, sc, rng, t.history, ev.evaluate, t.opts.ProgressChan, t.log)
}

// materialize trains the incumbent configuration on the full training set,
// never on a validation subset. Failures are logged and leave the best
// estimator absent.
func (t *Tuner) materialize(incumbent pipeline.Config, X [][]float64, y []float64) bool {
	trainable, err := t.space.Decode(incumbent)
	if err != nil {
		t.log.Warn("failed to rebuild incumbent pipeline",
			"pipeline", pipeline.Describe(t.opts.Estimator, incumbent), "error", err.Error())

		return false
	}

	trained, err := trainable.Fit(X, y)
	if err != nil {
		t.log.Warn("failed to train incumbent on full training set",
			"pipeline", pipeline.Describe(t.opts.Estimator, incumbent), "error", err.Error())

		return false
	}

	t.best = trained
	t.bestConfig = incumbent

	if rec, ok := t.history.Best(); ok {
		t.bestLoss = rec.Loss
	}

	return true
}
