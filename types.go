package smaccv

import (
	"log/slog"
	"time"

	"github.com/pipetune/smaccv/pipeline"
)

//////
// Const, vars, types.
//////

// SearchState is the lifecycle of one search:
//
//	INIT -> RUNNING -> {DONE, BUDGET_EXCEEDED, FAILED}
type SearchState int

const (
	// StateInit: the tuner is constructed and validated; no search has run.
	StateInit SearchState = iota

	// StateRunning: Fit is executing the search loop.
	StateRunning

	// StateDone: the search finished within budget and the best estimator
	// is trained on the full training set.
	StateDone

	// StateBudgetExceeded: the wall-clock limit hit mid-search. Whatever
	// incumbent existed is kept best-effort; the best estimator may remain
	// absent if no trial completed.
	StateBudgetExceeded

	// StateFailed: an unrecoverable, non-budget error aborted the search.
	// The best estimator is absent and the run history is diagnostic only.
	StateFailed
)

// String returns the state name.
func (s SearchState) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateRunning:
		return "RUNNING"
	case StateDone:
		return "DONE"
	case StateBudgetExceeded:
		return "BUDGET_EXCEEDED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// TrialUpdate is sent on Options.ProgressChan after each evaluated trial.
type TrialUpdate struct {
	// Phase is "InitialSampling" or "Optimization".
	Phase string

	// Trial is the 1-based index of the evaluated trial.
	Trial int

	// MaxTrials is the run-count budget of the search.
	MaxTrials int

	// Loss is the loss of this trial.
	Loss float64

	// BestLoss is the incumbent loss after this trial.
	BestLoss float64
}

// Options configures a Tuner. Zero values fall back to the defaults
// documented per field; DefaultOptions returns the fully populated baseline.
type Options struct {
	// Estimator is the operator or pipeline whose hyperparameters are
	// searched. Defaults to pipeline.LogisticRegression.
	Estimator pipeline.Operator

	// MaxEvals is the trial budget of the search (run-count limit).
	// Defaults to 50.
	MaxEvals int

	// CV is the number of cross-validation folds per trial. Defaults to 5.
	// Ignored when Splitter is set.
	CV int

	// Splitter overrides the built-in k-fold splitter with an externally
	// supplied cross-validation strategy.
	Splitter pipeline.Splitter

	// HandleCVFailure selects the failure path for a trial whose
	// cross-validation raises: when true, the trial falls back to a single
	// randomized 80/20 train/validation split instead of crashing; when
	// false, the trial is marked crashed with the maximal cost.
	HandleCVFailure bool

	// Scoring names the metric, resolved via pipeline.ScorerByName.
	// Defaults to "accuracy". Ignored when Scorer is set.
	Scoring string

	// Scorer overrides Scoring with a custom metric. Higher must be better.
	Scorer pipeline.Scorer

	// BestScore is the best possible value of the metric; per-trial loss is
	// BestScore minus the observed score. Defaults to 0, so accuracy-like
	// metrics yield negative losses with the same ordering.
	BestScore float64

	// MaxOptTime bounds the aggregate wall-clock time of the search. The
	// budget is checked between trials only; a running trial is never
	// interrupted. Zero means unbounded.
	MaxOptTime time.Duration

	// MaxGrids caps the number of discrete choice combinations the
	// translated configuration space exposes. Zero keeps all combinations.
	MaxGrids int

	// Seed drives all sampling for reproducibility: a fixed seed with
	// identical inputs produces an identical run history and best
	// configuration. Defaults to 42.
	Seed int64

	// InitialSamples is the number of random configurations evaluated
	// before the surrogate model guides the search. Defaults to 10, capped
	// at MaxEvals.
	InitialSamples int

	// NumCandidates is the number of candidate configurations scored by the
	// acquisition function per guided trial. Defaults to 50.
	NumCandidates int

	// Acquisition selects the next configuration to evaluate among the
	// candidates. Defaults to ExpectedImprovement.
	Acquisition AcquisitionFunc

	// Logger receives structured search diagnostics. Defaults to
	// slog.Default(). The tuner holds the reference it is given and never
	// reaches for ambient global state afterwards.
	Logger *slog.Logger

	// ProgressChan, when set, receives a TrialUpdate after each trial.
	// Sends are non-blocking: updates are dropped if the channel is full.
	ProgressChan chan<- TrialUpdate
}

// DefaultOptions returns the baseline configuration: logistic regression,
// 50 trials, 5-fold CV, accuracy scoring, seed 42, no wall-clock bound.
func DefaultOptions() Options {
	return Options{
		Estimator:      pipeline.LogisticRegression{},
		MaxEvals:       50,
		CV:             5,
		Scoring:        "accuracy",
		Seed:           42,
		InitialSamples: 10,
		NumCandidates:  50,
		Acquisition:    ExpectedImprovement,
	}
}

// withDefaults fills unset fields with the baseline values.
func (o Options) withDefaults() Options {
	def := DefaultOptions()

	if o.Estimator == nil {
		o.Estimator = def.Estimator
	}

	if o.MaxEvals == 0 {
		o.MaxEvals = def.MaxEvals
	}

	if o.CV == 0 {
		o.CV = def.CV
	}

	if o.Scoring == "" {
		o.Scoring = def.Scoring
	}

	if o.Seed == 0 {
		o.Seed = def.Seed
	}

	if o.InitialSamples == 0 {
		o.InitialSamples = def.InitialSamples
	}

	if o.InitialSamples > o.MaxEvals {
		o.InitialSamples = o.MaxEvals
	}

	if o.NumCandidates == 0 {
		o.NumCandidates = def.NumCandidates
	}

	if o.Acquisition == nil {
		o.Acquisition = def.Acquisition
	}

	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	return o
}
