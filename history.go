package smaccv

import (
	"time"

	"github.com/pipetune/smaccv/pipeline"
)

//////
// Run history.
//////

// TrialStatus records how one trial ended.
type TrialStatus int

const (
	// TrialSuccess: the configuration was evaluated and produced a loss.
	TrialSuccess TrialStatus = iota

	// TrialCrashed: evaluation failed; the recorded cost is the crash
	// penalty.
	TrialCrashed
)

// String returns the status name.
func (s TrialStatus) String() string {
	switch s {
	case TrialSuccess:
		return "success"
	case TrialCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// TrialRecord is one evaluated configuration with its result.
type TrialRecord struct {
	// Config is the hyperparameter assignment the optimizer sampled.
	Config pipeline.Config

	// Loss is BestScore minus the observed score; lower is better. Crashed
	// trials record the crash penalty.
	Loss float64

	// Elapsed is the wall time spent fitting and scoring.
	Elapsed time.Duration

	// LogLoss is the auxiliary cross-entropy of the trial, 0 when it could
	// not be computed for the estimator type. It is advisory only and never
	// used for incumbent selection.
	LogLoss float64

	// Status records whether evaluation succeeded.
	Status TrialStatus

	// Error holds the failure description for crashed trials.
	Error string
}

// RunHistory is the ordered sequence of trial records across one search. It
// is created when the search starts, appended to per trial, and retained
// afterwards for inspection.
type RunHistory struct {
	trials []TrialRecord
}

func newRunHistory() *RunHistory {
	return &RunHistory{}
}

func (h *RunHistory) append(r TrialRecord) {
	h.trials = append(h.trials, r)
}

// Len returns the number of recorded trials.
func (h *RunHistory) Len() int { return len(h.trials) }

// Trials returns a copy of the records in evaluation order.
func (h *RunHistory) Trials() []TrialRecord {
	out := make([]TrialRecord, len(h.trials))
	copy(out, h.trials)

	return out
}

// Best returns the successful trial with the lowest loss, or ok=false when
// no trial succeeded. Ties keep the earliest trial.
func (h *RunHistory) Best() (TrialRecord, bool) {
	best := TrialRecord{}
	found := false

	for _, r := range h.trials {
		if r.Status != TrialSuccess {
			continue
		}

		if !found || r.Loss < best.Loss {
			best = r
			found = true
		}
	}

	return best, found
}
