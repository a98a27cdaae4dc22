package smaccv

import (
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/pipetune/smaccv/pipeline"
)

//////
// Search loop.
//////

// scenario bounds one search: a run-count limit, an optional wall-clock
// limit, and the sampling strategy knobs.
type scenario struct {
	runLimit   int
	wallClock  time.Duration
	initial    int
	candidates int
	acq        AcquisitionFunc
	acqParams  AcquisitionParams
}

// runSearch executes the sequential model-based search: an initial random
// design, then surrogate-guided trials where candidate configurations are
// scored by the acquisition function and the most promising one is
// evaluated. Every evaluated configuration is appended to history.
//
// The wall-clock budget is checked between trials only; a running trial is
// never interrupted. When the budget elapses, runSearch returns the
// incumbent found so far together with ErrBudgetExhausted.
//
// All sampling flows from the single rng, so a fixed seed reproduces the
// whole run. The returned configuration is nil when no trial succeeded.
func runSearch(
	space *ConfigurationSpace,
	sc scenario,
	rng *rand.Rand,
	history *RunHistory,
	objective func(pipeline.Config) TrialRecord,
	progress chan<- TrialUpdate,
	log *slog.Logger,
) (pipeline.Config, error) {
	gp := newGaussianProcess()

	var deadline time.Time
	if sc.wallClock > 0 {
		deadline = time.Now().Add(sc.wallClock)
	}

	var incumbent pipeline.Config
	incumbentLoss := math.MaxFloat64

	// Crashed trials feed the surrogate a penalty just above the worst
	// successful loss, steering the model away from the region without
	// flattening the kernel the way the raw crash cost would.
	worstLoss := 0.0

	for trial := 1; trial <= sc.runLimit; trial++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			log.Warn("wall-clock budget exhausted mid-search",
				"completed_trials", trial-1, "budget", sc.wallClock.String())

			return incumbent, ErrBudgetExhausted
		}

		var cfg pipeline.Config
		phase := "InitialSampling"

		if trial <= sc.initial {
			cfg = space.Sample(rng)
		} else {
			phase = "Optimization"
			sc.acqParams.BestSoFar = incumbentLoss
			bestAcq := math.MaxFloat64

			for j := 0; j < sc.candidates; j++ {
				candidate := space.Sample(rng)
				mean, variance := gp.Predict(space.Vector(candidate))

				if a := sc.acq(mean, variance, sc.acqParams); a < bestAcq {
					bestAcq = a
					cfg = candidate
				}
			}

			// Degenerate surrogate output (NaN acquisition across
			// the board) falls back to a random sample.
			if cfg == nil {
				cfg = space.Sample(rng)
			}
		}

		rec := objective(cfg)
		history.append(rec)

		observation := rec.Loss
		if rec.Status == TrialCrashed {
			observation = worstLoss + 1
		} else if rec.Loss > worstLoss {
			worstLoss = rec.Loss
		}

		gp.Update(space.Vector(cfg), observation)

		if rec.Status == TrialSuccess && rec.Loss < incumbentLoss {
			incumbent = cfg
			incumbentLoss = rec.Loss

			log.Debug("new incumbent",
				"trial", trial, "loss", rec.Loss, "duration_ms", rec.Elapsed.Milliseconds())
		}

		if progress != nil {
			update := TrialUpdate{
				Phase:     phase,
				Trial:     trial,
				MaxTrials: sc.runLimit,
				Loss:      rec.Loss,
				BestLoss:  incumbentLoss,
			}

			select {
			case progress <- update:
			default:
				// Skip the update if the channel is full.
			}
		}
	}

	return incumbent, nil
}
