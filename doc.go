// Package smaccv tunes the hyperparameters of composable ML pipelines with
// SMAC-style sequential model-based optimization, scored by cross-validation.
//
// # Features
//
// The package includes the following key features:
//
//   - Schema translation: a pipeline's declared hyperparameter schema
//     (numeric ranges, categorical choices, conditional/nested parameters)
//     becomes a samplable configuration space, with an optional cap on the
//     number of discrete choice combinations
//   - Model-based search: a Gaussian-Process surrogate with selectable
//     acquisition functions (Upper Confidence Bound, Probability of
//     Improvement, Expected Improvement, Thompson Sampling) guides the
//     search after an initial random design
//   - Cross-validated objective: each sampled configuration is scored by
//     k-fold (or externally supplied) cross-validation, tracking the mean
//     score, an auxiliary log-loss, and the elapsed wall time
//   - Failure tolerance: a failing cross-validation can fall back to a
//     single 80/20 train/validation split instead of crashing the trial;
//     otherwise the trial records a maximal crash cost and the search
//     continues
//   - Budgets: run-count and wall-clock limits, checked between trials;
//     budget exhaustion terminates the search gracefully with whatever
//     incumbent exists
//   - Reproducibility: a fixed random seed makes the full run history and
//     the best configuration deterministic for identical inputs
//   - Progress monitoring: per-trial updates over an optional channel
//
// # Lifecycle
//
// A search moves through INIT -> RUNNING -> {DONE, BUDGET_EXCEEDED, FAILED}.
// Fit never surfaces search failures to the caller: they are logged through
// the injected slog.Logger and leave the tuner usable but empty, detectable
// via BestPipeline returning nil. Predict on an empty tuner returns the nil
// sentinel and logs a warning rather than failing.
//
// # Getting started
//
//	opts := smaccv.DefaultOptions()
//	opts.Estimator = pipeline.Pipeline{Estimator: pipeline.LogisticRegression{}}
//	opts.MaxEvals = 30
//	opts.MaxOptTime = 2 * time.Minute
//
//	tuner, err := smaccv.New(opts)
//	if err != nil {
//	    log.Fatal(err) // malformed schema or invalid options
//	}
//
//	predictions := tuner.Fit(XTrain, yTrain).Predict(XEval)
//
// The pipeline abstraction itself (operators, schemas, splitters, scorers)
// lives in the pipeline subpackage.
package smaccv
