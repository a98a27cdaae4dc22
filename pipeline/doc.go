// Package pipeline defines the pipeline abstraction the tuner searches over:
// operators with a declared hyperparameter schema, the trainable/trained
// capability interfaces, cross-validation splitters, and scoring metrics.
//
// An Operator is an untrained pipeline definition. Build materializes one
// concrete hyperparameter assignment (a Config) into a Trainable, Fit turns a
// Trainable into a Trained predictor:
//
//	op := pipeline.LogisticRegression{}
//	trainable, err := op.Build(pipeline.Config{"lr": 0.05, "epochs": 80})
//	trained, err := trainable.Fit(X, y)
//	predictions, err := trained.Predict(X)
//
// Estimators that can produce class probabilities additionally implement
// ProbabilisticTrained; callers probe for the capability with a type
// assertion.
//
// Schemas support numeric ranges (linear or log scale), categorical choices,
// defaults, and conditional parameters that are only active under certain
// parent choice values. Composite operators (Pipeline, Choice) merge the
// schemas of their members under name prefixes so the search space of a whole
// pipeline stays flat and addressable.
package pipeline
