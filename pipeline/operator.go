package pipeline

import (
	"encoding/json"
	"fmt"
)

//////
// Core contracts.
//////

// Config is one concrete assignment of values to an operator's
// hyperparameters. Keys are parameter names from the operator's Schema;
// parameters that are inactive under the current choice values are absent.
type Config map[string]any

// Trained is a fitted pipeline instance ready for prediction.
type Trained interface {
	// Predict returns one prediction per row of X.
	Predict(X [][]float64) ([]float64, error)
}

// ProbabilisticTrained is implemented by trained estimators that can produce
// per-class probabilities. The capability is optional; callers probe for it
// with a type assertion and fall back gracefully when it is missing.
type ProbabilisticTrained interface {
	Trained

	// PredictProba returns, for each row of X, a probability per class
	// indexed by class label.
	PredictProba(X [][]float64) ([][]float64, error)
}

// Trainable is an instantiated but not yet fitted pipeline.
type Trainable interface {
	// Fit trains on the given data and returns the trained instance. The
	// Trainable itself is not mutated; Fit may be called repeatedly.
	Fit(X [][]float64, y []float64) (Trained, error)
}

// Operator is an untrained pipeline definition with a declared hyperparameter
// schema. Implementations must be immutable: Schema and Build may be called
// any number of times, concurrently or not, with identical results.
type Operator interface {
	// Name identifies the operator, e.g. "logistic_regression". Composite
	// operators use the member names to namespace their merged schemas, so
	// names must be unique within a composite.
	Name() string

	// Schema declares the operator's hyperparameters.
	Schema() *Schema

	// Build materializes a configuration into a trainable instance. Missing
	// keys fall back to the schema defaults; an invalid configuration
	// returns an error.
	Build(cfg Config) (Trainable, error)
}

//////
// Config accessors.
//////

// Float reads a float-valued hyperparameter, tolerating integer values, and
// returns def when the key is absent.
func (c Config) Float(name string, def float64) float64 {
	v, ok := c[name]
	if !ok {
		return def
	}

	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}

	return def
}

// Int reads an integer-valued hyperparameter, tolerating float values, and
// returns def when the key is absent.
func (c Config) Int(name string, def int) int {
	v, ok := c[name]
	if !ok {
		return def
	}

	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}

	return def
}

// String reads a categorical hyperparameter and returns def when the key is
// absent or not a string.
func (c Config) String(name, def string) string {
	if v, ok := c[name].(string); ok {
		return v
	}

	return def
}

// Scoped returns the sub-configuration addressed by prefix, with the prefix
// stripped from the keys. Composite operators use it to hand each member its
// own slice of the merged configuration.
func (c Config) Scoped(prefix string) Config {
	sub := Config{}

	for k, v := range c {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			sub[k[len(prefix):]] = v
		}
	}

	return sub
}

// Describe renders a compact JSON description of an operator and one of its
// configurations. It is used in diagnostic logs when a trial fails, standing
// in for a full pipeline serialization.
func Describe(op Operator, cfg Config) string {
	doc := struct {
		Operator string `json:"operator"`
		Config   Config `json:"config"`
	}{Operator: op.Name(), Config: cfg}

	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Sprintf("{%q: unserializable config}", op.Name())
	}

	return string(b)
}
