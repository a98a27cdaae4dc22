package pipeline

import (
	"fmt"
	"math"
)

//////
// Standard scaler.
//////

// StandardScaler centers features to zero mean and unit variance. It is the
// preprocessing step of Pipeline; it can also be used standalone.
type StandardScaler struct {
	mean []float64
	std  []float64
}

// Fit computes per-feature means and standard deviations.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return fmt.Errorf("standard_scaler: empty input")
	}

	width := len(X[0])
	s.mean = make([]float64, width)
	s.std = make([]float64, width)
	n := float64(len(X))

	for _, row := range X {
		for j, v := range row {
			s.mean[j] += v
		}
	}

	for j := range s.mean {
		s.mean[j] /= n
	}

	for _, row := range X {
		for j, v := range row {
			d := v - s.mean[j]
			s.std[j] += d * d
		}
	}

	for j := range s.std {
		s.std[j] = math.Sqrt(s.std[j] / n)
		if s.std[j] == 0 {
			// Constant feature: leave it centered, not divided.
			s.std[j] = 1
		}
	}

	return nil
}

// Transform applies the fitted scaling to X.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	if s.mean == nil {
		return nil, fmt.Errorf("standard_scaler: not fitted")
	}

	out := make([][]float64, len(X))

	for i, row := range X {
		if len(row) != len(s.mean) {
			return nil, fmt.Errorf("standard_scaler: expected %d features, got %d", len(s.mean), len(row))
		}

		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.mean[j]) / s.std[j]
		}

		out[i] = scaled
	}

	return out, nil
}

//////
// Sequential pipeline.
//////

// Pipeline chains an optional standard-scaling step with an estimator. The
// estimator's hyperparameters appear in the merged schema under the
// "<estimator name>." prefix, next to the pipeline's own "scaling" choice.
type Pipeline struct {
	Estimator Operator
}

// Name implements Operator.
func (p Pipeline) Name() string { return "pipeline." + p.Estimator.Name() }

// Schema implements Operator.
func (p Pipeline) Schema() *Schema {
	merged := NewSchema(ChoiceParam("scaling", "standard", "none").WithDefault("standard"))
	merged.Params = append(merged.Params, p.Estimator.Schema().Prefixed(p.Estimator.Name()+".").Params...)

	return merged
}

// Build implements Operator.
func (p Pipeline) Build(cfg Config) (Trainable, error) {
	inner, err := p.Estimator.Build(cfg.Scoped(p.Estimator.Name() + "."))
	if err != nil {
		return nil, err
	}

	return &pipelineTrainable{
		scale: cfg.String("scaling", "standard") == "standard",
		inner: inner,
	}, nil
}

type pipelineTrainable struct {
	scale bool
	inner Trainable
}

// Fit implements Trainable: fit the scaler, transform, fit the estimator.
func (t *pipelineTrainable) Fit(X [][]float64, y []float64) (Trained, error) {
	model := &pipelineModel{}

	if t.scale {
		model.scaler = &StandardScaler{}
		if err := model.scaler.Fit(X); err != nil {
			return nil, err
		}

		scaled, err := model.scaler.Transform(X)
		if err != nil {
			return nil, err
		}

		X = scaled
	}

	trained, err := t.inner.Fit(X, y)
	if err != nil {
		return nil, err
	}

	model.inner = trained

	return model, nil
}

type pipelineModel struct {
	scaler *StandardScaler
	inner  Trained
}

func (m *pipelineModel) transform(X [][]float64) ([][]float64, error) {
	if m.scaler == nil {
		return X, nil
	}

	return m.scaler.Transform(X)
}

// Predict implements Trained.
func (m *pipelineModel) Predict(X [][]float64) ([]float64, error) {
	scaled, err := m.transform(X)
	if err != nil {
		return nil, err
	}

	return m.inner.Predict(scaled)
}

// PredictProba delegates to the estimator when it is probabilistic.
func (m *pipelineModel) PredictProba(X [][]float64) ([][]float64, error) {
	prob, ok := m.inner.(ProbabilisticTrained)
	if !ok {
		return nil, fmt.Errorf("pipeline: estimator does not produce probabilities")
	}

	scaled, err := m.transform(X)
	if err != nil {
		return nil, err
	}

	return prob.PredictProba(scaled)
}

//////
// Operator choice.
//////

// choiceSelector is the schema name of the categorical parameter that picks
// the active member of a Choice.
const choiceSelector = "estimator"

// Choice builds a composite operator that selects one of the given operators
// per configuration. The merged schema holds a categorical "estimator"
// selector plus each member's schema under the "<member name>." prefix;
// member parameters without a conditional parent of their own become active
// only while the selector picks that member, so the nested structure survives
// translation into a flat configuration space.
func Choice(ops ...Operator) Operator {
	return choiceOp{ops: ops}
}

type choiceOp struct {
	ops []Operator
}

// Name implements Operator.
func (c choiceOp) Name() string { return "choice" }

// Schema implements Operator.
func (c choiceOp) Schema() *Schema {
	names := make([]string, len(c.ops))
	for i, op := range c.ops {
		names[i] = op.Name()
	}

	merged := NewSchema(ChoiceParam(choiceSelector, names...))
	if len(c.ops) > 0 {
		merged.Params[0] = merged.Params[0].WithDefault(names[0])
	}

	for _, op := range c.ops {
		for _, p := range op.Schema().Prefixed(op.Name() + ".").Params {
			if p.Parent == "" {
				p = p.When(choiceSelector, op.Name())
			}

			merged.Params = append(merged.Params, p)
		}
	}

	return merged
}

// Build implements Operator.
func (c choiceOp) Build(cfg Config) (Trainable, error) {
	if len(c.ops) == 0 {
		return nil, fmt.Errorf("choice: no operators to choose from")
	}

	selected := cfg.String(choiceSelector, c.ops[0].Name())

	for _, op := range c.ops {
		if op.Name() == selected {
			return op.Build(cfg.Scoped(op.Name() + "."))
		}
	}

	return nil, fmt.Errorf("choice: unknown operator %q", selected)
}
