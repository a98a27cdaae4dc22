package smaccv

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pipetune/smaccv/pipeline"
)

//////
// Search-space translation.
//////

// ConfigurationSpace is the formal search domain the optimizer samples from:
// the operator's hyperparameter schema translated into a samplable,
// vector-encodable form. Numeric ranges keep their bounds, categoricals keep
// their choices, and conditional parameters stay tied to their parents, so
// every sampled configuration decodes back into a valid pipeline instance.
type ConfigurationSpace struct {
	op     pipeline.Operator
	schema *pipeline.Schema
}

// SpaceFromOperator translates an operator's hyperparameter schema into a
// configuration space. maxGrids > 0 caps the number of discrete choice
// combinations the space exposes; 0 keeps all of them. A malformed or
// untranslatable schema yields a *SchemaError.
func SpaceFromOperator(op pipeline.Operator, maxGrids int) (*ConfigurationSpace, error) {
	schema := op.Schema()
	if schema == nil {
		return nil, &SchemaError{Operator: op.Name(), Err: fmt.Errorf("operator declares no schema")}
	}

	if err := schema.Validate(); err != nil {
		return nil, &SchemaError{Operator: op.Name(), Err: err}
	}

	// Prefixed("") deep-copies, so the grid cap never mutates the
	// operator's own schema.
	schema = schema.Prefixed("")
	if maxGrids > 0 {
		capGrids(schema, maxGrids)
	}

	return &ConfigurationSpace{op: op, schema: schema}, nil
}

// Dim is the number of parameters in the space, which is also the length of
// the vectors produced by Vector.
func (cs *ConfigurationSpace) Dim() int { return len(cs.schema.Params) }

// GridCount is the number of discrete choice combinations the space exposes
// (the product of the categorical cardinalities; 1 when there are none).
func (cs *ConfigurationSpace) GridCount() int {
	count := 1
	for _, p := range cs.schema.Params {
		if p.Kind == pipeline.KindChoice {
			count *= len(p.Choices)
		}
	}

	return count
}

// Sample draws one configuration. Parameters are visited in declaration
// order, so parents are assigned before their conditional children; inactive
// parameters are absent from the result. Log-scaled ranges sample uniformly
// in log space.
func (cs *ConfigurationSpace) Sample(rng *rand.Rand) pipeline.Config {
	cfg := pipeline.Config{}

	for _, p := range cs.schema.Params {
		if !cs.schema.Active(p, cfg) {
			continue
		}

		switch p.Kind {
		case pipeline.KindFloat:
			cfg[p.Name] = sampleFloat(rng, p)
		case pipeline.KindInt:
			cfg[p.Name] = sampleInt(rng, p)
		case pipeline.KindChoice:
			cfg[p.Name] = p.Choices[rng.Intn(len(p.Choices))]
		}
	}

	return cfg
}

// Vector encodes a configuration as a fixed-length numeric point for the
// surrogate model: numeric parameters normalize to [0, 1] over their range
// (log ranges over their log range), categoricals map to a normalized choice
// index, and inactive parameters take the -1 sentinel.
func (cs *ConfigurationSpace) Vector(cfg pipeline.Config) []float64 {
	vec := make([]float64, len(cs.schema.Params))

	for i, p := range cs.schema.Params {
		if _, ok := cfg[p.Name]; !ok {
			vec[i] = -1
			continue
		}

		switch p.Kind {
		case pipeline.KindFloat, pipeline.KindInt:
			vec[i] = normalize(cfg.Float(p.Name, p.Min), p)
		case pipeline.KindChoice:
			idx := 0
			v := cfg.String(p.Name, "")

			for j, c := range p.Choices {
				if c == v {
					idx = j
					break
				}
			}

			if len(p.Choices) > 1 {
				vec[i] = float64(idx) / float64(len(p.Choices)-1)
			}
		}
	}

	return vec
}

// Decode materializes a configuration into a trainable pipeline instance via
// the operator the space was built from.
func (cs *ConfigurationSpace) Decode(cfg pipeline.Config) (pipeline.Trainable, error) {
	return cs.op.Build(cfg)
}

//////
// Helpers.
//////

func sampleFloat(rng *rand.Rand, p pipeline.Param) float64 {
	if p.Log {
		lo, hi := math.Log(p.Min), math.Log(p.Max)

		return math.Exp(lo + rng.Float64()*(hi-lo))
	}

	return p.Min + rng.Float64()*(p.Max-p.Min)
}

func sampleInt(rng *rand.Rand, p pipeline.Param) int {
	lo, hi := int(p.Min), int(p.Max)

	if p.Log {
		v := int(math.Round(sampleFloat(rng, p)))

		return clampInt(v, lo, hi)
	}

	return lo + rng.Intn(hi-lo+1)
}

func normalize(v float64, p pipeline.Param) float64 {
	lo, hi := p.Min, p.Max
	if p.Log {
		v, lo, hi = math.Log(v), math.Log(p.Min), math.Log(p.Max)
	}

	if hi == lo {
		return 0
	}

	return clampFloat((v-lo)/(hi-lo), 0, 1)
}

// capGrids trims categorical choice sets in place until the cross-product of
// their cardinalities fits maxGrids. The widest parameter loses its trailing
// choice first; declared defaults are never dropped.
func capGrids(schema *pipeline.Schema, maxGrids int) {
	product := func() int {
		n := 1
		for _, p := range schema.Params {
			if p.Kind == pipeline.KindChoice {
				n *= len(p.Choices)
			}
		}

		return n
	}

	for product() > maxGrids {
		widest := -1
		for i, p := range schema.Params {
			if p.Kind != pipeline.KindChoice || len(p.Choices) < 2 {
				continue
			}

			if widest == -1 || len(p.Choices) > len(schema.Params[widest].Choices) {
				widest = i
			}
		}

		if widest == -1 {
			// Every categorical is down to one choice; nothing left
			// to trim.
			return
		}

		p := &schema.Params[widest]
		drop := len(p.Choices) - 1

		if def, ok := p.Default.(string); ok && p.Choices[drop] == def {
			drop--
		}

		p.Choices = append(p.Choices[:drop], p.Choices[drop+1:]...)
	}
}
