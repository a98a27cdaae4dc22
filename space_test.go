package smaccv

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipetune/smaccv/pipeline"
)

func TestSampledConfigsAlwaysDecode(t *testing.T) {
	operators := []pipeline.Operator{
		pipeline.LogisticRegression{},
		pipeline.KNN{},
		pipeline.Choice(pipeline.LogisticRegression{}, pipeline.KNN{}),
		pipeline.Pipeline{Estimator: pipeline.LogisticRegression{}},
	}

	for _, op := range operators {
		t.Run(op.Name(), func(t *testing.T) {
			space, err := SpaceFromOperator(op, 0)
			require.NoError(t, err)

			rng := rand.New(rand.NewSource(42))

			for i := 0; i < 200; i++ {
				cfg := space.Sample(rng)

				_, err := space.Decode(cfg)
				require.NoError(t, err, "sample %d: %v", i, cfg)
			}
		})
	}
}

func TestSamplingRespectsConditionals(t *testing.T) {
	space, err := SpaceFromOperator(pipeline.LogisticRegression{}, 0)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	sawL2, sawNone := false, false

	for i := 0; i < 200; i++ {
		cfg := space.Sample(rng)

		_, hasLambda := cfg["lambda"]
		if cfg.String("penalty", "") == "l2" {
			sawL2 = true
			assert.True(t, hasLambda, "lambda must be sampled while penalty is l2")
		} else {
			sawNone = true
			assert.False(t, hasLambda, "lambda must be absent while penalty is none")
		}
	}

	assert.True(t, sawL2)
	assert.True(t, sawNone)
}

func TestSamplingHonorsBounds(t *testing.T) {
	space, err := SpaceFromOperator(pipeline.LogisticRegression{}, 0)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 100; i++ {
		cfg := space.Sample(rng)

		lr := cfg.Float("lr", -1)
		assert.GreaterOrEqual(t, lr, 1e-4)
		assert.LessOrEqual(t, lr, 1.0)

		epochs := cfg.Int("epochs", -1)
		assert.GreaterOrEqual(t, epochs, 10)
		assert.LessOrEqual(t, epochs, 200)
	}
}

func TestSamplingIsDeterministic(t *testing.T) {
	op := pipeline.Choice(pipeline.LogisticRegression{}, pipeline.KNN{})

	sample := func() []pipeline.Config {
		space, err := SpaceFromOperator(op, 0)
		require.NoError(t, err)

		rng := rand.New(rand.NewSource(42))

		out := make([]pipeline.Config, 20)
		for i := range out {
			out[i] = space.Sample(rng)
		}

		return out
	}

	assert.Equal(t, sample(), sample())
}

func TestGridCapReducesChoiceCombinations(t *testing.T) {
	op := pipeline.Choice(pipeline.LogisticRegression{}, pipeline.KNN{})

	full, err := SpaceFromOperator(op, 0)
	require.NoError(t, err)
	// estimator(2) x penalty(2) x weights(2)
	assert.Equal(t, 8, full.GridCount())

	capped, err := SpaceFromOperator(op, 4)
	require.NoError(t, err)
	assert.LessOrEqual(t, capped.GridCount(), 4)

	// The cap never mutates the operator's own schema.
	again, err := SpaceFromOperator(op, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, again.GridCount())
}

func TestGridCapKeepsDeclaredDefaults(t *testing.T) {
	op := pipeline.LogisticRegression{}

	capped, err := SpaceFromOperator(op, 1)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 20; i++ {
		cfg := capped.Sample(rng)
		assert.Equal(t, "none", cfg.String("penalty", ""), "the default choice survives the cap")
	}
}

func TestVectorEncoding(t *testing.T) {
	space, err := SpaceFromOperator(pipeline.LogisticRegression{}, 0)
	require.NoError(t, err)

	assert.Equal(t, 4, space.Dim())

	vec := space.Vector(pipeline.Config{
		"lr":      1e-4,
		"epochs":  200,
		"penalty": "none",
	})

	require.Len(t, vec, 4)
	assert.Equal(t, 0.0, vec[0])  // lr at its lower bound
	assert.Equal(t, 1.0, vec[1])  // epochs at its upper bound
	assert.Equal(t, 0.0, vec[2])  // first choice
	assert.Equal(t, -1.0, vec[3]) // inactive lambda takes the sentinel

	withLambda := space.Vector(pipeline.Config{
		"lr":      1e-4,
		"epochs":  10,
		"penalty": "l2",
		"lambda":  1.0,
	})
	assert.Equal(t, 1.0, withLambda[2]) // second choice
	assert.Equal(t, 1.0, withLambda[3])
}

type badSchemaOp struct{}

func (badSchemaOp) Name() string { return "bad_schema" }

func (badSchemaOp) Schema() *pipeline.Schema {
	return pipeline.NewSchema(pipeline.FloatParam("x", 2.0, 1.0))
}

func (badSchemaOp) Build(pipeline.Config) (pipeline.Trainable, error) {
	return nil, errors.New("unreachable")
}

func TestMalformedSchemaYieldsSchemaError(t *testing.T) {
	_, err := SpaceFromOperator(badSchemaOp{}, 0)
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "bad_schema", schemaErr.Operator)
}
