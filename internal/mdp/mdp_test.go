package mdp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableValidate(t *testing.T) {
	table := NewTable(2, 2)
	require.ErrorIs(t, table.Validate(), ErrIncompleteTable)

	for s := 0; s < 2; s++ {
		for a := 0; a < 2; a++ {
			table[s][a] = []Transition{{Probability: 1, Next: 1 - s, Reward: -1}}
		}
	}
	require.NoError(t, table.Validate())

	table[1][0] = []Transition{{Probability: 0.5, Next: 0}}
	require.ErrorIs(t, table.Validate(), ErrBadProbability)

	table[1][0] = []Transition{{Probability: 1, Next: 7}}
	require.ErrorIs(t, table.Validate(), ErrIncompleteTable)
}

func TestNormalize(t *testing.T) {
	weights := []float64{1, 0, 3}
	require.NoError(t, Normalize(weights))
	assert.InDelta(t, 0.25, weights[0], 1e-12)
	assert.Zero(t, weights[1])
	assert.InDelta(t, 0.75, weights[2], 1e-12)

	require.ErrorIs(t, Normalize([]float64{0, 0}), ErrZeroWeight)
}

func TestSampleCategoricalSkipsZeroWeight(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	dist := []float64{0, 0.5, 0, 0.5}
	counts := make([]int, len(dist))
	for i := 0; i < 2000; i++ {
		counts[SampleCategorical(dist, rng)]++
	}
	assert.Zero(t, counts[0])
	assert.Zero(t, counts[2])
	assert.Greater(t, counts[1], 800)
	assert.Greater(t, counts[3], 800)
}
