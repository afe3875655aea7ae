package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxi-rl-go/internal/taxi"
)

func initialStates(model *taxi.Model) []int {
	var starts []int
	for s, p := range model.InitialDistribution {
		if p > 0 {
			starts = append(starts, s)
		}
	}
	return starts
}

func TestValueIterationSolvesTaxi(t *testing.T) {
	model := taxiModel(t)
	plan, err := ValueIteration(model, 1, 1e-10, 0)
	require.NoError(t, err)
	require.Less(t, plan.Delta, 1e-10)
	require.Len(t, plan.Policy, taxi.NumStates)

	starts := initialStates(model)
	require.Len(t, starts, taxi.NumStates/2)
	mean := 0.0
	for _, s := range starts {
		mean += plan.Values[s]
	}
	mean /= float64(len(starts))
	assert.InDelta(t, 9.191666, mean, 1e-5)

	env, err := NewEnv(model, taxi.MaxEpisodeSteps, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	eval, err := EvaluateFromStates(env, plan.Policy, starts)
	require.NoError(t, err)
	assert.Equal(t, 1.0, eval.SuccessRate)
	assert.InDelta(t, mean, eval.MeanReturn, 1e-9)
	assert.True(t, taxi.DefaultRegistration().Solved(eval.MeanReturn))
}

func TestEvaluatePolicy(t *testing.T) {
	model := taxiModel(t)
	plan, err := ValueIteration(model, 0.99, 0, 0)
	require.NoError(t, err)

	env, err := NewEnv(model, taxi.MaxEpisodeSteps, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	eval, err := EvaluatePolicy(env, plan.Policy, 300)
	require.NoError(t, err)
	assert.Equal(t, 300, eval.Episodes)
	assert.Equal(t, 1.0, eval.SuccessRate)
	assert.GreaterOrEqual(t, eval.MeanReturn, 4.0)
	assert.LessOrEqual(t, eval.MeanReturn, 20.0)

	// Driving north forever never delivers and runs to the step cap.
	stuck := make([]int, taxi.NumStates)
	for s := range stuck {
		stuck[s] = int(taxi.ActionNorth)
	}
	eval, err = EvaluatePolicy(env, stuck, 5)
	require.NoError(t, err)
	assert.Zero(t, eval.SuccessRate)
	assert.Equal(t, float64(taxi.MaxEpisodeSteps), eval.MeanSteps)

	_, err = EvaluatePolicy(env, stuck[:3], 1)
	assert.ErrorIs(t, err, ErrPolicySize)
}
