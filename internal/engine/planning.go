package engine

import (
	"fmt"
	"math"
)

// Plan is the result of value iteration: the converged state values and the
// greedy policy with respect to them.
type Plan struct {
	Values     []float64
	Policy     []int
	Iterations int
	Delta      float64
}

// ValueIteration sweeps the Bellman optimality backup in place until the
// largest change in a sweep drops below theta or maxIterations is reached.
func ValueIteration(model Model, gamma, theta float64, maxIterations int) (Plan, error) {
	table := model.Table()
	nS, nA := table.NumStates(), table.NumActions()
	if nS == 0 || nA == 0 {
		return Plan{}, ErrEmptyModel
	}
	if gamma <= 0 || gamma > 1 {
		gamma = 0.99
	}
	if theta <= 0 {
		theta = 1e-9
	}
	if maxIterations <= 0 {
		maxIterations = 1000
	}
	values := newValueTable(nS)
	backup := func(s, a int) float64 {
		q := 0.0
		for _, tr := range table[s][a] {
			next := 0.0
			if !tr.Done {
				next = values.get(tr.Next)
			}
			q += tr.Probability * (tr.Reward + gamma*next)
		}
		return q
	}

	plan := Plan{}
	for plan.Iterations < maxIterations {
		plan.Iterations++
		delta := 0.0
		for s := 0; s < nS; s++ {
			best := math.Inf(-1)
			for a := 0; a < nA; a++ {
				best = math.Max(best, backup(s, a))
			}
			delta = math.Max(delta, values.update(s, best))
		}
		plan.Delta = delta
		if delta < theta {
			break
		}
	}

	plan.Policy = make([]int, nS)
	for s := 0; s < nS; s++ {
		bestAction, bestValue := 0, math.Inf(-1)
		for a := 0; a < nA; a++ {
			if q := backup(s, a); q > bestValue {
				bestAction, bestValue = a, q
			}
		}
		plan.Policy[s] = bestAction
	}
	plan.Values = values.cloneData()
	return plan, nil
}

// Evaluation summarizes rollouts of a fixed policy.
type Evaluation struct {
	Episodes    int
	MeanReturn  float64
	MeanSteps   float64
	SuccessRate float64
}

// EvaluatePolicy rolls policy out for the given number of episodes, each
// starting from the environment's initial distribution.
func EvaluatePolicy(env *Env, policy []int, episodes int) (Evaluation, error) {
	if len(policy) != env.NumStates() {
		return Evaluation{}, fmt.Errorf("%d actions for %d states: %w", len(policy), env.NumStates(), ErrPolicySize)
	}
	if episodes <= 0 {
		return Evaluation{}, nil
	}
	var totalReturn float64
	var totalSteps, successes int
	for ep := 0; ep < episodes; ep++ {
		env.Reset()
		ret, steps, ok, err := rollout(env, policy)
		if err != nil {
			return Evaluation{}, err
		}
		totalReturn += ret
		totalSteps += steps
		if ok {
			successes++
		}
	}
	n := float64(episodes)
	return Evaluation{
		Episodes:    episodes,
		MeanReturn:  totalReturn / n,
		MeanSteps:   float64(totalSteps) / n,
		SuccessRate: float64(successes) / n,
	}, nil
}

// EvaluateFromStates rolls policy out once from each listed start state.
// For a deterministic table this gives the exact expected return under a
// uniform initial distribution over starts.
func EvaluateFromStates(env *Env, policy []int, starts []int) (Evaluation, error) {
	if len(policy) != env.NumStates() {
		return Evaluation{}, fmt.Errorf("%d actions for %d states: %w", len(policy), env.NumStates(), ErrPolicySize)
	}
	if len(starts) == 0 {
		return Evaluation{}, nil
	}
	var totalReturn float64
	var totalSteps, successes int
	for _, s := range starts {
		if err := env.ResetTo(s); err != nil {
			return Evaluation{}, err
		}
		ret, steps, ok, err := rollout(env, policy)
		if err != nil {
			return Evaluation{}, err
		}
		totalReturn += ret
		totalSteps += steps
		if ok {
			successes++
		}
	}
	n := float64(len(starts))
	return Evaluation{
		Episodes:    len(starts),
		MeanReturn:  totalReturn / n,
		MeanSteps:   float64(totalSteps) / n,
		SuccessRate: float64(successes) / n,
	}, nil
}

func rollout(env *Env, policy []int) (float64, int, bool, error) {
	total := 0.0
	steps := 0
	for {
		res, err := env.Step(policy[env.State()])
		if err != nil {
			return 0, 0, false, err
		}
		total += res.Reward
		steps++
		if res.Done {
			return total, steps, true, nil
		}
		if res.Truncated {
			return total, steps, false, nil
		}
	}
}
