package engine

import (
	"fmt"
	"math/rand"

	"taxi-rl-go/internal/mdp"
)

// Model is what the runtime needs from a model builder: the transition
// table and the distribution the first state of an episode is drawn from.
type Model interface {
	Table() mdp.Table
	Initial() []float64
}

// StepLimiter is implemented by models registered with an episode cap. NewEnv
// uses it when the caller passes no limit.
type StepLimiter interface {
	MaxEpisodeSteps() int
}

// StepResult is the outcome of one Env.Step.
type StepResult struct {
	State     int
	Reward    float64
	Done      bool
	Truncated bool
}

// Env advances an episode over a discrete transition table.
type Env struct {
	table      mdp.Table
	initial    []float64
	nS         int
	nA         int
	maxSteps   int
	state      int
	lastAction int
	stepsTaken int
	rng        *rand.Rand
}

func NewEnv(model Model, maxSteps int, rng *rand.Rand) (*Env, error) {
	table := model.Table()
	nS, nA := table.NumStates(), table.NumActions()
	if nS == 0 || nA == 0 {
		return nil, ErrEmptyModel
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	initial := model.Initial()
	if len(initial) != nS {
		return nil, fmt.Errorf("initial distribution has %d entries for %d states: %w", len(initial), nS, ErrEmptyModel)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if maxSteps <= 0 {
		maxSteps = nS * nA
		if l, ok := model.(StepLimiter); ok && l.MaxEpisodeSteps() > 0 {
			maxSteps = l.MaxEpisodeSteps()
		}
	}
	return &Env{
		table:      table,
		initial:    initial,
		nS:         nS,
		nA:         nA,
		maxSteps:   maxSteps,
		lastAction: -1,
		rng:        rng,
	}, nil
}

func (e *Env) NumStates() int  { return e.nS }
func (e *Env) NumActions() int { return e.nA }
func (e *Env) MaxSteps() int   { return e.maxSteps }
func (e *Env) State() int      { return e.state }
func (e *Env) Steps() int      { return e.stepsTaken }

// LastAction is -1 until the first step after a reset.
func (e *Env) LastAction() int { return e.lastAction }

// Reset draws a new starting state from the initial distribution.
func (e *Env) Reset() int {
	e.state = mdp.SampleCategorical(e.initial, e.rng)
	e.lastAction = -1
	e.stepsTaken = 0
	return e.state
}

// ResetTo starts an episode from a fixed state.
func (e *Env) ResetTo(state int) error {
	if state < 0 || state >= e.nS {
		return fmt.Errorf("start state %d of %d: %w", state, e.nS, ErrBadState)
	}
	e.state = state
	e.lastAction = -1
	e.stepsTaken = 0
	return nil
}

func (e *Env) SampleAction() int {
	return e.rng.Intn(e.nA)
}

// Step applies action. Once the step budget is spent the episode is
// reported as truncated.
func (e *Env) Step(action int) (StepResult, error) {
	if action < 0 || action >= e.nA {
		return StepResult{}, fmt.Errorf("action %d: %w", action, ErrBadAction)
	}
	if e.stepsTaken >= e.maxSteps {
		return StepResult{State: e.state, Truncated: true}, nil
	}
	outcomes := e.table[e.state][action]
	tr := outcomes[0]
	if len(outcomes) > 1 {
		probs := make([]float64, len(outcomes))
		for i, o := range outcomes {
			probs[i] = o.Probability
		}
		tr = outcomes[mdp.SampleCategorical(probs, e.rng)]
	}
	e.state = tr.Next
	e.lastAction = action
	e.stepsTaken++
	return StepResult{
		State:     tr.Next,
		Reward:    tr.Reward,
		Done:      tr.Done,
		Truncated: !tr.Done && e.stepsTaken >= e.maxSteps,
	}, nil
}
