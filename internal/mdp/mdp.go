// Package mdp holds the types shared between a model builder and the
// discrete runtime that consumes it.
package mdp

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrIncompleteTable = errors.New("mdp: incomplete transition table")
	ErrBadProbability  = errors.New("mdp: transition probabilities do not sum to 1")
	ErrZeroWeight      = errors.New("mdp: distribution has no weight")
)

const probabilityTolerance = 1e-9

// Transition is one possible outcome of taking an action in a state.
type Transition struct {
	Probability float64 `json:"probability"`
	Next        int     `json:"next"`
	Reward      float64 `json:"reward"`
	Done        bool    `json:"done"`
}

// Table is indexed as table[state][action] and lists every outcome of the pair.
type Table [][][]Transition

func NewTable(states, actions int) Table {
	t := make(Table, states)
	for s := range t {
		t[s] = make([][]Transition, actions)
	}
	return t
}

func (t Table) NumStates() int {
	return len(t)
}

func (t Table) NumActions() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// Validate checks that every (state, action) pair has at least one outcome,
// that outcomes point inside the table and that probabilities sum to 1.
func (t Table) Validate() error {
	nS := t.NumStates()
	nA := t.NumActions()
	if nS == 0 || nA == 0 {
		return ErrIncompleteTable
	}
	for s := 0; s < nS; s++ {
		if len(t[s]) != nA {
			return fmt.Errorf("state %d has %d actions, want %d: %w", s, len(t[s]), nA, ErrIncompleteTable)
		}
		for a := 0; a < nA; a++ {
			outcomes := t[s][a]
			if len(outcomes) == 0 {
				return fmt.Errorf("state %d action %d: %w", s, a, ErrIncompleteTable)
			}
			total := 0.0
			for _, tr := range outcomes {
				if tr.Next < 0 || tr.Next >= nS {
					return fmt.Errorf("state %d action %d leads to %d: %w", s, a, tr.Next, ErrIncompleteTable)
				}
				total += tr.Probability
			}
			if math.Abs(total-1) > probabilityTolerance {
				return fmt.Errorf("state %d action %d sums to %g: %w", s, a, total, ErrBadProbability)
			}
		}
	}
	return nil
}

// Normalize scales weights in place so they sum to 1.
func Normalize(weights []float64) error {
	total := floats.Sum(weights)
	if total <= 0 {
		return ErrZeroWeight
	}
	floats.Scale(1/total, weights)
	return nil
}

// SampleCategorical draws an index from dist using its cumulative sum.
// The last index with non-zero weight is returned if rounding leaves the
// draw past the final bucket.
func SampleCategorical(dist []float64, rng *rand.Rand) int {
	if len(dist) == 0 {
		return 0
	}
	cumulative := floats.CumSum(make([]float64, len(dist)), dist)
	u := rng.Float64() * cumulative[len(cumulative)-1]
	last := 0
	for i, c := range cumulative {
		if dist[i] > 0 {
			last = i
		}
		if u < c {
			return i
		}
	}
	return last
}
