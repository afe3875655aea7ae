package engine

import "fmt"

type qTable struct {
	states  int
	actions int
	data    []float64
}

func newQTable(states, actions int) *qTable {
	return &qTable{states: states, actions: actions, data: make([]float64, states*actions)}
}

func (q *qTable) get(state, action int) float64 {
	return q.data[state*q.actions+action]
}

func (q *qTable) set(state, action int, value float64) {
	q.data[state*q.actions+action] = value
}

func (q *qTable) row(state int) []float64 {
	return q.data[state*q.actions : (state+1)*q.actions]
}

func (q *qTable) maxValue(state int) float64 {
	row := q.row(state)
	max := row[0]
	for _, v := range row[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// argmax returns the first best action.
func (q *qTable) argmax(state int) int {
	row := q.row(state)
	best := 0
	for a := 1; a < len(row); a++ {
		if row[a] > row[best] {
			best = a
		}
	}
	return best
}

func (q *qTable) stateValues() []float64 {
	values := make([]float64, q.states)
	for s := 0; s < q.states; s++ {
		values[s] = q.maxValue(s)
	}
	return values
}

func (q *qTable) clone() []float64 {
	out := make([]float64, len(q.data))
	copy(out, q.data)
	return out
}

func (q *qTable) load(data []float64) error {
	if len(data) != len(q.data) {
		return fmt.Errorf("q table has %d entries, got %d", len(q.data), len(data))
	}
	copy(q.data, data)
	return nil
}
