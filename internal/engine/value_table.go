package engine

import "math"

// valueTable holds one value per state for dynamic programming sweeps.
type valueTable struct {
	data []float64
}

func newValueTable(states int) *valueTable {
	return &valueTable{data: make([]float64, states)}
}

func (v *valueTable) get(state int) float64 {
	return v.data[state]
}

// update stores value and returns how far it moved.
func (v *valueTable) update(state int, value float64) float64 {
	delta := math.Abs(value - v.data[state])
	v.data[state] = value
	return delta
}

func (v *valueTable) cloneData() []float64 {
	out := make([]float64, len(v.data))
	copy(out, v.data)
	return out
}
