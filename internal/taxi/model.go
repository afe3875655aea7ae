package taxi

import (
	"fmt"

	"taxi-rl-go/internal/mdp"
)

// Rewards of the rule chain.
const (
	StepReward    = -1.0
	HazardReward  = -8.0
	IllegalReward = -10.0
	DeliverReward = 20.0
)

// Model is the deterministic transition table of a layout together with
// its initial-state distribution. It is immutable once built.
type Model struct {
	Layout              Layout
	P                   mdp.Table
	InitialDistribution []float64
}

// Build enumerates every state and action of layout. A malformed layout is
// reported here so nothing fails once simulation starts.
func Build(layout Layout) (*Model, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	table := mdp.NewTable(NumStates, NumActions)
	initial := make([]float64, NumStates)
	for row := 0; row < NumRows; row++ {
		for col := 0; col < NumCols; col++ {
			for pass := 0; pass < NumPassengerStates; pass++ {
				for dest := 0; dest < NumDestinations; dest++ {
					for hazard := 0; hazard < NumHazards; hazard++ {
						st := State{TaxiRow: row, TaxiCol: col, Passenger: pass, Destination: dest, Hazard: hazard}
						s := st.Encode()
						if pass == PassengerWaiting {
							initial[s]++
						}
						for _, a := range Actions() {
							table[s][a] = append(table[s][a], layout.outcome(st, a))
						}
					}
				}
			}
		}
	}
	if err := mdp.Normalize(initial); err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	return &Model{Layout: layout, P: table, InitialDistribution: initial}, nil
}

// MustBuild panics if layout is malformed.
func MustBuild(layout Layout) *Model {
	m, err := Build(layout)
	if err != nil {
		panic(err)
	}
	return m
}

// outcome applies the rule chain in order: movement, hazard override, then
// pickup or dropoff. A hazard hit skips pickup and dropoff entirely.
func (l Layout) outcome(st State, a Action) mdp.Transition {
	next := st
	reward := StepReward
	done := false

	switch a {
	case ActionSouth:
		next.TaxiRow = min(st.TaxiRow+1, NumRows-1)
	case ActionNorth:
		next.TaxiRow = max(st.TaxiRow-1, 0)
	case ActionEast:
		if l.CanMoveEast(st.TaxiRow, st.TaxiCol) {
			next.TaxiCol = min(st.TaxiCol+1, NumCols-1)
		}
	case ActionWest:
		if l.CanMoveWest(st.TaxiRow, st.TaxiCol) {
			next.TaxiCol = max(st.TaxiCol-1, 0)
		}
	}

	taxi := st.Position()
	switch {
	case next.Position() == l.Hazards[st.Hazard]:
		reward = HazardReward
	case a == ActionPickup:
		if st.Passenger == PassengerWaiting && taxi == l.Pickup {
			next.Passenger = PassengerInTaxi
		} else {
			reward = IllegalReward
		}
	case a == ActionDropoff:
		// The passenger stays aboard; the episode simply ends.
		if st.Passenger == PassengerInTaxi && taxi == l.Destinations[st.Destination] {
			done = true
			reward = DeliverReward
		} else {
			reward = IllegalReward
		}
	}

	return mdp.Transition{Probability: 1.0, Next: next.Encode(), Reward: reward, Done: done}
}

// Outcome returns the single outcome of taking a in state s.
func (m *Model) Outcome(s int, a Action) mdp.Transition {
	return m.P[s][a][0]
}

func (m *Model) Table() mdp.Table {
	return m.P
}

func (m *Model) Initial() []float64 {
	return m.InitialDistribution
}

func (m *Model) NumStates() int {
	return NumStates
}

func (m *Model) NumActions() int {
	return NumActions
}

// MaxEpisodeSteps is the registered episode cap.
func (m *Model) MaxEpisodeSteps() int {
	return MaxEpisodeSteps
}
