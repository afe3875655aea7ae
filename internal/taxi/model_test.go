package taxi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func defaultModel(t *testing.T) *Model {
	t.Helper()
	m, err := Build(DefaultLayout())
	require.NoError(t, err)
	return m
}

func TestBuildCompleteAndDeterministic(t *testing.T) {
	m := defaultModel(t)
	require.NoError(t, m.P.Validate())
	require.Len(t, m.P, NumStates)
	for s := 0; s < NumStates; s++ {
		require.Len(t, m.P[s], NumActions)
		for a := 0; a < NumActions; a++ {
			require.Len(t, m.P[s][a], 1, "state %d action %d", s, a)
			assert.Equal(t, 1.0, m.P[s][a][0].Probability)
		}
	}
}

func TestBuildIsPure(t *testing.T) {
	a := defaultModel(t)
	b := defaultModel(t)
	assert.Equal(t, a.P, b.P)
	assert.Equal(t, a.InitialDistribution, b.InitialDistribution)
}

func TestInitialDistribution(t *testing.T) {
	m := defaultModel(t)
	require.Len(t, m.InitialDistribution, NumStates)
	assert.InDelta(t, 1.0, floats.Sum(m.InitialDistribution), 1e-9)
	for s, p := range m.InitialDistribution {
		st := MustDecode(s)
		if st.Passenger == PassengerInTaxi {
			assert.Zero(t, p, "state %v", st)
		} else {
			assert.InDelta(t, 1.0/240, p, 1e-12, "state %v", st)
		}
	}
}

func TestMoveOntoHazard(t *testing.T) {
	m := defaultModel(t)
	s := Encode(0, 0, PassengerWaiting, 0, 0) // hazard 0 is (1,0)
	out := m.Outcome(s, ActionSouth)
	assert.Equal(t, HazardReward, out.Reward)
	assert.False(t, out.Done)
	assert.Equal(t, Encode(1, 0, PassengerWaiting, 0, 0), out.Next)

	// Driving west along row 1 into hazard 1 at (1,1).
	s = Encode(1, 2, PassengerInTaxi, 2, 1)
	out = m.Outcome(s, ActionWest)
	assert.Equal(t, HazardReward, out.Reward)
	assert.Equal(t, Encode(1, 1, PassengerInTaxi, 2, 1), out.Next)

	// Every action that ends on the hazard cell pays the hazard reward.
	for s := 0; s < NumStates; s++ {
		st := MustDecode(s)
		hazard := m.Layout.Hazards[st.Hazard]
		for _, a := range Actions() {
			out := m.Outcome(s, a)
			if MustDecode(out.Next).Position() == hazard {
				require.Equal(t, HazardReward, out.Reward, "state %v action %s", st, a)
			} else {
				require.NotEqual(t, HazardReward, out.Reward, "state %v action %s", st, a)
			}
		}
	}
}

func TestHazardOverridesPickupAndDropoff(t *testing.T) {
	layout := DefaultLayout()
	layout.Hazards[0] = layout.Pickup
	layout.Hazards[1] = layout.Destinations[1]
	m, err := Build(layout)
	require.NoError(t, err)

	s := Encode(0, 0, PassengerWaiting, 0, 0)
	out := m.Outcome(s, ActionPickup)
	assert.Equal(t, HazardReward, out.Reward)
	assert.Equal(t, s, out.Next)
	assert.False(t, out.Done)

	s = Encode(4, 0, PassengerInTaxi, 1, 1)
	out = m.Outcome(s, ActionDropoff)
	assert.Equal(t, HazardReward, out.Reward)
	assert.Equal(t, s, out.Next)
	assert.False(t, out.Done)

	// Failing pickup while on the hazard is also -8, never -10.
	s = Encode(4, 0, PassengerWaiting, 1, 1)
	assert.Equal(t, HazardReward, m.Outcome(s, ActionPickup).Reward)
}

func TestPickup(t *testing.T) {
	m := defaultModel(t)
	for dest := 0; dest < NumDestinations; dest++ {
		for hazard := 0; hazard < NumHazards; hazard++ {
			s := Encode(0, 0, PassengerWaiting, dest, hazard)
			out := m.Outcome(s, ActionPickup)
			assert.Equal(t, StepReward, out.Reward)
			assert.False(t, out.Done)
			assert.Equal(t, Encode(0, 0, PassengerInTaxi, dest, hazard), out.Next)
		}
	}

	s := Encode(0, 1, PassengerWaiting, 0, 0)
	out := m.Outcome(s, ActionPickup)
	assert.Equal(t, IllegalReward, out.Reward)
	assert.Equal(t, s, out.Next)

	s = Encode(0, 0, PassengerInTaxi, 0, 0)
	out = m.Outcome(s, ActionPickup)
	assert.Equal(t, IllegalReward, out.Reward)
	assert.Equal(t, s, out.Next)
}

func TestDropoff(t *testing.T) {
	m := defaultModel(t)
	for hazard := 0; hazard < NumHazards; hazard++ {
		s := Encode(4, 0, PassengerInTaxi, 1, hazard)
		out := m.Outcome(s, ActionDropoff)
		assert.Equal(t, DeliverReward, out.Reward)
		assert.True(t, out.Done)
		assert.Equal(t, s, out.Next)
	}

	illegal := []int{
		Encode(2, 2, PassengerInTaxi, 1, 0), // wrong cell
		Encode(0, 3, PassengerInTaxi, 1, 0), // another destination's cell
		Encode(4, 0, PassengerWaiting, 1, 0),
	}
	for _, s := range illegal {
		out := m.Outcome(s, ActionDropoff)
		assert.Equal(t, IllegalReward, out.Reward, MustDecode(s).String())
		assert.False(t, out.Done)
		assert.Equal(t, s, out.Next)
	}
}

func TestWalls(t *testing.T) {
	m := defaultModel(t)
	cases := []struct {
		name    string
		row     int
		col     int
		action  Action
		wantCol int
	}{
		{"row0 east blocked", 0, 1, ActionEast, 1},
		{"row0 east open", 0, 0, ActionEast, 1},
		{"row0 west blocked", 0, 2, ActionWest, 2},
		{"row3 east blocked", 3, 0, ActionEast, 0},
		{"row3 east open", 3, 1, ActionEast, 2},
		{"row4 east blocked", 4, 2, ActionEast, 2},
		{"row4 west blocked", 4, 3, ActionWest, 3},
		{"right edge", 2, 3, ActionEast, 3},
		{"left edge", 2, 0, ActionWest, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Encode(tc.row, tc.col, PassengerInTaxi, 0, 0)
			out := m.Outcome(s, tc.action)
			next := MustDecode(out.Next)
			assert.Equal(t, tc.row, next.TaxiRow)
			assert.Equal(t, tc.wantCol, next.TaxiCol)
			assert.Equal(t, StepReward, out.Reward)
			assert.False(t, out.Done)
		})
	}
}

func TestVerticalClamp(t *testing.T) {
	m := defaultModel(t)
	s := Encode(4, 1, PassengerWaiting, 0, 3)
	assert.Equal(t, s, m.Outcome(s, ActionSouth).Next)
	s = Encode(0, 2, PassengerWaiting, 0, 0)
	assert.Equal(t, s, m.Outcome(s, ActionNorth).Next)
}

func TestMovesKeepPassenger(t *testing.T) {
	m := defaultModel(t)
	for s := 0; s < NumStates; s++ {
		st := MustDecode(s)
		for _, a := range Actions() {
			if !a.IsMove() {
				continue
			}
			next := MustDecode(m.Outcome(s, a).Next)
			require.Equal(t, st.Passenger, next.Passenger)
			require.Equal(t, st.Destination, next.Destination)
			require.Equal(t, st.Hazard, next.Hazard)
		}
	}
}

func TestBuildRejectsMalformedLayout(t *testing.T) {
	layout := DefaultLayout()
	layout.Hazards[2] = Position{Row: 5, Col: 0}
	_, err := Build(layout)
	require.ErrorIs(t, err, ErrCoordinateOutOfBounds)

	layout = DefaultLayout()
	layout.Map = layout.Map[:6]
	_, err = Build(layout)
	require.ErrorIs(t, err, ErrMalformedMap)

	layout = DefaultLayout()
	layout.Map[2] = "| ; : : |"
	_, err = Build(layout)
	require.ErrorIs(t, err, ErrMalformedMap)

	assert.Panics(t, func() { MustBuild(Layout{}) })
}

func BenchmarkBuild(b *testing.B) {
	layout := DefaultLayout()
	for i := 0; i < b.N; i++ {
		if _, err := Build(layout); err != nil {
			b.Fatal(err)
		}
	}
}
