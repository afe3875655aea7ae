package taxi

import "fmt"

// Radices of the mixed-radix state encoding, slowest-varying first.
const (
	NumRows            = 5
	NumCols            = 4
	NumPassengerStates = 2
	NumDestinations    = 3
	NumHazards         = 4

	NumStates = NumRows * NumCols * NumPassengerStates * NumDestinations * NumHazards
)

// Passenger status values.
const (
	PassengerWaiting = 0
	PassengerInTaxi  = 1
)

// State is the decoded form of an encoded state index.
type State struct {
	TaxiRow     int
	TaxiCol     int
	Passenger   int
	Destination int
	Hazard      int
}

// Encode packs the sub-indices into a single state index. Callers must keep
// every argument within its radix; nothing is checked here.
func Encode(taxiRow, taxiCol, passenger, destination, hazard int) int {
	i := taxiRow
	i *= NumCols
	i += taxiCol
	i *= NumPassengerStates
	i += passenger
	i *= NumDestinations
	i += destination
	i *= NumHazards
	i += hazard
	return i
}

// Encode returns the state index of s.
func (s State) Encode() int {
	return Encode(s.TaxiRow, s.TaxiCol, s.Passenger, s.Destination, s.Hazard)
}

func (s State) Position() Position {
	return Position{Row: s.TaxiRow, Col: s.TaxiCol}
}

func (s State) String() string {
	return fmt.Sprintf("taxi=(%d,%d) passenger=%d destination=%d hazard=%d",
		s.TaxiRow, s.TaxiCol, s.Passenger, s.Destination, s.Hazard)
}

// Decode is the inverse of Encode.
func Decode(i int) (State, error) {
	if i < 0 || i >= NumStates {
		return State{}, fmt.Errorf("decode %d: %w", i, ErrStateOutOfRange)
	}
	var s State
	s.Hazard = i % NumHazards
	i /= NumHazards
	s.Destination = i % NumDestinations
	i /= NumDestinations
	s.Passenger = i % NumPassengerStates
	i /= NumPassengerStates
	s.TaxiCol = i % NumCols
	i /= NumCols
	s.TaxiRow = i
	return s, nil
}

// MustDecode is Decode for indices produced by enumeration; it panics on a
// value outside the state space.
func MustDecode(i int) State {
	s, err := Decode(i)
	if err != nil {
		panic(err)
	}
	return s
}

// Grid projects states onto the taxi position.
type Grid struct{}

func (Grid) Dims() (int, int) {
	return NumRows, NumCols
}

func (Grid) Cell(state int) (int, int) {
	s := MustDecode(state)
	return s.TaxiRow, s.TaxiCol
}
