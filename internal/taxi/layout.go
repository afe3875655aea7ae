package taxi

import "fmt"

// Position is a grid cell, zero-based from the top-left corner.
type Position struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

func (p Position) inBounds() bool {
	return p.Row >= 0 && p.Row < NumRows && p.Col >= 0 && p.Col < NumCols
}

// Map characters. Each grid cell sits at column 2*col+1 of its text row and
// the character between two cells is either an open separator or a wall.
const (
	openSeparator = ':'
	wallSeparator = '|'
	mapCorner     = '+'
	mapBorder     = '-'
)

// DefaultMap is the 5x4 grid with its interior walls.
var DefaultMap = []string{
	"+-------+",
	"|P: | : |",
	"| : : : |",
	"| : : : |",
	"| | : | |",
	"| | : | |",
	"+-------+",
}

// Layout is the static description the model is built from: the walled map
// plus the fixed pickup, destination and hazard cells.
type Layout struct {
	Map          []string                  `json:"map" yaml:"map"`
	Pickup       Position                  `json:"pickup" yaml:"pickup"`
	Destinations [NumDestinations]Position `json:"destinations" yaml:"destinations"`
	Hazards      [NumHazards]Position      `json:"hazards" yaml:"hazards"`
}

func DefaultLayout() Layout {
	m := make([]string, len(DefaultMap))
	copy(m, DefaultMap)
	return Layout{
		Map:          m,
		Pickup:       Position{Row: 0, Col: 0},
		Destinations: [NumDestinations]Position{{0, 3}, {4, 0}, {4, 3}},
		Hazards:      [NumHazards]Position{{1, 0}, {1, 1}, {1, 2}, {1, 3}},
	}
}

// Validate checks the map shape and that every configured cell is on the grid.
func (l Layout) Validate() error {
	if err := validateMap(l.Map); err != nil {
		return err
	}
	if !l.Pickup.inBounds() {
		return fmt.Errorf("pickup %s: %w", l.Pickup, ErrCoordinateOutOfBounds)
	}
	for i, d := range l.Destinations {
		if !d.inBounds() {
			return fmt.Errorf("destination %d at %s: %w", i, d, ErrCoordinateOutOfBounds)
		}
	}
	for i, h := range l.Hazards {
		if !h.inBounds() {
			return fmt.Errorf("hazard %d at %s: %w", i, h, ErrCoordinateOutOfBounds)
		}
	}
	return nil
}

func validateMap(m []string) error {
	width := 2*NumCols + 1
	if len(m) != NumRows+2 {
		return fmt.Errorf("%d lines, want %d: %w", len(m), NumRows+2, ErrMalformedMap)
	}
	for i, line := range m {
		if len(line) != width {
			return fmt.Errorf("line %d is %d wide, want %d: %w", i, len(line), width, ErrMalformedMap)
		}
		if i == 0 || i == len(m)-1 {
			for j := 0; j < width; j++ {
				want := byte(mapBorder)
				if j == 0 || j == width-1 {
					want = mapCorner
				}
				if line[j] != want {
					return fmt.Errorf("border line %d col %d is %q: %w", i, j, line[j], ErrMalformedMap)
				}
			}
			continue
		}
		if line[0] != wallSeparator || line[width-1] != wallSeparator {
			return fmt.Errorf("line %d lacks side walls: %w", i, ErrMalformedMap)
		}
		for j := 2; j < width-1; j += 2 {
			if line[j] != openSeparator && line[j] != wallSeparator {
				return fmt.Errorf("line %d col %d separator %q: %w", i, j, line[j], ErrMalformedMap)
			}
		}
	}
	return nil
}

// CanMoveEast reports whether no wall separates (row, col) from (row, col+1).
func (l Layout) CanMoveEast(row, col int) bool {
	return l.Map[1+row][2*col+2] == openSeparator
}

// CanMoveWest reports whether no wall separates (row, col) from (row, col-1).
func (l Layout) CanMoveWest(row, col int) bool {
	return l.Map[1+row][2*col] == openSeparator
}
