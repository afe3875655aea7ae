package taxi

import (
	"fmt"
	"io"
	"strings"

	"github.com/logrusorgru/aurora"
)

// Render draws state s onto w. The hazard is marked H and the destination D.
// An empty taxi is highlighted yellow with the waiting passenger in blue; a
// full taxi is highlighted green. The destination is drawn in magenta. When
// lastAction is non-nil its label is printed under the grid.
func (m *Model) Render(w io.Writer, s int, lastAction *Action, colors bool) error {
	st, err := Decode(s)
	if err != nil {
		return err
	}
	au := aurora.NewAurora(colors)
	l := m.Layout

	cells := make([][]interface{}, len(l.Map))
	for i, line := range l.Map {
		cells[i] = make([]interface{}, len(line))
		for j := 0; j < len(line); j++ {
			cells[i][j] = string(line[j])
		}
	}
	at := func(p Position) *interface{} {
		return &cells[1+p.Row][2*p.Col+1]
	}

	*at(l.Hazards[st.Hazard]) = "H"
	dest := l.Destinations[st.Destination]
	*at(dest) = "D"

	taxi := at(st.Position())
	if st.Passenger == PassengerWaiting {
		*taxi = au.BgYellow(*taxi)
		p := at(l.Pickup)
		*p = au.Bold(au.Blue(*p))
	} else {
		if c, ok := (*taxi).(string); ok && c == " " {
			*taxi = "_"
		}
		*taxi = au.BgGreen(*taxi)
	}
	d := at(dest)
	*d = au.Magenta(*d)

	var b strings.Builder
	for _, row := range cells {
		for _, c := range row {
			fmt.Fprint(&b, c)
		}
		b.WriteByte('\n')
	}
	if lastAction != nil {
		fmt.Fprintf(&b, "  (%s)\n", lastAction)
	} else {
		b.WriteByte('\n')
	}
	_, err = io.WriteString(w, b.String())
	return err
}

// RenderString is Render into a string without colors.
func (m *Model) RenderString(s int, lastAction *Action) (string, error) {
	var b strings.Builder
	if err := m.Render(&b, s, lastAction, false); err != nil {
		return "", err
	}
	return b.String(), nil
}
