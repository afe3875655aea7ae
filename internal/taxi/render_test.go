package taxi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderString(t *testing.T) {
	m, err := Build(DefaultLayout())
	require.NoError(t, err)

	north := ActionNorth
	got, err := m.RenderString(Encode(2, 2, PassengerWaiting, 1, 0), &north)
	require.NoError(t, err)
	want := strings.Join([]string{
		"+-------+",
		"|P: | : |",
		"|H: : : |",
		"| : : : |",
		"| | : | |",
		"|D| : | |",
		"+-------+",
		"  (North)",
		"",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRenderFullTaxi(t *testing.T) {
	m, err := Build(DefaultLayout())
	require.NoError(t, err)

	got, err := m.RenderString(Encode(3, 1, PassengerInTaxi, 0, 3), nil)
	require.NoError(t, err)
	lines := strings.Split(got, "\n")
	assert.Equal(t, "|P: | :D|", lines[1])
	assert.Equal(t, "| : : :H|", lines[2])
	assert.Equal(t, "| |_: | |", lines[4])
	assert.Equal(t, "", lines[7])
}

func TestRenderColors(t *testing.T) {
	m, err := Build(DefaultLayout())
	require.NoError(t, err)
	var b strings.Builder
	require.NoError(t, m.Render(&b, Encode(0, 0, PassengerWaiting, 0, 0), nil, true))
	assert.Contains(t, b.String(), "\x1b[")

	_, err = m.RenderString(NumStates, nil)
	assert.ErrorIs(t, err, ErrStateOutOfRange)
}
