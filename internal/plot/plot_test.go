package plot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	assert.Equal(t, []float64{2, 3, 5, 7}, got)

	got = MovingAverage([]float64{1, 2, 3}, 10)
	assert.InDeltaSlice(t, []float64{1, 1.5, 2}, got, 1e-12)

	in := []float64{5, -1}
	got = MovingAverage(in, 1)
	assert.Equal(t, in, got)
	got[0] = 0
	assert.Equal(t, 5.0, in[0])
}

func TestRenderRewards(t *testing.T) {
	var b strings.Builder
	err := RenderRewards(&b, "taxi rewards",
		Series{Name: "episode reward", Values: []float64{-200, -50, 8}},
		Series{Name: "moving average", Values: []float64{-200, -125, -80.67}},
	)
	require.NoError(t, err)
	html := b.String()
	assert.Contains(t, html, "taxi rewards")
	assert.Contains(t, html, "moving average")

	assert.ErrorIs(t, RenderRewards(&b, "empty"), ErrNoSeries)
}

func TestWriteRewardsCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts", "rewards.html")
	require.NoError(t, WriteRewards(path, "run", Series{Name: "r", Values: []float64{1}}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
