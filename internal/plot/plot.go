// Package plot renders training curves as standalone HTML charts.
package plot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var ErrNoSeries = errors.New("plot: nothing to plot")

// Series is one named line, indexed by episode.
type Series struct {
	Name   string
	Values []float64
}

// MovingAverage returns the trailing mean over window points. Early points
// average over what is available so the output has the same length.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := min(i+1, window)
		out[i] = sum / float64(n)
	}
	return out
}

// RenderRewards writes a line chart with one line per series.
func RenderRewards(w io.Writer, title string, series ...Series) error {
	numSteps := 0
	for _, s := range series {
		numSteps = max(numSteps, len(s.Values))
	}
	if numSteps == 0 {
		return ErrNoSeries
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "episode"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "reward"}),
	)

	steps := make([]string, numSteps)
	for i := range steps {
		steps[i] = fmt.Sprintf("%d", i+1)
	}
	line = line.SetXAxis(steps)
	for _, s := range series {
		items := make([]opts.LineData, 0, len(s.Values))
		for _, v := range s.Values {
			items = append(items, opts.LineData{Value: v})
		}
		line.AddSeries(s.Name, items)
	}

	page := components.NewPage()
	page.AddCharts(line)
	return page.Render(w)
}

// WriteRewards renders into the file at path, creating its directory.
func WriteRewards(path, title string, series ...Series) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := RenderRewards(f, title, series...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
