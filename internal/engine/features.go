package engine

// GridProjection places a state on a rectangular grid so visit counts can be
// drawn as a heatmap.
type GridProjection interface {
	Dims() (rows, cols int)
	Cell(state int) (row, col int)
}
