// Package grid partitions an image into numbered cells and renders the
// Set-of-Mark overlay a vision model uses to name a location.
package grid

import (
	"errors"
	"fmt"

	"github.com/xkilldash9x/gridpoint/api/schemas"
)

// ErrInvalidSpec is returned for grids with a non-positive dimension.
var ErrInvalidSpec = errors.New("invalid grid spec")

// Spec is the fixed grid geometry for a run.
type Spec struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Validate rejects specs that cannot produce at least one cell.
func (s Spec) Validate() error {
	if s.Rows <= 0 || s.Cols <= 0 {
		return fmt.Errorf("%w: rows=%d cols=%d", ErrInvalidSpec, s.Rows, s.Cols)
	}
	return nil
}

// CellCount returns Rows*Cols.
func (s Spec) CellCount() int { return s.Rows * s.Cols }

// Cell is one addressable region of the image.
type Cell struct {
	Index  int           `json:"index"`
	Row    int           `json:"row"`
	Col    int           `json:"col"`
	Bounds schemas.Rect  `json:"bounds"`
	Center schemas.Point `json:"center"`
}

// Layout is the immutable index→cell mapping for one image.
type Layout struct {
	spec   Spec
	width  int
	height int
	cells  []Cell // cells[i] has Index i+1
}

// Partition divides a width×height pixel space into spec.Rows×spec.Cols cells.
// Cell sizes are real-valued; indices run row-major from 1.
func Partition(width, height int, spec Spec) (*Layout, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image dimensions must be positive (got %dx%d)", width, height)
	}

	// Edges are computed from the integer extent so that neighbouring cells
	// share identical boundaries and the last edge lands exactly on the image edge.
	xEdge := func(c int) float64 { return float64(width) * float64(c) / float64(spec.Cols) }
	yEdge := func(r int) float64 { return float64(height) * float64(r) / float64(spec.Rows) }

	cells := make([]Cell, 0, spec.CellCount())
	index := 1
	for r := 0; r < spec.Rows; r++ {
		for c := 0; c < spec.Cols; c++ {
			b := schemas.Rect{Left: xEdge(c), Top: yEdge(r), Right: xEdge(c + 1), Bottom: yEdge(r + 1)}
			cells = append(cells, Cell{
				Index:  index,
				Row:    r,
				Col:    c,
				Bounds: b,
				Center: schemas.Point{X: (b.Left + b.Right) / 2, Y: (b.Top + b.Bottom) / 2},
			})
			index++
		}
	}

	return &Layout{spec: spec, width: width, height: height, cells: cells}, nil
}

// Spec returns the grid geometry the layout was built from.
func (l *Layout) Spec() Spec { return l.spec }

// Size returns the pixel dimensions that were partitioned.
func (l *Layout) Size() (width, height int) { return l.width, l.height }

// Len returns the number of cells.
func (l *Layout) Len() int { return len(l.cells) }

// Cell looks up a cell by its 1-based index.
func (l *Layout) Cell(index int) (Cell, bool) {
	if index < 1 || index > len(l.cells) {
		return Cell{}, false
	}
	return l.cells[index-1], true
}

// Cells returns a copy of all cells in index order.
func (l *Layout) Cells() []Cell {
	out := make([]Cell, len(l.cells))
	copy(out, l.cells)
	return out
}
