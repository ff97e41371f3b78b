package grid

import (
	"errors"
	"math"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/gridpoint/api/schemas"
)

const eps = 1e-9

func TestPartition_RejectsInvalidSpec(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"zero rows", Spec{Rows: 0, Cols: 4}},
		{"zero cols", Spec{Rows: 4, Cols: 0}},
		{"negative", Spec{Rows: -1, Cols: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := Partition(800, 600, tt.spec)
			assert.Nil(t, layout)
			assert.True(t, errors.Is(err, ErrInvalidSpec))
		})
	}
}

func TestPartition_RejectsEmptyImage(t *testing.T) {
	_, err := Partition(0, 600, Spec{Rows: 2, Cols: 2})
	assert.Error(t, err)
	_, err = Partition(800, -1, Spec{Rows: 2, Cols: 2})
	assert.Error(t, err)
}

func TestPartition_TwoByTwo(t *testing.T) {
	layout, err := Partition(100, 50, Spec{Rows: 2, Cols: 2})
	require.NoError(t, err)

	want := []Cell{
		{Index: 1, Row: 0, Col: 0, Bounds: schemas.Rect{Left: 0, Top: 0, Right: 50, Bottom: 25}, Center: schemas.Point{X: 25, Y: 12.5}},
		{Index: 2, Row: 0, Col: 1, Bounds: schemas.Rect{Left: 50, Top: 0, Right: 100, Bottom: 25}, Center: schemas.Point{X: 75, Y: 12.5}},
		{Index: 3, Row: 1, Col: 0, Bounds: schemas.Rect{Left: 0, Top: 25, Right: 50, Bottom: 50}, Center: schemas.Point{X: 25, Y: 37.5}},
		{Index: 4, Row: 1, Col: 1, Bounds: schemas.Rect{Left: 50, Top: 25, Right: 100, Bottom: 50}, Center: schemas.Point{X: 75, Y: 37.5}},
	}
	if diff := cmp.Diff(want, layout.Cells()); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}
}

// The reference scenario: a 4x4 grid on an 800x600 screenshot.
func TestPartition_ReferenceScenario(t *testing.T) {
	layout, err := Partition(800, 600, Spec{Rows: 4, Cols: 4})
	require.NoError(t, err)
	require.Equal(t, 16, layout.Len())

	cell, ok := layout.Cell(6)
	require.True(t, ok)
	assert.Equal(t, schemas.Rect{Left: 200, Top: 150, Right: 400, Bottom: 300}, cell.Bounds)
	assert.Equal(t, schemas.Point{X: 300, Y: 225}, cell.Center)

	cell, ok = layout.Cell(3)
	require.True(t, ok)
	assert.Equal(t, schemas.Rect{Left: 400, Top: 0, Right: 600, Bottom: 150}, cell.Bounds)
	assert.Equal(t, schemas.Point{X: 500, Y: 75}, cell.Center)

	_, ok = layout.Cell(0)
	assert.False(t, ok)
	_, ok = layout.Cell(17)
	assert.False(t, ok)
}

func TestLayout_CellsReturnsCopy(t *testing.T) {
	layout, err := Partition(10, 10, Spec{Rows: 1, Cols: 1})
	require.NoError(t, err)

	cells := layout.Cells()
	cells[0].Center = schemas.Point{X: -1, Y: -1}

	cell, _ := layout.Cell(1)
	assert.Equal(t, schemas.Point{X: 5, Y: 5}, cell.Center, "layout must stay immutable")
}

// checkTiling asserts the partition invariants for any layout.
func checkTiling(t *testing.T, layout *Layout) {
	t.Helper()
	spec := layout.Spec()
	w, h := layout.Size()
	fw, fh := float64(w), float64(h)

	require.Equal(t, spec.Rows*spec.Cols, layout.Len())

	seen := make(map[int]bool, layout.Len())
	var area float64
	for i, cell := range layout.Cells() {
		require.Equal(t, i+1, cell.Index, "indices are row-major and 1-based")
		require.False(t, seen[cell.Index])
		seen[cell.Index] = true

		b := cell.Bounds
		require.GreaterOrEqual(t, b.Left, -eps)
		require.Less(t, b.Left, b.Right)
		require.LessOrEqual(t, b.Right, fw+eps*fw)
		require.GreaterOrEqual(t, b.Top, -eps)
		require.Less(t, b.Top, b.Bottom)
		require.LessOrEqual(t, b.Bottom, fh+eps*fh)
		require.True(t, b.Contains(cell.Center), "center must lie inside bounds")

		// Neighbours share edges exactly, so there are no gaps or overlaps.
		if cell.Col > 0 {
			left, _ := layout.Cell(cell.Index - 1)
			require.Equal(t, left.Bounds.Right, b.Left)
		}
		if cell.Row > 0 {
			above, _ := layout.Cell(cell.Index - spec.Cols)
			require.Equal(t, above.Bounds.Bottom, b.Top)
		}
		area += b.Width() * b.Height()
	}
	assert.InDelta(t, fw*fh, area, 1e-6*fw*fh, "cells must cover the whole image")

	first, _ := layout.Cell(1)
	last, _ := layout.Cell(layout.Len())
	assert.Equal(t, 0.0, first.Bounds.Left)
	assert.Equal(t, 0.0, first.Bounds.Top)
	assert.InDelta(t, fw, last.Bounds.Right, eps*fw)
	assert.InDelta(t, fh, last.Bounds.Bottom, eps*fh)
}

func TestPartition_TilingProperties(t *testing.T) {
	cases := []struct {
		w, h int
		spec Spec
	}{
		{800, 600, Spec{4, 4}},
		{1920, 1080, Spec{3, 7}},
		{1366, 768, Spec{9, 5}},
		{7, 3, Spec{3, 7}},
		{1, 1, Spec{1, 1}},
		{2560, 1440, Spec{16, 16}},
	}
	for _, c := range cases {
		layout, err := Partition(c.w, c.h, c.spec)
		require.NoError(t, err)
		checkTiling(t, layout)
	}
}

func FuzzPartition(f *testing.F) {
	f.Add([]byte{4, 4, 0x20, 0x03, 0x58, 0x02})
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		var in struct {
			Rows   uint8
			Cols   uint8
			Width  uint16
			Height uint16
		}
		if err := consumer.GenerateStruct(&in); err != nil {
			return
		}
		spec := Spec{Rows: int(in.Rows), Cols: int(in.Cols)}
		layout, err := Partition(int(in.Width), int(in.Height), spec)
		if spec.Validate() != nil || in.Width == 0 || in.Height == 0 {
			require.Error(t, err)
			return
		}
		require.NoError(t, err)
		checkTiling(t, layout)

		for _, cell := range layout.Cells() {
			require.False(t, math.IsNaN(cell.Center.X) || math.IsNaN(cell.Center.Y))
		}
	})
}
