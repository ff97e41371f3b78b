package grid

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"
)

// labelOffset places a cell label this many pixels inside the cell's top-left corner.
const labelOffset = 5

// Style controls how the overlay is drawn.
type Style struct {
	Color      color.RGBA
	LineWidth  int
	LabelScale int
}

// DefaultStyle draws red 2px borders with readable labels.
func DefaultStyle() Style {
	return Style{Color: color.RGBA{R: 255, A: 255}, LineWidth: 2, LabelScale: 2}
}

var namedColors = map[string]color.RGBA{
	"red":     {R: 255, A: 255},
	"green":   {G: 200, A: 255},
	"blue":    {B: 255, A: 255},
	"yellow":  {R: 255, G: 220, A: 255},
	"magenta": {R: 255, B: 255, A: 255},
	"cyan":    {G: 220, B: 255, A: 255},
	"white":   {R: 255, G: 255, B: 255, A: 255},
	"black":   {A: 255},
}

// ParseColor accepts a color name or a #rrggbb hex string.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err == nil {
			return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
		}
	}
	return color.RGBA{}, fmt.Errorf("unknown color %q", s)
}

// Overlay returns a copy of src with every cell outlined and numbered.
// src is never modified.
func Overlay(src image.Image, layout *Layout, style Style) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)

	if style.LabelScale <= 0 {
		style.LabelScale = 1
	}
	labelBG := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if brightness(style.Color) >= 200 {
		labelBG = color.RGBA{A: 255}
	}

	for _, cell := range layout.cells {
		r := pixelRect(cell)
		if style.LineWidth > 0 {
			strokeRect(dst, r, style.Color, style.LineWidth)
		}

		label := strconv.Itoa(cell.Index)
		digitW := 8 * style.LabelScale
		pad := style.LabelScale
		labelRect := image.Rect(0, 0, len(label)*digitW+2*pad, 8*style.LabelScale+2*pad).
			Add(image.Pt(r.Min.X+labelOffset, r.Min.Y+labelOffset)).
			Intersect(dst.Bounds())
		if labelRect.Empty() {
			continue
		}
		fillRect(dst, labelRect, labelBG)
		drawDigits(dst, labelRect.Min.X+pad, labelRect.Min.Y+pad, label, style.Color, style.LabelScale)
	}
	return dst
}

// Render partitions src and draws the overlay in one step.
func Render(src image.Image, spec Spec, style Style) (*Layout, *image.RGBA, error) {
	layout, err := Partition(src.Bounds().Dx(), src.Bounds().Dy(), spec)
	if err != nil {
		return nil, nil, err
	}
	return layout, Overlay(src, layout, style), nil
}

func pixelRect(c Cell) image.Rectangle {
	return image.Rect(
		int(math.Round(c.Bounds.Left)),
		int(math.Round(c.Bounds.Top)),
		int(math.Round(c.Bounds.Right)),
		int(math.Round(c.Bounds.Bottom)),
	)
}

func brightness(c color.RGBA) int {
	return (int(c.R)*299 + int(c.G)*587 + int(c.B)*114) / 1000
}

func strokeRect(img *image.RGBA, r image.Rectangle, c color.Color, thickness int) {
	for i := 0; i < thickness; i++ {
		fillRect(img, image.Rect(r.Min.X, r.Min.Y+i, r.Max.X, r.Min.Y+i+1), c)
		fillRect(img, image.Rect(r.Min.X, r.Max.Y-1-i, r.Max.X, r.Max.Y-i), c)
		fillRect(img, image.Rect(r.Min.X+i, r.Min.Y, r.Min.X+i+1, r.Max.Y), c)
		fillRect(img, image.Rect(r.Max.X-1-i, r.Min.Y, r.Max.X-i, r.Max.Y), c)
	}
}

func fillRect(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// segments lists which of the seven segments (top, upper right, lower right,
// bottom, lower left, upper left, middle) are lit for each digit.
var segments = [10][7]bool{
	{true, true, true, true, true, true, false},
	{false, true, true, false, false, false, false},
	{true, true, false, true, true, false, true},
	{true, true, true, true, false, false, true},
	{false, true, true, false, false, true, true},
	{true, false, true, true, false, true, true},
	{true, false, true, true, true, true, true},
	{true, true, true, false, false, false, false},
	{true, true, true, true, true, true, true},
	{true, true, true, true, false, true, true},
}

// segmentRects are the 8x8 unit-cell coordinates of each segment.
var segmentRects = [7][4]int{
	{1, 0, 6, 1},
	{6, 1, 7, 4},
	{6, 4, 7, 7},
	{1, 7, 6, 8},
	{0, 4, 1, 7},
	{0, 1, 1, 4},
	{1, 3, 6, 4},
}

func drawDigits(img *image.RGBA, x, y int, text string, c color.Color, scale int) {
	offset := 0
	for _, ch := range text {
		if ch < '0' || ch > '9' {
			continue
		}
		on := segments[ch-'0']
		for i, lit := range on {
			if !lit {
				continue
			}
			s := segmentRects[i]
			fillRect(img, image.Rect(x+offset+s[0]*scale, y+s[1]*scale, x+offset+s[2]*scale, y+s[3]*scale), c)
		}
		offset += 8 * scale
	}
}
