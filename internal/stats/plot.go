package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series is a named sequence of values, oldest first.
type Series struct {
	Name   string
	Values []float64
}

// PlotOptions controls plot size and scale. A zero Min and Max plots on a
// 0-100 percentage scale.
type PlotOptions struct {
	Width  int
	Height int
	Min    float64
	Max    float64
	// Color forces ANSI colours even when w is not a terminal.
	Color bool
}

const (
	defaultPlotHeight = 10
	minPlotWidth      = 10
	fallbackWidth     = 80
	axisWidth         = 4
	axisSep           = " │ "
	ansiReset         = "\x1b[0m"
)

// Dash patterns as (period, on) pairs so overlapping series stay distinguishable
// without colour.
var dashes = []struct {
	name       string
	period, on int
}{
	{"solid", 1, 1},
	{"dashed", 6, 3},
	{"dotted", 4, 1},
}

var palette = []string{"\x1b[36m", "\x1b[35m", "\x1b[33m", "\x1b[32m"}

// Plot renders series as a braille line chart with a shared vertical scale.
func Plot(w io.Writer, title string, series []Series, opts PlotOptions) error {
	var drawn []Series
	for _, s := range series {
		if len(s.Values) > 0 {
			drawn = append(drawn, s)
		}
	}
	if len(drawn) == 0 {
		return nil
	}

	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minPlotWidth)
	if height <= 0 {
		height = defaultPlotHeight
	}
	lo, hi := opts.Min, opts.Max
	if lo == 0 && hi == 0 {
		hi = 100
	}
	if hi-lo < 1e-9 {
		hi = lo + 1
	}

	layers := make([]*canvas, len(drawn))
	for i, s := range drawn {
		c := newCanvas(width, height)
		d := dashes[i%len(dashes)]
		prevX, prevY := -1, -1
		for x, v := range resample(s.Values, width) {
			px := x * 2
			py := c.rowFor(v, lo, hi)
			if prevX < 0 {
				prevX, prevY = px, py
			}
			c.line(prevX, prevY, px, py, func(dx int) bool { return dx%d.period < d.on })
			prevX, prevY = px, py
		}
		layers[i] = c
	}

	color := useColor(w, opts.Color)
	lines := make([]string, 0, height+3)
	if title != "" {
		lines = append(lines, title)
	}
	labels := axisLabels(height, lo, hi)
	for y := 0; y < height; y++ {
		var b strings.Builder
		b.WriteString(runewidth.FillLeft(labels[y], axisWidth))
		b.WriteString(axisSep)
		for x := 0; x < width; x++ {
			var mask uint8
			owner := -1
			for i, c := range layers {
				if m := c.cells[y][x]; m != 0 {
					mask |= m
					if owner < 0 {
						owner = i
					}
				}
			}
			r := rune(0x2800 + int(mask))
			if color && owner >= 0 {
				b.WriteString(palette[owner%len(palette)])
				b.WriteRune(r)
				b.WriteString(ansiReset)
				continue
			}
			b.WriteRune(r)
		}
		lines = append(lines, b.String())
	}
	lines = append(lines, legend(drawn, color), "")
	return writeLines(w, lines)
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(totalWidth-axisWidth-runewidth.StringWidth(axisSep), minPlotWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

func useColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func axisLabels(height int, lo, hi float64) []string {
	labels := make([]string, height)
	labels[0] = fmt.Sprintf("%.0f", hi)
	if height > 2 {
		labels[height/2] = fmt.Sprintf("%.0f", (lo+hi)/2)
	}
	if height > 1 {
		labels[height-1] = fmt.Sprintf("%.0f", lo)
	}
	return labels
}

func legend(series []Series, color bool) string {
	parts := make([]string, len(series))
	for i, s := range series {
		p := fmt.Sprintf("⠁ %s (%s)", s.Name, dashes[i%len(dashes)].name)
		if color {
			p = palette[i%len(palette)] + p + ansiReset
		}
		parts[i] = p
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// resample stretches or averages values to exactly n points.
func resample(values []float64, n int) []float64 {
	out := make([]float64, n)
	switch {
	case len(values) == n:
		copy(out, values)
	case len(values) > n:
		for i := range out {
			start := i * len(values) / n
			end := max((i+1)*len(values)/n, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case len(values) == 1 || n == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		step := float64(len(values)-1) / float64(n-1)
		for i := range out {
			pos := float64(i) * step
			idx := int(pos)
			if idx >= len(values)-1 {
				out[i] = values[len(values)-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

// canvas is a grid of braille cells, each 2 dots wide and 4 dots tall.
type canvas struct {
	cells [][]uint8
	dotsY int
}

func newCanvas(width, height int) *canvas {
	cells := make([][]uint8, height)
	for i := range cells {
		cells[i] = make([]uint8, width)
	}
	return &canvas{cells: cells, dotsY: height * 4}
}

func (c *canvas) rowFor(v, lo, hi float64) int {
	pos := (math.Min(math.Max(v, lo), hi) - lo) / (hi - lo)
	return int(math.Round((1 - pos) * float64(c.dotsY-1)))
}

// braille dot bits indexed by [x][y] within a cell.
var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func (c *canvas) set(x, y int) {
	cy, cx := y/4, x/2
	if x < 0 || y < 0 || cy >= len(c.cells) || cx >= len(c.cells[cy]) {
		return
	}
	c.cells[cy][cx] |= dotBits[x%2][y%4]
}

// line draws a Bresenham line, plotting only dots whose x passes keep.
func (c *canvas) line(x0, y0, x1, y1 int, keep func(x int) bool) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		if keep(x0) {
			c.set(x0, y0)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
