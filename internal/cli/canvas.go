package cli

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/haview/pkg/geom"
	"github.com/matzehuels/haview/pkg/view"
)

// Size of one terminal cell in view screen units. Views are laid out in
// pixel-like units; the terminal grid samples them.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
)

// canvas is a grid of colored terminal cells.
type canvas struct {
	w, h   int
	cells  []rune
	colors []lipgloss.TerminalColor
	bold   []bool
}

func newCanvas(w, h int) *canvas {
	w, h = max(w, 0), max(h, 0)
	c := &canvas{
		w:      w,
		h:      h,
		cells:  make([]rune, w*h),
		colors: make([]lipgloss.TerminalColor, w*h),
		bold:   make([]bool, w*h),
	}
	for i := range c.cells {
		c.cells[i] = ' '
	}
	return c
}

func (c *canvas) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.w && y < c.h
}

func (c *canvas) set(x, y int, r rune, color lipgloss.TerminalColor) {
	if !c.inside(x, y) {
		return
	}
	i := y*c.w + x
	c.cells[i] = r
	c.colors[i] = color
	c.bold[i] = false
}

func (c *canvas) at(x, y int) rune {
	if !c.inside(x, y) {
		return 0
	}
	return c.cells[y*c.w+x]
}

// text writes s starting at (x, y), clipped to the canvas.
func (c *canvas) text(x, y int, s string, color lipgloss.TerminalColor, bold bool) {
	for i, r := range []rune(s) {
		c.set(x+i, y, r, color)
		if c.inside(x+i, y) {
			c.bold[y*c.w+x+i] = bold
		}
	}
}

// line draws a straight line with Bresenham's algorithm. Cells that already
// hold a non-blank rune are kept.
func (c *canvas) line(x0, y0, x1, y1 int, r rune, color lipgloss.TerminalColor) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		if c.at(x0, y0) == ' ' {
			c.set(x0, y0, r, color)
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

// rect draws the outline of the box spanned by two corners.
func (c *canvas) rect(x0, y0, x1, y1 int, color lipgloss.TerminalColor) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for x := x0 + 1; x < x1; x++ {
		c.set(x, y0, '─', color)
		c.set(x, y1, '─', color)
	}
	for y := y0 + 1; y < y1; y++ {
		c.set(x0, y, '│', color)
		c.set(x1, y, '│', color)
	}
	c.set(x0, y0, '┌', color)
	c.set(x1, y0, '┐', color)
	c.set(x0, y1, '└', color)
	c.set(x1, y1, '┘', color)
}

// String renders the grid, styling runs of equally colored cells together.
func (c *canvas) String() string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		start := y * c.w
		for x := 0; x < c.w; {
			i := start + x
			j := i + 1
			for j < start+c.w && c.colors[j] == c.colors[i] && c.bold[j] == c.bold[i] {
				j++
			}
			run := string(c.cells[i:j])
			if c.colors[i] != nil || c.bold[i] {
				style := lipgloss.NewStyle().Bold(c.bold[i])
				if c.colors[i] != nil {
					style = style.Foreground(c.colors[i])
				}
				run = style.Render(run)
			}
			b.WriteString(run)
			x += j - i
		}
	}
	return b.String()
}

// toCell converts a canvas point of v to the terminal cell showing it.
func toCell(v *view.View, p geom.Point) (int, int) {
	dom := v.CanvasToDOM(p)
	return int(math.Floor(dom.X / cellWidth)), int(math.Floor(dom.Y / cellHeight))
}

// cellToDOM returns the view point at the center of a terminal cell.
func cellToDOM(x, y int) geom.Point {
	return geom.Point{X: (float64(x) + 0.5) * cellWidth, Y: (float64(y) + 0.5) * cellHeight}
}

// drawMain draws the detailed view: edges as dotted lines and nodes as
// colored labels centered on their positions.
func drawMain(v *view.View, w, h int, selected string) string {
	c := newCanvas(w, h)
	m := v.Model()
	if m == nil {
		return c.String()
	}

	edgeColor := lipgloss.TerminalColor(colorMuted)
	for _, e := range m.Edges {
		from, ok1 := v.Position(e.From)
		to, ok2 := v.Position(e.To)
		if !ok1 || !ok2 {
			continue
		}
		x0, y0 := toCell(v, from)
		x1, y1 := toCell(v, to)
		r := '·'
		if e.Dashed {
			r = '╌'
		}
		c.line(x0, y0, x1, y1, r, edgeColor)
		if e.Label != "" {
			c.text((x0+x1)/2, (y0+y1)/2, e.Label, colorLabel, false)
		}
	}

	for _, n := range m.Nodes {
		p, ok := v.Position(n.ID)
		if !ok {
			continue
		}
		x, y := toCell(v, p)
		label := n.Label
		if i := strings.IndexByte(label, '\n'); i >= 0 {
			label = label[:i]
		}
		if label == "" {
			label = n.ID
		}
		label = "[" + label + "]"
		c.text(x-len([]rune(label))/2, y, label, groupColor(n.Group), n.ID == selected)
	}
	return c.String()
}

// drawOverview draws the minimap: a dot per node, thick edges and the
// rectangle currently visible in the main view.
func drawOverview(ov, main *view.View, w, h int) string {
	c := newCanvas(w, h)
	m := ov.Model()
	if m == nil {
		return c.String()
	}

	cfg := ov.Config()
	if main != nil {
		vp := main.Viewport()
		if vp.X > 0 && vp.Y > 0 {
			tl := geom.MapPoint(main.DOMToCanvas(geom.Point{}), main, ov)
			br := geom.MapPoint(main.DOMToCanvas(vp), main, ov)
			x0, y0 := toCell(ov, tl)
			x1, y1 := toCell(ov, br)
			c.rect(x0, y0, x1, y1, lipgloss.Color(cfg.BorderColor))
		}
	}

	for _, e := range m.Edges {
		from, ok1 := ov.Position(e.From)
		to, ok2 := ov.Position(e.To)
		if !ok1 || !ok2 {
			continue
		}
		x0, y0 := toCell(ov, from)
		x1, y1 := toCell(ov, to)
		c.line(x0, y0, x1, y1, '•', lipgloss.Color(cfg.EdgeColor))
	}

	for _, n := range m.Nodes {
		p, ok := ov.Position(n.ID)
		if !ok {
			continue
		}
		x, y := toCell(ov, p)
		c.set(x, y, '●', groupColor(n.Group))
	}
	return c.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
