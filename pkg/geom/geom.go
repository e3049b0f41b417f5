package geom

import "math"

// Point is a position in a view's canvas coordinate space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale returns p with both coordinates multiplied by f.
func (p Point) Scale(f float64) Point { return Point{X: p.X * f, Y: p.Y * f} }

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Bounds is the axis-aligned box enclosing a view's positioned nodes.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`
}

// Width returns the horizontal extent, or 1 when the box has no width.
func (b Bounds) Width() float64 { return extent(b.MinX, b.MaxX) }

// Height returns the vertical extent, or 1 when the box has no height.
func (b Bounds) Height() float64 { return extent(b.MinY, b.MaxY) }

// Center returns the midpoint of the box.
func (b Bounds) Center() Point {
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// Contains reports whether p lies inside the box, edges included.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// zero extents are clamped to 1 so ratios never divide by zero
func extent(lo, hi float64) float64 {
	if d := hi - lo; d != 0 {
		return d
	}
	return 1
}

// PositionSource is a view that holds nodes and, once laid out, their positions.
type PositionSource interface {
	NodeIDs() []string
	Position(id string) (Point, bool)
}

// ComputeBounds returns the box around every positioned node of src.
//
// Nodes without a position, or with a non-finite one, are skipped. The
// second return is false when src is nil, has no nodes, or no node has a
// usable position yet.
func ComputeBounds(src PositionSource) (Bounds, bool) {
	if src == nil {
		return Bounds{}, false
	}
	ids := src.NodeIDs()
	if len(ids) == 0 {
		return Bounds{}, false
	}

	b := Bounds{
		MinX: math.Inf(1),
		MaxX: math.Inf(-1),
		MinY: math.Inf(1),
		MaxY: math.Inf(-1),
	}
	for _, id := range ids {
		p, ok := src.Position(id)
		if !ok || !p.IsFinite() {
			continue
		}
		b.MinX = math.Min(b.MinX, p.X)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}

	if math.IsInf(b.MinX, 0) || math.IsInf(b.MinY, 0) {
		return Bounds{}, false
	}
	return b, true
}

// MapPoint translates p from src's coordinate space into dst's.
// It returns p unchanged when either view has no bounds yet.
func MapPoint(p Point, src, dst PositionSource) Point {
	from, ok := ComputeBounds(src)
	if !ok {
		return p
	}
	to, ok := ComputeBounds(dst)
	if !ok {
		return p
	}
	return MapBetween(p, from, to)
}

// MapBetween maps p proportionally from box from into box to.
// Ratios are not clamped: a point outside from lands outside to.
func MapBetween(p Point, from, to Bounds) Point {
	xRatio := (p.X - from.MinX) / from.Width()
	yRatio := (p.Y - from.MinY) / from.Height()
	return Point{
		X: to.MinX + xRatio*to.Width(),
		Y: to.MinY + yRatio*to.Height(),
	}
}
