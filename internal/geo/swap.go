package geo

import "math"

// NeedsAxisSwap reports whether the first position of c looks like it was
// written as (lat, lon): the first ordinate fits a latitude and the second
// can only be a longitude.
//
// This only holds for datasets whose true longitudes all exceed 90 degrees in
// magnitude (the State of Mexico sits around -99).
func NeedsAxisSwap(c Coordinates) bool {
	p, ok := c.First()
	if !ok || len(p) < 2 {
		return false
	}
	a, b := p[0], p[1]
	if !finite(a) || !finite(b) {
		return false
	}
	return math.Abs(a) <= 90 && math.Abs(b) > 90
}

// SwapAxes returns a copy of c with the first two ordinates of every position
// exchanged.
func SwapAxes(c Coordinates) Coordinates {
	if c.IsLeaf() {
		p := append([]float64(nil), c.Position...)
		if len(p) >= 2 {
			p[0], p[1] = p[1], p[0]
		}
		return Coordinates{Position: p}
	}
	if c.Children == nil {
		return Coordinates{}
	}
	out := make([]Coordinates, len(c.Children))
	for i, ch := range c.Children {
		out[i] = SwapAxes(ch)
	}
	return Coordinates{Children: out}
}

// FixAxisOrder applies the swap heuristic once for the whole geometry, never
// per ring, so data that is already correct is never flipped back. A
// collection is judged by its first member. Reports whether it swapped.
func FixAxisOrder(g *Geometry) bool {
	if g == nil {
		return false
	}
	if g.Type == TypeGeometryCollection {
		if len(g.Geometries) == 0 || g.Geometries[0] == nil || !NeedsAxisSwap(g.Geometries[0].Coordinates) {
			return false
		}
		for _, m := range g.Geometries {
			if m != nil {
				m.Coordinates = SwapAxes(m.Coordinates)
			}
		}
		return true
	}
	if !NeedsAxisSwap(g.Coordinates) {
		return false
	}
	g.Coordinates = SwapAxes(g.Coordinates)
	return true
}
