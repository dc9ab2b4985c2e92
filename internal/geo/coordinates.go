package geo

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Coordinates is a GeoJSON coordinate tree of arbitrary depth. A leaf holds a
// position in Position; an inner node holds Children. The zero value is
// neither and marks a member that was not an array at all.
//
// Decoding is lenient: numeric strings (comma or dot decimal separator) are
// accepted and anything unparseable becomes NaN, so that the sanitizer can
// decide what to keep instead of the decoder failing the whole document.
type Coordinates struct {
	Position []float64
	Children []Coordinates
}

// Pos builds a leaf.
func Pos(x, y float64, rest ...float64) Coordinates {
	p := make([]float64, 0, 2+len(rest))
	p = append(p, x, y)
	p = append(p, rest...)
	return Coordinates{Position: p}
}

// Nest builds an inner node.
func Nest(children ...Coordinates) Coordinates {
	if children == nil {
		children = []Coordinates{}
	}
	return Coordinates{Children: children}
}

// Ring builds a linear ring (or line string) from flat lon/lat pairs.
func Ring(pairs ...[2]float64) Coordinates {
	out := make([]Coordinates, len(pairs))
	for i, p := range pairs {
		out[i] = Pos(p[0], p[1])
	}
	return Nest(out...)
}

func (c Coordinates) IsLeaf() bool  { return c.Position != nil }
func (c Coordinates) IsValid() bool { return c.Position != nil || c.Children != nil }

// Depth is 0 for a position, 1 for a list of positions, and so on, following
// the first child at every level.
func (c Coordinates) Depth() int {
	d := 0
	for !c.IsLeaf() {
		if len(c.Children) == 0 {
			return d + 1
		}
		c = c.Children[0]
		d++
	}
	return d
}

// First returns the first position in the tree.
func (c Coordinates) First() ([]float64, bool) {
	for !c.IsLeaf() {
		if len(c.Children) == 0 {
			return nil, false
		}
		c = c.Children[0]
	}
	return c.Position, true
}

// Clone returns a deep copy.
func (c Coordinates) Clone() Coordinates {
	if c.Position != nil {
		return Coordinates{Position: append([]float64(nil), c.Position...)}
	}
	if c.Children == nil {
		return Coordinates{}
	}
	out := make([]Coordinates, len(c.Children))
	for i, ch := range c.Children {
		out[i] = ch.Clone()
	}
	return Coordinates{Children: out}
}

func (c Coordinates) MarshalJSON() ([]byte, error) {
	switch {
	case c.Position != nil:
		return json.Marshal(c.Position)
	case c.Children != nil:
		return json.Marshal(c.Children)
	default:
		return []byte("null"), nil
	}
}

func (c *Coordinates) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*c = CoordinatesFrom(v)
	return nil
}

// CoordinatesFrom converts an arbitrary decoded value (as produced by
// encoding/json, or plain Go slices) into a coordinate tree. An array whose
// first element is not itself an array is taken as a position.
func CoordinatesFrom(v any) Coordinates {
	switch t := v.(type) {
	case []float64:
		return Coordinates{Position: append([]float64{}, t...)}
	case [][]float64:
		out := make([]Coordinates, len(t))
		for i, p := range t {
			out[i] = CoordinatesFrom(p)
		}
		return Nest(out...)
	case []any:
		if len(t) == 0 {
			return Nest()
		}
		if !isArray(t[0]) {
			pos := make([]float64, len(t))
			for i, x := range t {
				pos[i] = LooseFloat(x)
			}
			return Coordinates{Position: pos}
		}
		out := make([]Coordinates, len(t))
		for i, x := range t {
			out[i] = CoordinatesFrom(x)
		}
		return Nest(out...)
	default:
		return Coordinates{}
	}
}

func isArray(v any) bool {
	switch v.(type) {
	case []any, []float64, [][]float64:
		return true
	}
	return false
}

// LooseFloat parses a coordinate value. Strings may use a comma as decimal
// separator. Returns NaN for anything that is not a finite number.
func LooseFloat(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		return parseLoose(t.String())
	case string:
		return parseLoose(t)
	default:
		return math.NaN()
	}
	if math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

func parseLoose(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return math.NaN()
	}
	return f
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
