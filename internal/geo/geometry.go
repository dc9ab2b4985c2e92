// Package geo normalizes municipality boundary geometries into GeoJSON that a
// map layer can render: WKT parsing, coordinate repair, axis-order fixing and
// partial-failure tolerant insertion.
package geo

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GeoJSON geometry and container types.
const (
	TypePoint              = "Point"
	TypeMultiPoint         = "MultiPoint"
	TypeLineString         = "LineString"
	TypeMultiLineString    = "MultiLineString"
	TypePolygon            = "Polygon"
	TypeMultiPolygon       = "MultiPolygon"
	TypeGeometryCollection = "GeometryCollection"

	TypeFeature           = "Feature"
	TypeFeatureCollection = "FeatureCollection"
)

// coordinateDepth is the nesting depth of the coordinates member for each
// geometry type (a bare position has depth 0).
var coordinateDepth = map[string]int{
	TypePoint:           0,
	TypeMultiPoint:      1,
	TypeLineString:      1,
	TypeMultiLineString: 2,
	TypePolygon:         2,
	TypeMultiPolygon:    3,
}

// Geometry is a GeoJSON geometry. GeometryCollection uses Geometries, every
// other type uses Coordinates.
type Geometry struct {
	Type        string
	Coordinates Coordinates
	Geometries  []*Geometry
}

type geometryJSON struct {
	Type        string       `json:"type"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Geometries  []*Geometry  `json:"geometries,omitempty"`
}

func (g Geometry) MarshalJSON() ([]byte, error) {
	out := geometryJSON{Type: g.Type}
	if g.Type == TypeGeometryCollection {
		out.Geometries = g.Geometries
		if out.Geometries == nil {
			out.Geometries = []*Geometry{}
		}
	} else {
		c := g.Coordinates
		out.Coordinates = &c
	}
	return json.Marshal(out)
}

func (g *Geometry) UnmarshalJSON(data []byte) error {
	var in struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
		Geometries  []*Geometry     `json:"geometries"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	g.Type = in.Type
	g.Geometries = in.Geometries
	g.Coordinates = Coordinates{}
	if len(in.Coordinates) > 0 {
		if err := json.Unmarshal(in.Coordinates, &g.Coordinates); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of g.
func (g *Geometry) Clone() *Geometry {
	if g == nil {
		return nil
	}
	out := &Geometry{Type: g.Type, Coordinates: g.Coordinates.Clone()}
	if g.Geometries != nil {
		out.Geometries = make([]*Geometry, len(g.Geometries))
		for i, m := range g.Geometries {
			out.Geometries[i] = m.Clone()
		}
	}
	return out
}

// Properties holds feature properties. Values come from loosely typed source
// files, so they stay untyped.
type Properties map[string]any

// String returns the property as a trimmed string, or "" when absent.
func (p Properties) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Clone returns a shallow copy of p.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Feature is a GeoJSON feature.
type Feature struct {
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
	Geometry   *Geometry  `json:"geometry"`
}

// NewFeature builds a feature, never leaving Properties nil.
func NewFeature(props Properties, geom *Geometry) Feature {
	if props == nil {
		props = Properties{}
	}
	return Feature{Type: TypeFeature, Properties: props, Geometry: geom}
}

// Name is the municipality name carried by the feature, used in diagnostics.
func (f Feature) Name() string {
	return f.Properties.String("municipio")
}

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection wraps features in a collection.
func NewFeatureCollection(features ...Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: TypeFeatureCollection, Features: features}
}
