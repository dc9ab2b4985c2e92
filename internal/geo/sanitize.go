package geo

import (
	"fmt"
)

// SanitizeCoordinates returns a repaired copy of c in which every position is
// [lon, lat, extra...] with finite values. Non-finite extra ordinates are
// dropped. It fails if any position lacks two finite leading values or any
// level of the tree is empty: a partially valid ring is never returned.
func SanitizeCoordinates(c Coordinates) (Coordinates, bool) {
	if c.IsLeaf() {
		if len(c.Position) < 2 {
			return Coordinates{}, false
		}
		lon, lat := c.Position[0], c.Position[1]
		if !finite(lon) || !finite(lat) {
			return Coordinates{}, false
		}
		pos := make([]float64, 0, len(c.Position))
		pos = append(pos, lon, lat)
		for _, v := range c.Position[2:] {
			if finite(v) {
				pos = append(pos, v)
			}
		}
		return Coordinates{Position: pos}, true
	}
	if len(c.Children) == 0 {
		return Coordinates{}, false
	}
	out := make([]Coordinates, 0, len(c.Children))
	for _, ch := range c.Children {
		s, ok := SanitizeCoordinates(ch)
		if !ok {
			return Coordinates{}, false
		}
		out = append(out, s)
	}
	return Coordinates{Children: out}, true
}

// SanitizeGeometry returns a repaired copy of g, or an error wrapping
// ErrSanitize when the coordinate tree cannot be fully repaired.
func SanitizeGeometry(g *Geometry) (*Geometry, error) {
	if g == nil || g.Type == "" {
		return nil, fmt.Errorf("%w: missing geometry type", ErrSanitize)
	}
	switch g.Type {
	case TypePoint, TypeMultiPoint, TypeLineString, TypeMultiLineString, TypePolygon, TypeMultiPolygon:
		c, ok := SanitizeCoordinates(g.Coordinates)
		if !ok {
			return nil, fmt.Errorf("%w: %s has invalid coordinates", ErrSanitize, g.Type)
		}
		return &Geometry{Type: g.Type, Coordinates: c}, nil
	case TypeGeometryCollection:
		if len(g.Geometries) == 0 {
			return nil, fmt.Errorf("%w: empty geometry collection", ErrSanitize)
		}
		members := make([]*Geometry, 0, len(g.Geometries))
		for i, m := range g.Geometries {
			sm, err := SanitizeGeometry(m)
			if err != nil {
				return nil, fmt.Errorf("collection member %d: %w", i, err)
			}
			members = append(members, sm)
		}
		return &Geometry{Type: TypeGeometryCollection, Geometries: members}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported geometry type %q", ErrSanitize, g.Type)
	}
}

// SanitizeFeature repairs the feature geometry. Properties are shared with f.
func SanitizeFeature(f Feature) (Feature, error) {
	if f.Type != "" && f.Type != TypeFeature {
		return Feature{}, fmt.Errorf("%w: not a feature (%q)", ErrSanitize, f.Type)
	}
	g, err := SanitizeGeometry(f.Geometry)
	if err != nil {
		return Feature{}, err
	}
	return NewFeature(f.Properties, g), nil
}

// SanitizeCollection repairs every feature of fc. It fails on the first
// feature that cannot be repaired.
func SanitizeCollection(fc FeatureCollection) (FeatureCollection, error) {
	out := make([]Feature, 0, len(fc.Features))
	for i, f := range fc.Features {
		sf, err := SanitizeFeature(f)
		if err != nil {
			return FeatureCollection{}, fmt.Errorf("feature %d (%s): %w", i, f.Name(), err)
		}
		out = append(out, sf)
	}
	return NewFeatureCollection(out...), nil
}
