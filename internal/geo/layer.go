package geo

import (
	"errors"
	"fmt"
	"sync"
)

// Layer receives features for rendering. AddData must accept every feature in
// fc or none of them.
type Layer interface {
	AddData(fc FeatureCollection) error
}

// MemoryLayer is a strict in-memory Layer. It accepts only well formed
// GeoJSON: known types, nesting depth matching the type, no empty levels and
// finite ordinates. The HTTP handlers render from it.
type MemoryLayer struct {
	mu       sync.RWMutex
	features []Feature
}

func NewMemoryLayer() *MemoryLayer {
	return &MemoryLayer{}
}

func (l *MemoryLayer) AddData(fc FeatureCollection) error {
	if fc.Type != "" && fc.Type != TypeFeatureCollection {
		return fmt.Errorf("%w: expected FeatureCollection, got %q", ErrInsert, fc.Type)
	}
	for i, f := range fc.Features {
		if err := ValidateFeature(f); err != nil {
			return fmt.Errorf("%w: feature %d (%s): %v", ErrInsert, i, f.Name(), err)
		}
	}
	l.mu.Lock()
	l.features = append(l.features, fc.Features...)
	l.mu.Unlock()
	return nil
}

// Features returns a copy of the features added so far, in insertion order.
func (l *MemoryLayer) Features() []Feature {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Feature(nil), l.features...)
}

func (l *MemoryLayer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.features)
}

func (l *MemoryLayer) Clear() {
	l.mu.Lock()
	l.features = nil
	l.mu.Unlock()
}

// FeatureCollection returns the layer content as a collection.
func (l *MemoryLayer) FeatureCollection() FeatureCollection {
	return NewFeatureCollection(l.Features()...)
}

// ValidateFeature checks f against strict GeoJSON rules without repairing it.
func ValidateFeature(f Feature) error {
	if f.Type != TypeFeature {
		return fmt.Errorf("type %q is not Feature", f.Type)
	}
	return ValidateGeometry(f.Geometry)
}

// ValidateGeometry checks g against strict GeoJSON rules without repairing it.
func ValidateGeometry(g *Geometry) error {
	if g == nil {
		return errors.New("missing geometry")
	}
	if g.Type == TypeGeometryCollection {
		if len(g.Geometries) == 0 {
			return errors.New("empty geometry collection")
		}
		for i, m := range g.Geometries {
			if err := ValidateGeometry(m); err != nil {
				return fmt.Errorf("member %d: %w", i, err)
			}
		}
		return nil
	}
	depth, ok := coordinateDepth[g.Type]
	if !ok {
		return fmt.Errorf("unknown geometry type %q", g.Type)
	}
	return validateCoordinates(g.Coordinates, depth)
}

func validateCoordinates(c Coordinates, depth int) error {
	if depth == 0 {
		if !c.IsLeaf() {
			return errors.New("expected a position")
		}
		if len(c.Position) < 2 {
			return errors.New("position has fewer than two ordinates")
		}
		for _, v := range c.Position {
			if !finite(v) {
				return errors.New("non-finite ordinate")
			}
		}
		return nil
	}
	if c.IsLeaf() || !c.IsValid() {
		return fmt.Errorf("expected an array nested %d deep", depth)
	}
	if len(c.Children) == 0 {
		return errors.New("empty coordinate array")
	}
	for _, ch := range c.Children {
		if err := validateCoordinates(ch, depth-1); err != nil {
			return err
		}
	}
	return nil
}
