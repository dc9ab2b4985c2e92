package geo

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	errEmptyWKT       = errors.New("empty WKT")
	errUnsupportedWKT = errors.New("unsupported WKT type")
	errUnbalanced     = errors.New("unbalanced parentheses")
	errNoRings        = errors.New("no valid rings")
)

var (
	sridPrefix = regexp.MustCompile(`(?i)^\s*SRID=\d+;`)
	// Z, M and ZM dimension tags between the type keyword and the body.
	dimensionTag = regexp.MustCompile(`(?i)^(MULTIPOLYGON|POLYGON)\s*(?:ZM|Z|M)\s*\(`)
)

// StripSRID removes a leading "SRID=n;" (EWKT) prefix.
func StripSRID(s string) string {
	return strings.TrimSpace(sridPrefix.ReplaceAllString(s, ""))
}

// ParseWKT converts a POLYGON or MULTIPOLYGON Well-Known-Text string into a
// geometry. The input may carry an SRID prefix, stray non-ASCII bytes and
// dimension tags. Points that are not a pair of finite numbers are dropped,
// and so are rings left without points; if nothing survives the whole string
// is rejected. Errors wrap ErrParse.
func ParseWKT(wkt string) (*Geometry, error) {
	s := cleanWKT(wkt)
	if s == "" || strings.HasSuffix(strings.ToUpper(s), "EMPTY") {
		return nil, fmt.Errorf("%w: %v", ErrParse, errEmptyWKT)
	}
	s = dimensionTag.ReplaceAllString(s, "$1(")

	upper := strings.ToUpper(s)
	multi := strings.HasPrefix(upper, "MULTIPOLYGON")
	if !multi && !strings.HasPrefix(upper, "POLYGON") {
		return nil, fmt.Errorf("%w: %v: %.20q", ErrParse, errUnsupportedWKT, s)
	}

	first := strings.IndexByte(s, '(')
	last := strings.LastIndexByte(s, ')')
	if first < 0 || last <= first {
		return nil, fmt.Errorf("%w: %v", ErrParse, errUnbalanced)
	}
	groups, err := splitGroups(s[first+1 : last])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if !multi {
		rings := parseRings(groups)
		if len(rings) == 0 {
			return nil, fmt.Errorf("%w: %v", ErrParse, errNoRings)
		}
		return &Geometry{Type: TypePolygon, Coordinates: Nest(rings...)}, nil
	}

	var polygons []Coordinates
	for _, block := range groups {
		ringText, err := splitGroups(block)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		rings := parseRings(ringText)
		if len(rings) == 0 {
			continue
		}
		polygons = append(polygons, Nest(rings...))
	}
	if len(polygons) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrParse, errNoRings)
	}
	return &Geometry{Type: TypeMultiPolygon, Coordinates: Nest(polygons...)}, nil
}

// ParseWKTFeature wraps ParseWKT in a feature carrying props.
func ParseWKTFeature(wkt string, props Properties) (Feature, error) {
	g, err := ParseWKT(wkt)
	if err != nil {
		return Feature{}, err
	}
	return NewFeature(props, g), nil
}

func cleanWKT(s string) string {
	s = StripSRID(s)
	b := []byte(s)
	for i, c := range b {
		if c < 0x20 || c > 0x7E {
			b[i] = ' '
		}
	}
	return strings.Join(strings.Fields(string(b)), " ")
}

// splitGroups returns the contents of every top-level parenthesized group of
// s. Text between groups (commas, spaces) is ignored.
func splitGroups(s string) ([]string, error) {
	var groups []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, errUnbalanced
			}
			if depth == 0 {
				groups = append(groups, s[start:i])
			}
		}
	}
	if depth != 0 {
		return nil, errUnbalanced
	}
	return groups, nil
}

func parseRings(texts []string) []Coordinates {
	rings := make([]Coordinates, 0, len(texts))
	for _, t := range texts {
		if ring, ok := parseRing(t); ok {
			rings = append(rings, ring)
		}
	}
	return rings
}

func parseRing(text string) (Coordinates, bool) {
	var pts []Coordinates
	for _, raw := range strings.Split(text, ",") {
		fields := strings.Fields(raw)
		if len(fields) < 2 {
			continue
		}
		x, okx := parseOrdinate(fields[0])
		y, oky := parseOrdinate(fields[1])
		if !okx || !oky {
			continue
		}
		pts = append(pts, Pos(x, y))
	}
	if len(pts) == 0 {
		return Coordinates{}, false
	}
	return Nest(pts...), true
}

func parseOrdinate(tok string) (float64, bool) {
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
