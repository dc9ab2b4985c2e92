package regions

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/EmpoweredVote/region-map/internal/names"
)

// RegionSeed is one region and its municipalities as read from a seed CSV.
type RegionSeed struct {
	Nombre     string
	Color      string
	Municipios []string
}

// ReadSeedCSV parses a region,color,municipio CSV. Rows of the same region
// are grouped; the last non-empty color wins. A municipality listed under
// two regions is an error.
func ReadSeedCSV(r io.Reader) ([]RegionSeed, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	headers, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"region", "municipio"} {
		if _, ok := idx[k]; !ok {
			return nil, fmt.Errorf("missing required column: %s", k)
		}
	}
	colorCol, hasColor := idx["color"]

	byName := map[string]*RegionSeed{}
	owner := map[string]string{}
	var order []string
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv read: %w", err)
		}
		region := strings.TrimSpace(rec[idx["region"]])
		muni := strings.TrimSpace(rec[idx["municipio"]])
		if region == "" {
			return nil, fmt.Errorf("row %d: region is empty", line)
		}

		seed, ok := byName[region]
		if !ok {
			seed = &RegionSeed{Nombre: region}
			byName[region] = seed
			order = append(order, region)
		}
		if hasColor {
			if c := strings.TrimSpace(rec[colorCol]); c != "" {
				seed.Color = c
			}
		}
		if muni == "" {
			continue
		}
		k := names.Key(muni)
		if prev, dup := owner[k]; dup {
			if prev != region {
				return nil, fmt.Errorf("row %d: %q already assigned to %q", line, muni, prev)
			}
			continue
		}
		owner[k] = region
		seed.Municipios = append(seed.Municipios, muni)
	}
	if len(order) == 0 {
		return nil, errors.New("CSV has no data rows")
	}

	out := make([]RegionSeed, 0, len(order))
	for _, name := range order {
		s := byName[name]
		sort.Strings(s.Municipios)
		out = append(out, *s)
	}
	return out, nil
}
