package regions

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/EmpoweredVote/region-map/internal/names"
)

// ErrCatalogFetch covers a failed catalog fetch or a payload that does not
// match the catalog contract.
var ErrCatalogFetch = errors.New("region catalog unavailable")

// RegionID identifies a region. The catalog emits ids as numbers or strings
// depending on the backend, so both decode to the same canonical string.
type RegionID string

func (id *RegionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RegionID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("region id: %w", err)
	}
	*id = RegionID(n.String())
	return nil
}

// RegionIDFromUint formats a database id.
func RegionIDFromUint(id uint) RegionID {
	return RegionID(strconv.FormatUint(uint64(id), 10))
}

// CatalogRegion is one entry of "regiones".
type CatalogRegion struct {
	ID     RegionID `json:"id"`
	Nombre string   `json:"nombre"`
	Color  string   `json:"color"`
}

// CatalogMunicipio is one entry of "region_municipios".
type CatalogMunicipio struct {
	Municipio string   `json:"municipio"`
	RegionID  RegionID `json:"region_id"`
}

// Catalog is the region catalog contract served at /regions/catalog and
// consumed from REGION_CATALOG_URL.
type Catalog struct {
	OK               bool                `json:"ok"`
	Regiones         []CatalogRegion     `json:"regiones"`
	MuniToRegion     map[string]RegionID `json:"muni_to_region"`
	RegionMunicipios []CatalogMunicipio  `json:"region_municipios"`
}

// DecodeCatalog reads and checks a catalog payload. Anything that is not a
// JSON object with the expected members fails with ErrCatalogFetch.
func DecodeCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("%w: decode: %v", ErrCatalogFetch, err)
	}
	if c.Regiones == nil && c.MuniToRegion == nil && c.RegionMunicipios == nil {
		return Catalog{}, fmt.Errorf("%w: payload has no regiones, muni_to_region or region_municipios", ErrCatalogFetch)
	}
	for i, reg := range c.Regiones {
		if reg.ID == "" {
			return Catalog{}, fmt.Errorf("%w: regiones[%d] has no id", ErrCatalogFetch, i)
		}
	}
	return c, nil
}

// MunicipioRegions maps normalized municipality keys to region ids. Explicit
// region_municipios rows win over the muni_to_region map.
func (c Catalog) MunicipioRegions() map[string]RegionID {
	out := make(map[string]RegionID, len(c.MuniToRegion)+len(c.RegionMunicipios))
	for name, id := range c.MuniToRegion {
		if k := names.Key(name); k != "" && id != "" {
			out[k] = id
		}
	}
	for _, rm := range c.RegionMunicipios {
		if k := names.Key(rm.Municipio); k != "" && rm.RegionID != "" {
			out[k] = rm.RegionID
		}
	}
	return out
}

// Colors maps region ids to their display color. Regions without a color are
// left out so callers fall back to their default.
func (c Catalog) Colors() map[RegionID]string {
	out := make(map[RegionID]string, len(c.Regiones))
	for _, r := range c.Regiones {
		if color := strings.TrimSpace(r.Color); color != "" {
			out[r.ID] = color
		}
	}
	return out
}

// Region returns the catalog entry for id.
func (c Catalog) Region(id RegionID) (CatalogRegion, bool) {
	for _, r := range c.Regiones {
		if r.ID == id {
			return r, true
		}
	}
	return CatalogRegion{}, false
}

// MunicipiosFor lists the municipality names assigned to id, as spelled in
// the catalog, sorted. Overrides from region_municipios apply.
func (c Catalog) MunicipiosFor(id RegionID) []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		k := names.Key(name)
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		out = append(out, name)
	}
	for _, rm := range c.RegionMunicipios {
		if rm.RegionID == id {
			add(rm.Municipio)
		}
	}
	resolved := c.MunicipioRegions()
	for name := range c.MuniToRegion {
		if resolved[names.Key(name)] == id {
			add(name)
		}
	}
	sort.Strings(out)
	return out
}
