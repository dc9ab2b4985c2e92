package geo

import (
	"fmt"
	"log"

	"github.com/EmpoweredVote/region-map/internal/metrics"
)

// InsertOutcome tags how a batch made it into a layer.
type InsertOutcome int

const (
	// Inserted: the batch was accepted as given.
	Inserted InsertOutcome = iota
	// Repaired: the batch was accepted after sanitization.
	Repaired
	// PartiallyFailed: features were inserted one by one and some were skipped.
	PartiallyFailed
)

func (o InsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Repaired:
		return "repaired"
	case PartiallyFailed:
		return "partially_failed"
	default:
		return fmt.Sprintf("InsertOutcome(%d)", int(o))
	}
}

func (o InsertOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// InsertResult reports what SafeInsert did.
type InsertResult struct {
	Outcome InsertOutcome `json:"outcome"`
	Added   int           `json:"added"`
	// Skipped names the features that could not be inserted (PartiallyFailed only).
	Skipped []string `json:"skipped,omitempty"`
}

// SafeInsert adds fc to layer in three stages: as given; sanitized as a whole;
// then feature by feature, skipping the ones that still fail. A malformed
// feature never keeps the rest of the batch off the layer, and a panicking
// layer is treated like a rejecting one.
func SafeInsert(layer Layer, fc FeatureCollection) InsertResult {
	if fc.Type == "" {
		fc.Type = TypeFeatureCollection
	}

	err := tryAdd(layer, fc)
	if err == nil {
		return InsertResult{Outcome: Inserted, Added: len(fc.Features)}
	}
	log.Printf("[geo] direct insert of %d features failed, sanitizing: %v", len(fc.Features), err)
	metrics.InsertFailuresTotal.WithLabelValues("direct").Inc()

	clean, err := SanitizeCollection(fc)
	if err == nil {
		if err = tryAdd(layer, clean); err == nil {
			return InsertResult{Outcome: Repaired, Added: len(clean.Features)}
		}
	}
	log.Printf("[geo] sanitized insert failed, inserting features one by one: %v", err)
	metrics.InsertFailuresTotal.WithLabelValues("sanitized").Inc()

	res := InsertResult{Outcome: Repaired}
	for i, f := range fc.Features {
		sf, err := SanitizeFeature(f)
		if err == nil {
			err = tryAdd(layer, NewFeatureCollection(sf))
		}
		if err != nil {
			name := f.Name()
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			log.Printf("[geo] skipping feature %s: %v", name, err)
			metrics.InsertFailuresTotal.WithLabelValues("feature").Inc()
			res.Skipped = append(res.Skipped, name)
			continue
		}
		res.Added++
	}
	if len(res.Skipped) > 0 {
		res.Outcome = PartiallyFailed
	}
	return res
}

// SafeInsertFeature is SafeInsert for a single feature.
func SafeInsertFeature(layer Layer, f Feature) InsertResult {
	return SafeInsert(layer, NewFeatureCollection(f))
}

func tryAdd(layer Layer, fc FeatureCollection) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: layer panicked: %v", ErrInsert, r)
		}
	}()
	if layer == nil {
		return fmt.Errorf("%w: nil layer", ErrInsert)
	}
	return layer.AddData(fc)
}
