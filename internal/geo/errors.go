package geo

import "errors"

// Failure classes. Callers log and skip the offending record; none of these
// reach the map consumer.
var (
	// ErrParse: WKT or embedded geometry could not be converted to any geometry.
	ErrParse = errors.New("geometry parse failure")
	// ErrSanitize: the geometry parsed but its coordinate tree cannot be repaired.
	ErrSanitize = errors.New("geometry sanitize failure")
	// ErrInsert: the layer rejected a geometry that passed sanitization.
	ErrInsert = errors.New("layer insert failure")
)
