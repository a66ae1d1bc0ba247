package trails

import "errors"

var (
	// ErrTrailNotFound indicates the trail id is not in the catalog.
	ErrTrailNotFound = errors.New("trail not found")
	// ErrStopNotFound indicates a stop index outside the stop list.
	ErrStopNotFound = errors.New("trail stop not found")
	// ErrStopsUnavailable indicates a stop was requested before any stops were extracted.
	ErrStopsUnavailable = errors.New("trail stops unavailable")
	// ErrOverviewRequired indicates stop extraction without an overview to read from.
	ErrOverviewRequired = errors.New("trail overview is required")
)
