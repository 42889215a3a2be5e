package domain

import (
	"context"
	"errors"
)

var (
	// ErrMissingCredential means the geocoding service cannot be called at all.
	// It is fatal for the run.
	ErrMissingCredential = errors.New("geocoding credential is not configured")

	// ErrResolutionFailed wraps transport and API failures of a single lookup.
	ErrResolutionFailed = errors.New("geocoding resolution failed")
)

// ResolutionStatus describes the outcome of a geocoding lookup.
type ResolutionStatus string

const (
	// ResolutionNotAttempted is the zero value: no lookup has been made.
	ResolutionNotAttempted ResolutionStatus = ""
	// ResolutionResolved means the service returned a candidate.
	ResolutionResolved ResolutionStatus = "resolved"
	// ResolutionUnresolved means the service answered with no candidates.
	ResolutionUnresolved ResolutionStatus = "unresolved"
	// ResolutionFailed means the lookup could not be completed.
	ResolutionFailed ResolutionStatus = "failed"
)

// Resolution is the result of resolving a (city, country) pair.
// Coordinates is only meaningful when Status is ResolutionResolved.
type Resolution struct {
	Status      ResolutionStatus
	Coordinates Coordinates
}

// Resolved reports whether the lookup produced coordinates.
func (r Resolution) Resolved() bool {
	return r.Status == ResolutionResolved
}

// Geocoder resolves a city and country to a best-guess coordinate pair.
type Geocoder interface {
	// Resolve returns ResolutionUnresolved with a nil error when the service has
	// no match. ErrMissingCredential is returned when no credential is set.
	Resolve(ctx context.Context, city, country string) (Resolution, error)
}
