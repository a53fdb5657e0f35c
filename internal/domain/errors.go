package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCoordinate is matched by every InvalidCoordinateError.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrInvalidOptions rejects non-positive speeds and negative dwell times.
	ErrInvalidOptions = errors.New("invalid sequencer options")

	ErrVendorNotFound = errors.New("vendor not found")

	// ErrVendorWithoutLocation means the vendor has no depot to start a route from.
	ErrVendorWithoutLocation = errors.New("vendor has no location")
)

// InvalidCoordinateError describes which point failed validation.
// StopID is empty when the depot itself is invalid.
type InvalidCoordinateError struct {
	Field  string
	Lon    float64
	Lat    float64
	StopID string
}

func (e *InvalidCoordinateError) Error() string {
	if e.StopID != "" {
		return fmt.Sprintf("invalid coordinate: stop %q %s out of range (lon=%g lat=%g)", e.StopID, e.Field, e.Lon, e.Lat)
	}
	return fmt.Sprintf("invalid coordinate: %s out of range (lon=%g lat=%g)", e.Field, e.Lon, e.Lat)
}

func (e *InvalidCoordinateError) Is(target error) bool {
	return target == ErrInvalidCoordinate
}
