package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound = errors.New("resource not found")

	// Data quality errors
	ErrInsufficientSamples = errors.New("insufficient samples for analysis")
	ErrEmptyDataset        = errors.New("dataset contains no usable records")
	ErrNonPositiveValue    = errors.New("non-positive value where positive required")
	ErrMissingColumn       = errors.New("required column missing")
	ErrMalformedRecord     = errors.New("malformed record")

	// Mode errors
	ErrSimulationDisabled = errors.New("simulation mode not enabled")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewInsufficientSamplesError(galaxy string, got, need int) error {
	return fmt.Errorf("%w: galaxy %s has %d usable samples, need %d", ErrInsufficientSamples, galaxy, got, need)
}

func NewMissingColumnError(column, source string) error {
	return fmt.Errorf("%w: %s in %s", ErrMissingColumn, column, source)
}

func NewMalformedRecordError(source string, line int, reason string) error {
	return fmt.Errorf("%w: %s line %d: %s", ErrMalformedRecord, source, line, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
