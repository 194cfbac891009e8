package locindex

import (
	"errors"
	"fmt"

	"github.com/hupe1980/locindex/graph"
	"github.com/hupe1980/locindex/internal/compact"
	"github.com/hupe1980/locindex/internal/spatialkey"
)

var (
	// ErrCoordinateOutOfRange is returned for NaN or out-of-range coordinates.
	ErrCoordinateOutOfRange = spatialkey.ErrCoordinateOutOfRange

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrInvalidFilterCombination is returned when a node search is given an
	// edge filter or an edge search is given a node filter.
	ErrInvalidFilterCombination = errors.New("invalid filter combination")

	// ErrInvalidOption is returned for out-of-range configuration values.
	ErrInvalidOption = errors.New("invalid option")

	// ErrCorruptIndex is returned when serialized index data fails validation.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrGraphMismatch is returned when a serialized index was built for a
	// different graph.
	ErrGraphMismatch = errors.New("index does not match graph")

	// ErrClosed is returned when using a closed index.
	ErrClosed = errors.New("index closed")
)

// CoordinateOutOfRangeError reports a coordinate outside lat [-90, 90],
// lon [-180, 180]. Edge is the offending edge during a build and -1 for
// query coordinates.
type CoordinateOutOfRangeError struct {
	Edge  int
	Point graph.Point
}

func (e *CoordinateOutOfRangeError) Error() string {
	if e.Edge < 0 {
		return fmt.Sprintf("query coordinate %v out of range", e.Point)
	}
	return fmt.Sprintf("edge %d: coordinate %v out of range", e.Edge, e.Point)
}

func (e *CoordinateOutOfRangeError) Unwrap() error { return ErrCoordinateOutOfRange }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, compact.ErrCorrupt) {
		return fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}
	if errors.Is(err, spatialkey.ErrInvalidDepth) {
		return fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}

	return err
}
