package formation

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidConfig is returned when a formation cannot be built from the
	// supplied configuration. No partial state is constructed.
	ErrInvalidConfig = errors.New("formation: invalid configuration")

	// ErrNotSquare is returned by grid rotation on a rows != cols grid.
	ErrNotSquare = errors.New("formation: grid rotation requires a square grid")

	// ErrNotInitialized is returned when a Solver is used before New has set it up.
	ErrNotInitialized = errors.New("formation: solver not initialized")
)

// Shape is the fixed row/column layout of a formation.
type Shape struct {
	Rows          int
	Columns       int
	RowSpacing    float64 // gap between rows, along the frame's local X axis
	ColumnSpacing float64 // gap between columns, along the frame's local Z axis
}

// Total returns the number of cells in the formation.
func (s Shape) Total() int {
	return s.Rows * s.Columns
}

// Square reports whether the shape has as many rows as columns.
func (s Shape) Square() bool {
	return s.Rows == s.Columns
}

// Validate checks counts and spacings.
func (s Shape) Validate() error {
	if s.Rows < 1 {
		return fmt.Errorf("rows must be >= 1, got %d: %w", s.Rows, ErrInvalidConfig)
	}
	if s.Columns < 1 {
		return fmt.Errorf("columns must be >= 1, got %d: %w", s.Columns, ErrInvalidConfig)
	}
	if !validSpacing(s.RowSpacing) {
		return fmt.Errorf("row spacing must be finite and >= 0, got %g: %w", s.RowSpacing, ErrInvalidConfig)
	}
	if !validSpacing(s.ColumnSpacing) {
		return fmt.Errorf("column spacing must be finite and >= 0, got %g: %w", s.ColumnSpacing, ErrInvalidConfig)
	}
	return nil
}

func validSpacing(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
