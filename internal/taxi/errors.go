package taxi

import "errors"

var (
	// ErrStateOutOfRange is returned when decoding an integer outside [0, NumStates).
	ErrStateOutOfRange = errors.New("taxi: state out of range")
	// ErrMalformedMap is returned when the ASCII map does not describe a 5x4 walled grid.
	ErrMalformedMap = errors.New("taxi: malformed map")
	// ErrCoordinateOutOfBounds is returned when a pickup, destination or hazard cell lies off the grid.
	ErrCoordinateOutOfBounds = errors.New("taxi: coordinate out of bounds")
	// ErrUnknownAction is returned by ParseAction for unrecognized names.
	ErrUnknownAction = errors.New("taxi: unknown action")
)
