package sim

import "errors"

var (
	// ErrInvalidArgument is returned when an entity is constructed from
	// malformed input. It is a precondition violation, never recoverable mid-run.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a referenced order, item, cell or tool
	// statistic does not exist. The simulation loop treats it as fatal.
	ErrNotFound = errors.New("not found")
)
