package mirror

import "errors"

var (
	// ErrReservedName is returned when data is assigned to a reserved name.
	ErrReservedName = errors.New("mirror: reserved name")

	// ErrRunning is returned by Run when the mirror's loop is already running.
	ErrRunning = errors.New("mirror: already running")

	errNoStore = errors.New("no store")
)
