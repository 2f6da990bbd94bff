package engine

import "errors"

var (
	// ErrUnknownChart is returned when an option has no chart with the given key.
	ErrUnknownChart = errors.New("unknown chart")
	// ErrUnknownTile is returned for a tile index outside the rendered panel.
	ErrUnknownTile = errors.New("unknown tile")
)
