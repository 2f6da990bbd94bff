package frame

import "errors"

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("missing column")
