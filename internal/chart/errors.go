package chart

import "errors"

var (
	// ErrUnknownKind is returned for chart kinds outside the closed set.
	ErrUnknownKind = errors.New("unknown chart kind")
	// ErrNotSplittable is returned when a kind without a data frame is disaggregated.
	ErrNotSplittable = errors.New("chart kind cannot be disaggregated")
	// ErrNoInputs is returned for a summary without effect tables.
	ErrNoInputs = errors.New("summary has no inputs")
)
