package catalog

import "errors"

var (
	// ErrUnknownPage is returned for a page slug that is not in the catalog.
	ErrUnknownPage = errors.New("unknown page")
	// ErrUnknownOption is returned for an option name a page does not offer.
	ErrUnknownOption = errors.New("unknown option")
)
