package source

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrSheetNotFound is returned when a workbook has no worksheet of the requested name.
var ErrSheetNotFound = errors.New("worksheet not found")

// HTTPError is a non-2xx response from Drive.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether the request is worth retrying.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
