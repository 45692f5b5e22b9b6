package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSiteURL is returned when the site address has no host or an
	// unsupported scheme.
	ErrInvalidSiteURL = errors.New("invalid site URL")

	// ErrNoLister is returned by NewFileCrawler without a DirectoryLister.
	ErrNoLister = errors.New("no directory lister")
)

// StatusError is returned by HTTPSource for responses with a status of 400
// or above.
type StatusError struct {
	URL  string
	Code int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}
