package frontier

import (
	"errors"
	"fmt"
)

// ErrCrawlNotComplete is returned by Result while the queue is not empty.
var ErrCrawlNotComplete = errors.New("crawl not complete")

// FetchError records a path whose content could not be fetched. The path is
// dropped from the traversal; the crawl continues.
type FetchError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}
