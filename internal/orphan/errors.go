package orphan

import "errors"

// ErrMissingCrawl is returned by Reconcile when a crawl result is nil.
var ErrMissingCrawl = errors.New("missing crawl result")
