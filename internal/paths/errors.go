package paths

import "errors"

// ErrMalformedReference is returned by Resolve when the reference carries a
// scheme delimiter (":") or a fragment ("#"). Such references point outside
// the crawled tree or at an anchor and must be dropped by the caller.
var ErrMalformedReference = errors.New("malformed reference")
