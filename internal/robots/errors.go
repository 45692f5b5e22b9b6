package robots

import "errors"

// ErrUnknownMode is returned by ParseMode for an unrecognised mode name.
var ErrUnknownMode = errors.New("unknown robots mode")
