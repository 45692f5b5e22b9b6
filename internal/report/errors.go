package report

import "errors"

var (
	// ErrUnknownFormat is returned by ParseFormat for unsupported names.
	ErrUnknownFormat = errors.New("unknown report format")

	// ErrUnsupported is returned when a format cannot render the given
	// input, such as a sitemap of a server listing.
	ErrUnsupported = errors.New("report format does not support this input")

	// ErrNilReport is returned when a writer is handed a nil report.
	ErrNilReport = errors.New("report is nil")
)
