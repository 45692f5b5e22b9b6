package pipeline

import "errors"

var (
	// ErrNoCrawlResult is returned when a step needs a crawl that has not run.
	ErrNoCrawlResult = errors.New("no crawl result")

	// ErrNoWriter is returned by a report step without a writer.
	ErrNoWriter = errors.New("no report writer")

	// ErrNoArchive is returned by an archive step without a database.
	ErrNoArchive = errors.New("no report archive")
)
