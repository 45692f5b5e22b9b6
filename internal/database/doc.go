// Package database archives finished orphan reports in SQLite.
//
// Each orphan run is stored with a UUID, its orphan list, a SHA3-256
// digest of that list and the full report as JSON. Optionally the pages
// fetched during the site crawl are stored alongside it. The archive is
// write-once history: it feeds the history command and never seeds or
// resumes a crawl.
//
// The driver is modernc.org/sqlite, which needs no cgo.
package database
