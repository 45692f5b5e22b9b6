package model

import "time"

// CrawlKind tells a site crawl from a server listing crawl.
type CrawlKind string

const (
	// CrawlKindSite is a breadth-first crawl over the links of a web site.
	CrawlKindSite CrawlKind = "site"
	// CrawlKindServer is a breadth-first walk over a server directory tree.
	CrawlKindServer CrawlKind = "server"
)

// CrawlStats counts what happened to the candidates of a crawl. Every
// candidate that is not enqueued is accounted for in exactly one counter.
type CrawlStats struct {
	// Discovered is the number of raw references or listing entries seen.
	Discovered int `json:"discovered"`

	// Malformed references carried a scheme or a fragment.
	Malformed int `json:"malformed"`

	// Blacklisted candidates contained an ignored directory segment.
	Blacklisted int `json:"blacklisted"`

	// Ignored candidates matched an ignore pattern.
	Ignored int `json:"ignored"`

	// NotWhitelisted candidates had an extension outside the file types.
	NotWhitelisted int `json:"not_whitelisted"`

	// RobotsDenied candidates were refused by robots.txt.
	RobotsDenied int `json:"robots_denied"`

	// Duplicates were already queued, visited, failed or recorded.
	Duplicates int `json:"duplicates"`

	// Enqueued candidates were added to the queue.
	Enqueued int `json:"enqueued"`

	// Leaves are files recorded without being fetched.
	Leaves int `json:"leaves"`

	// FetchFailures is the number of paths whose fetch failed.
	FetchFailures int `json:"fetch_failures"`
}

// Dropped returns the number of candidates filtered out.
func (s CrawlStats) Dropped() int {
	return s.Malformed + s.Blacklisted + s.Ignored + s.NotWhitelisted + s.RobotsDenied + s.Duplicates
}

// CrawlResult is the outcome of a finished crawl.
type CrawlResult struct {
	// Kind is site or server.
	Kind CrawlKind `json:"kind"`

	// Root is the location the paths are relative to, such as
	// "http://example.com" or "ftp://ftp.example.com/www".
	Root string `json:"root"`

	// VisitedTotal is the number of paths that were fetched successfully.
	VisitedTotal int `json:"visited_total"`

	// VisitedPaths are the fetched paths in visiting order.
	VisitedPaths []string `json:"visited_paths"`

	// LinkMap maps each visited path to the unique paths found on it.
	LinkMap map[string][]string `json:"link_map"`

	// FlatLinks is the sorted inventory the crawl produced. For a site it is
	// every visited or linked path; for a server it is every listed file.
	FlatLinks []string `json:"flat_links"`

	// FailedPaths are paths whose fetch failed.
	FailedPaths []string `json:"failed_paths,omitempty"`

	// Stats are the filter counters.
	Stats CrawlStats `json:"stats"`

	// Partial is true when the crawl was stopped before its queue emptied.
	Partial bool `json:"partial"`

	// StartedAt and FinishedAt bound the crawl.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the crawl took.
func (r *CrawlResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// LinkCount returns the number of page to path edges in LinkMap.
func (r *CrawlResult) LinkCount() int {
	n := 0
	for _, targets := range r.LinkMap {
		n += len(targets)
	}
	return n
}
