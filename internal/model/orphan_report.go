package model

import "time"

// OrphanReport lists the server files the crawled site never links to.
type OrphanReport struct {
	// ID identifies the report in the archive. Empty until archived.
	ID string `json:"id,omitempty"`

	// Site is the root URL of the crawled site.
	Site string `json:"site"`

	// Server is the root of the listed server tree.
	Server string `json:"server"`

	// GeneratedAt is when the report was reconciled.
	GeneratedAt time.Time `json:"generated_at"`

	// Orphans are server paths missing from the site inventory, sorted.
	Orphans []string `json:"orphans"`

	// ServerInventory is the normalized server inventory.
	ServerInventory []string `json:"server_inventory"`

	// SiteInventory is the normalized site inventory.
	SiteInventory []string `json:"site_inventory"`

	// SiteCrawl and ServerCrawl are the crawls the report was built from.
	SiteCrawl   *CrawlResult `json:"site_crawl,omitempty"`
	ServerCrawl *CrawlResult `json:"server_crawl,omitempty"`
}

// ReportTotals summarises an OrphanReport.
type ReportTotals struct {
	Orphans int `json:"orphans"`
	Server  int `json:"server"`
	Site    int `json:"site"`
	Linked  int `json:"linked"`
}

// Totals returns the report counters.
func (r *OrphanReport) Totals() ReportTotals {
	return ReportTotals{
		Orphans: len(r.Orphans),
		Server:  len(r.ServerInventory),
		Site:    len(r.SiteInventory),
		Linked:  len(r.ServerInventory) - len(r.Orphans),
	}
}

// HasOrphans reports whether any orphan was found.
func (r *OrphanReport) HasOrphans() bool {
	return len(r.Orphans) > 0
}

// Partial reports whether either crawl stopped early, which makes the
// orphan list an over-estimate.
func (r *OrphanReport) Partial() bool {
	return (r.SiteCrawl != nil && r.SiteCrawl.Partial) || (r.ServerCrawl != nil && r.ServerCrawl.Partial)
}
