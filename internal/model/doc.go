// Package model defines the data handed between the crawlers, the orphan
// reconciler and the report writers.
//
//   - Page: one fetched HTML page and the references found on it
//   - CrawlResult: the outcome of one finished crawl
//   - OrphanReport: server files the site never links to
//
// The types carry JSON tags so reports and the archive can store them as-is.
package model
