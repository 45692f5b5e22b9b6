// Package report renders crawl results and orphan reports.
//
// Writers exist for each Format:
//   - TextWriter: terminal output, coloured when writing to a TTY
//   - JSONWriter: the full report for tool integration
//   - MarkdownWriter: a shareable document with a mermaid pie chart
//   - XMLWriter: the <pages> links document and the <orphan_crawl> document
//   - SitemapWriter: a sitemaps.org 0.9 urlset of the visited pages
//   - HTMLWriter: a standalone page listing orphans with links
//
// Report data lives in the model package; this package only formats it.
package report
