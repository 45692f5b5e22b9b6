// Package crawler runs the two breadth-first crawls orphancrawl needs.
//
// # Components
//
//   - LinkCrawler walks a web site over the href and src references of its
//     HTML pages. It honours robots.txt and waits between requests.
//   - FileCrawler walks a server directory tree over a DirectoryLister,
//     normally an FTP session, and records every whitelisted file.
//
// Both are thin drivers around frontier.Frontier: they supply a
// frontier.Source (HTTPSource or ListingSource) and shape the finished
// frontier state into a model.CrawlResult.
//
// # Usage
//
//	lc, err := crawler.NewLinkCrawler(httpClient, "http://example.com",
//		crawler.WithFileTypes("html", "php"),
//		crawler.WithDelay(time.Second))
//	if err != nil {
//		return err
//	}
//	if err := lc.Run(ctx); err != nil {
//		return err
//	}
//	result, err := lc.Result()
//
// Results are only available once a crawl has finished; until then Result
// returns frontier.ErrCrawlNotComplete.
package crawler
