package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nao1215/orphancrawl/internal/frontier"
	"github.com/nao1215/orphancrawl/internal/model"
)

// FileCrawler walks a server directory tree breadth-first and records every
// file whose extension is whitelisted.
type FileCrawler struct {
	lister DirectoryLister
	root   string
	opts   options

	mu       sync.Mutex
	frontier *frontier.Frontier
	result   *model.CrawlResult
}

// NewFileCrawler creates a crawler over lister. root labels the result, for
// example "ftp://ftp.example.com".
func NewFileCrawler(lister DirectoryLister, root string, opts ...Option) (*FileCrawler, error) {
	if lister == nil {
		return nil, ErrNoLister
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &FileCrawler{
		lister: lister,
		root:   root,
		opts:   o,
	}, nil
}

// StartDir returns the server directory mapped to "/".
func (c *FileCrawler) StartDir() string {
	return c.opts.startDir
}

// Run lists directories until the tree is exhausted, the cap is reached or
// ctx is cancelled.
func (c *FileCrawler) Run(ctx context.Context) error {
	logger := c.opts.logger.With("server", c.root, "start_dir", c.opts.startDir)
	started := time.Now()
	logger.Debug("starting server crawl")

	f := frontier.New("/", c.opts.frontierOptions()...)
	c.mu.Lock()
	c.frontier = f
	c.result = nil
	c.mu.Unlock()

	src := NewListingSource(c.lister, c.opts.startDir, logger)
	if err := f.Run(ctx, src, c.opts.runOptions()...); err != nil {
		return fmt.Errorf("server crawl interrupted: %w", err)
	}

	result, err := f.Result()
	if err != nil {
		return err
	}

	// The server inventory is the set of recorded files, not every path
	// seen in a listing.
	result.FlatLinks = f.Leaves()
	result.Kind = model.CrawlKindServer
	result.Root = c.root + src.ServerPath("/")
	result.StartedAt = started
	result.FinishedAt = time.Now()

	logger.Info("server crawl complete",
		"directories", result.VisitedTotal,
		"files", len(result.FlatLinks),
		"failed", len(result.FailedPaths),
		"partial", result.Partial,
	)

	c.mu.Lock()
	c.result = result
	c.mu.Unlock()
	return nil
}

// Result returns the finished crawl. It fails with
// frontier.ErrCrawlNotComplete until Run has completed.
func (c *FileCrawler) Result() (*model.CrawlResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return nil, frontier.ErrCrawlNotComplete
	}
	return c.result, nil
}

// Stats returns the counters of the running or finished crawl.
func (c *FileCrawler) Stats() model.CrawlStats {
	c.mu.Lock()
	f := c.frontier
	c.mu.Unlock()
	if f == nil {
		return model.CrawlStats{}
	}
	return f.Stats()
}
