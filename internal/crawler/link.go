package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/orphancrawl/internal/frontier"
	"github.com/nao1215/orphancrawl/internal/model"
	"github.com/nao1215/orphancrawl/internal/paths"
	"github.com/nao1215/orphancrawl/internal/robots"
)

// LinkCrawler crawls a web site breadth-first over its links.
type LinkCrawler struct {
	client *http.Client
	site   *url.URL
	seed   string
	opts   options

	mu       sync.Mutex
	frontier *frontier.Frontier
	rules    *robots.RuleSet
	result   *model.CrawlResult
}

// ParseSiteURL accepts "example.com", "http://example.com" or
// "https://example.com/start/" and returns the parsed URL. A missing scheme
// defaults to http.
func ParseSiteURL(site string) (*url.URL, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSiteURL)
	}
	if !strings.Contains(site, "://") {
		site = "http://" + site
	}
	u, err := url.Parse(site)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSiteURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidSiteURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: no host in %q", ErrInvalidSiteURL, site)
	}
	return u, nil
}

// NewLinkCrawler creates a crawler for site. The crawl starts at the path of
// site, or "/" when it has none.
func NewLinkCrawler(client *http.Client, site string, opts ...Option) (*LinkCrawler, error) {
	u, err := ParseSiteURL(site)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if client == nil {
		client = http.DefaultClient
	}

	seed := "/"
	if u.Path != "" {
		seed = paths.Clean(u.Path)
	}

	return &LinkCrawler{
		client: client,
		site:   u,
		seed:   seed,
		opts:   o,
	}, nil
}

// Root returns scheme://host of the crawled site.
func (c *LinkCrawler) Root() string {
	return c.site.Scheme + "://" + c.site.Host
}

// Run fetches robots.txt, then crawls until the frontier is done, the page
// cap is reached or ctx is cancelled. A cancelled crawl has no result.
func (c *LinkCrawler) Run(ctx context.Context) error {
	logger := c.opts.logger.With("site", c.Root())
	started := time.Now()

	rules := c.loadRobots(ctx)
	delay := c.opts.delay
	if !c.opts.ignoreCrawlDelay && rules.CrawlDelay() > delay {
		delay = rules.CrawlDelay()
	}
	logger.Debug("starting site crawl",
		"seed", c.seed,
		"robots", rules.Retrieved(),
		"robots_mode", rules.Mode().String(),
		"delay", delay,
	)

	f := frontier.New(c.seed, append(c.opts.frontierOptions(), frontier.WithPolicy(rules))...)
	c.mu.Lock()
	c.frontier = f
	c.rules = rules
	c.result = nil
	c.mu.Unlock()

	src := NewHTTPSource(c.client, c.site, delay,
		WithUserAgent(c.opts.userAgent),
		WithMaxBodySize(c.opts.maxBodySize),
		WithLogger(logger),
		WithPageHandler(c.opts.onPage),
	)

	if err := f.Run(ctx, src, c.opts.runOptions()...); err != nil {
		return fmt.Errorf("site crawl interrupted: %w", err)
	}

	result, err := f.Result()
	if err != nil {
		return err
	}
	result.Kind = model.CrawlKindSite
	result.Root = c.Root()
	result.StartedAt = started
	result.FinishedAt = time.Now()

	logger.Info("site crawl complete",
		"visited", result.VisitedTotal,
		"links", len(result.FlatLinks),
		"failed", len(result.FailedPaths),
		"partial", result.Partial,
	)

	c.mu.Lock()
	c.result = result
	c.mu.Unlock()
	return nil
}

func (c *LinkCrawler) loadRobots(ctx context.Context) *robots.RuleSet {
	ruleOpts := []robots.Option{
		robots.WithUserAgent(c.opts.userAgent),
		robots.WithMode(c.opts.robotsMode),
	}
	if c.opts.robotsDisabled {
		return robots.Unrestricted(ruleOpts...)
	}
	fetcher := robots.NewHTTPFetcher(c.client,
		robots.WithScheme(c.site.Scheme),
		robots.WithFetchUserAgent(c.opts.userAgent),
	)
	return robots.Fetch(ctx, fetcher, c.site.Host, ruleOpts...)
}

// Result returns the finished crawl. It fails with
// frontier.ErrCrawlNotComplete until Run has completed.
func (c *LinkCrawler) Result() (*model.CrawlResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return nil, frontier.ErrCrawlNotComplete
	}
	return c.result, nil
}

// Robots returns the rules in effect, or nil before Run.
func (c *LinkCrawler) Robots() *robots.RuleSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rules
}

// Stats returns the counters of the running or finished crawl.
func (c *LinkCrawler) Stats() model.CrawlStats {
	c.mu.Lock()
	f := c.frontier
	c.mu.Unlock()
	if f == nil {
		return model.CrawlStats{}
	}
	return f.Stats()
}
