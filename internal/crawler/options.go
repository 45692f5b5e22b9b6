package crawler

import (
	"log/slog"
	"time"

	"github.com/gobwas/glob"

	"github.com/nao1215/orphancrawl/internal/frontier"
	"github.com/nao1215/orphancrawl/internal/model"
	"github.com/nao1215/orphancrawl/internal/robots"
)

// Defaults shared by both crawlers.
const (
	// DefaultUserAgent identifies the crawler to web servers and robots.txt.
	DefaultUserAgent = "orphancrawl/1.0 (+https://github.com/nao1215/orphancrawl)"

	// DefaultStartDir is the server directory that maps to the site root.
	DefaultStartDir = "/www"
)

// DefaultFileTypes are the extensions crawled when none are configured.
func DefaultFileTypes() []string {
	return []string{"html", "htm", "php"}
}

// options holds the settings of a LinkCrawler or FileCrawler. Settings that
// do not apply to a crawler are ignored by it.
type options struct {
	fileTypes      []string
	blacklist      []string
	blacklistMatch frontier.BlacklistMatch
	ignore         []glob.Glob
	maxPages       int
	logger         *slog.Logger
	observer       func(*frontier.Batch)

	// site crawl only
	userAgent        string
	delay            time.Duration
	robotsMode       robots.Mode
	robotsDisabled   bool
	ignoreCrawlDelay bool
	maxBodySize      int64
	onPage           func(*model.Page)

	// server crawl only
	startDir string
}

func defaultOptions() options {
	return options{
		fileTypes: DefaultFileTypes(),
		userAgent: DefaultUserAgent,
		startDir:  DefaultStartDir,
		logger:    slog.Default(),
	}
}

// Option configures a crawler.
type Option func(*options)

// WithFileTypes sets the extensions that are crawled or recorded.
func WithFileTypes(types ...string) Option {
	return func(o *options) {
		o.fileTypes = types
	}
}

// WithBlacklist sets directory names that are never entered.
func WithBlacklist(dirs ...string) Option {
	return func(o *options) {
		o.blacklist = dirs
	}
}

// WithBlacklistMatch selects whether the blacklist is checked against the
// resolved path or the reference as written.
func WithBlacklistMatch(m frontier.BlacklistMatch) Option {
	return func(o *options) {
		o.blacklistMatch = m
	}
}

// WithIgnore adds compiled ignore patterns.
func WithIgnore(patterns ...glob.Glob) Option {
	return func(o *options) {
		o.ignore = append(o.ignore, patterns...)
	}
}

// WithMaxPages stops the crawl after n fetched paths. The result is then
// marked partial. Zero means no limit.
func WithMaxPages(n int) Option {
	return func(o *options) {
		o.maxPages = n
	}
}

// WithLogger sets the logger. A nil logger keeps slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver is called after every frontier step.
func WithObserver(fn func(*frontier.Batch)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// WithUserAgent sets the User-Agent sent with requests and matched against
// robots.txt groups.
func WithUserAgent(agent string) Option {
	return func(o *options) {
		if agent != "" {
			o.userAgent = agent
		}
	}
}

// WithDelay sets the minimum time between two requests.
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		o.delay = d
	}
}

// WithRobotsMode selects how robots.txt rules are evaluated.
func WithRobotsMode(m robots.Mode) Option {
	return func(o *options) {
		o.robotsMode = m
	}
}

// WithoutRobots skips fetching robots.txt.
func WithoutRobots() Option {
	return func(o *options) {
		o.robotsDisabled = true
	}
}

// WithIgnoreCrawlDelay ignores the Crawl-delay of robots.txt.
func WithIgnoreCrawlDelay() Option {
	return func(o *options) {
		o.ignoreCrawlDelay = true
	}
}

// WithMaxBodySize caps how much of each response is read.
func WithMaxBodySize(n int64) Option {
	return func(o *options) {
		o.maxBodySize = n
	}
}

// WithPageHandler is called with every fetched page.
func WithPageHandler(fn func(*model.Page)) Option {
	return func(o *options) {
		o.onPage = fn
	}
}

// WithStartDir sets the server directory that maps to the site root.
func WithStartDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.startDir = dir
		}
	}
}

func (o options) frontierOptions() []frontier.Option {
	return []frontier.Option{
		frontier.WithFileTypes(o.fileTypes...),
		frontier.WithBlacklist(o.blacklist...),
		frontier.WithBlacklistMatch(o.blacklistMatch),
		frontier.WithIgnore(o.ignore...),
	}
}

func (o options) runOptions() []frontier.RunOption {
	return []frontier.RunOption{
		frontier.WithMaxVisited(o.maxPages),
		frontier.WithObserver(o.observer),
	}
}
