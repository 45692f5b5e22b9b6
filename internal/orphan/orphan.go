package orphan

import (
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/nao1215/orphancrawl/internal/model"
	"github.com/nao1215/orphancrawl/internal/paths"
)

// indexFile matches a directory index such as /docs/index.html.
var indexFile = regexp.MustCompile(`^(.*/)index\.[^/]*$`)

// CollapseIndex maps an index file to its directory.
func CollapseIndex(p string) string {
	return indexFile.ReplaceAllString(p, "$1")
}

// Normalize collapses index files, deduplicates and sorts. With stripQuery
// the query string of each path is dropped first.
func Normalize(inventory []string, stripQuery bool) []string {
	seen := make(map[string]struct{}, len(inventory))
	out := make([]string, 0, len(inventory))
	for _, p := range inventory {
		if stripQuery {
			p = paths.StripQuery(p)
		}
		p = CollapseIndex(p)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Diff returns the normalized server paths missing from the site
// inventory, in sorted order. Site paths missing from the server are not
// reported. Extensionless site paths count as directories.
func Diff(server, site []string) []string {
	dirs := make([]string, len(site))
	for i, p := range site {
		dirs[i] = paths.DirectoryLike(paths.StripQuery(p))
	}
	linked := make(map[string]struct{}, len(site))
	for _, p := range Normalize(dirs, false) {
		linked[p] = struct{}{}
	}

	var orphans []string
	for _, p := range Normalize(server, false) {
		if _, ok := linked[p]; !ok {
			orphans = append(orphans, p)
		}
	}
	if orphans == nil {
		orphans = []string{}
	}
	return orphans
}

// Option configures Reconcile.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the clock used for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Reconcile builds the orphan report for a finished site crawl and a
// finished server crawl.
func Reconcile(site, server *model.CrawlResult, opts ...Option) (*model.OrphanReport, error) {
	if site == nil {
		return nil, fmt.Errorf("%w: site", ErrMissingCrawl)
	}
	if server == nil {
		return nil, fmt.Errorf("%w: server", ErrMissingCrawl)
	}

	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	return &model.OrphanReport{
		Site:            site.Root,
		Server:          server.Root,
		GeneratedAt:     o.now(),
		Orphans:         Diff(server.FlatLinks, site.FlatLinks),
		ServerInventory: Normalize(server.FlatLinks, false),
		SiteInventory:   Normalize(site.FlatLinks, true),
		SiteCrawl:       site,
		ServerCrawl:     server,
	}, nil
}
