package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/orphancrawl/internal/frontier"
	"github.com/nao1215/orphancrawl/internal/model"
	"github.com/nao1215/orphancrawl/internal/robots"
)

// site is a small cyclic web site served by httptest.
type site struct {
	mu    sync.Mutex
	hits  map[string]int
	pages map[string]string
	robot string
}

func newSite() *site {
	return &site{
		hits: make(map[string]int),
		pages: map[string]string{
			"/": `<html><head><title> Home </title></head><body>
				<a href="a.html">A</a>
				<a href="b/">B</a>
				<img src="img/logo.png">
				<a href="http://other.example.com/">elsewhere</a>
				<a href="#top">top</a>
			</body></html>`,
			"/a.html":           `<a href="/">home</a> <a href="b/index.html">b index</a>`,
			"/b/":               `<a href="../a.html">a</a> <a href="page.php?id=1">page</a> <a href="private/x.html">x</a>`,
			"/b/index.html":     `<a href="../">up</a>`,
			"/b/page.php?id=1":  `<a href="../a.html">a</a>`,
			"/b/private/x.html": `<a href="/">home</a>`,
		},
		robot: "User-agent: *\nDisallow: /b/private/\n",
	}
}

func (s *site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}

	s.mu.Lock()
	s.hits[key]++
	s.mu.Unlock()

	if key == "/robots.txt" {
		if s.robot == "" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, s.robot)
		return
	}

	body, ok := s.pages[key]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, body)
}

func (s *site) hitCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.hits))
	for k, v := range s.hits {
		out[k] = v
	}
	return out
}

func TestLinkCrawlerCyclicSite(t *testing.T) {
	t.Parallel()

	s := newSite()
	server := httptest.NewServer(s)
	t.Cleanup(server.Close)

	var pages []*model.Page
	c, err := NewLinkCrawler(server.Client(), server.URL,
		WithPageHandler(func(p *model.Page) { pages = append(pages, p) }),
	)
	if err != nil {
		t.Fatalf("NewLinkCrawler: %v", err)
	}

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	result, err := c.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}

	wantVisited := []string{"/", "/a.html", "/b/", "/b/index.html", "/b/page.php?id=1"}
	if !slices.Equal(result.VisitedPaths, wantVisited) {
		t.Errorf("VisitedPaths = %v, want %v", result.VisitedPaths, wantVisited)
	}
	if result.VisitedTotal != len(wantVisited) {
		t.Errorf("VisitedTotal = %d", result.VisitedTotal)
	}

	wantFlat := []string{
		"/", "/a.html", "/b/", "/b/index.html", "/b/page.php?id=1",
		"/b/private/x.html", "/img/logo.png",
	}
	if !slices.Equal(result.FlatLinks, wantFlat) {
		t.Errorf("FlatLinks = %v, want %v", result.FlatLinks, wantFlat)
	}

	if result.Kind != model.CrawlKindSite || result.Root != server.URL {
		t.Errorf("Kind/Root = %q %q", result.Kind, result.Root)
	}
	if result.Partial {
		t.Error("expected a complete crawl")
	}
	if result.Stats.Malformed != 2 {
		t.Errorf("Malformed = %d, want 2", result.Stats.Malformed)
	}
	if result.Stats.RobotsDenied != 1 {
		t.Errorf("RobotsDenied = %d, want 1", result.Stats.RobotsDenied)
	}
	if result.Stats.NotWhitelisted != 1 {
		t.Errorf("NotWhitelisted = %d, want 1", result.Stats.NotWhitelisted)
	}

	for path, n := range s.hitCounts() {
		if n != 1 {
			t.Errorf("%s fetched %d times", path, n)
		}
	}
	if s.hitCounts()["/b/private/x.html"] != 0 {
		t.Error("robots-denied page was fetched")
	}

	if len(pages) != len(wantVisited) {
		t.Fatalf("page handler saw %d pages", len(pages))
	}
	if pages[0].Title != "Home" {
		t.Errorf("Title = %q, want %q", pages[0].Title, "Home")
	}
	if !c.Robots().Retrieved() {
		t.Error("expected robots.txt to be retrieved")
	}
}

func TestLinkCrawlerWithoutRobots(t *testing.T) {
	t.Parallel()

	s := newSite()
	server := httptest.NewServer(s)
	t.Cleanup(server.Close)

	c, err := NewLinkCrawler(server.Client(), server.URL, WithoutRobots())
	if err != nil {
		t.Fatalf("NewLinkCrawler: %v", err)
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	result, err := c.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}

	if !slices.Contains(result.VisitedPaths, "/b/private/x.html") {
		t.Errorf("expected private page to be visited, got %v", result.VisitedPaths)
	}
	if s.hitCounts()["/robots.txt"] != 0 {
		t.Error("robots.txt was requested")
	}
	if c.Robots().Retrieved() {
		t.Error("expected unrestricted rules")
	}
}

func TestLinkCrawlerFetchFailure(t *testing.T) {
	t.Parallel()

	s := newSite()
	s.pages = map[string]string{
		"/":        `<a href="missing.html">gone</a> <a href="ok.html">ok</a>`,
		"/ok.html": `<p>fine</p>`,
	}
	s.robot = ""
	server := httptest.NewServer(s)
	t.Cleanup(server.Close)

	c, err := NewLinkCrawler(server.Client(), server.URL)
	if err != nil {
		t.Fatalf("NewLinkCrawler: %v", err)
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	result, err := c.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}

	if !slices.Equal(result.FailedPaths, []string{"/missing.html"}) {
		t.Errorf("FailedPaths = %v", result.FailedPaths)
	}
	if !slices.Equal(result.VisitedPaths, []string{"/", "/ok.html"}) {
		t.Errorf("VisitedPaths = %v", result.VisitedPaths)
	}
	if result.Stats.FetchFailures != 1 {
		t.Errorf("FetchFailures = %d", result.Stats.FetchFailures)
	}
	if c.Robots().Retrieved() {
		t.Error("a 404 robots.txt must give unrestricted rules")
	}
}

func TestLinkCrawlerMaxPages(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(newSite())
	t.Cleanup(server.Close)

	c, err := NewLinkCrawler(server.Client(), server.URL, WithMaxPages(2))
	if err != nil {
		t.Fatalf("NewLinkCrawler: %v", err)
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	result, err := c.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}

	if result.VisitedTotal != 2 {
		t.Errorf("VisitedTotal = %d, want 2", result.VisitedTotal)
	}
	if !result.Partial {
		t.Error("expected a partial result")
	}
}

func TestLinkCrawlerResultBeforeRun(t *testing.T) {
	t.Parallel()

	c, err := NewLinkCrawler(nil, "example.com")
	if err != nil {
		t.Fatalf("NewLinkCrawler: %v", err)
	}
	if _, err := c.Result(); !errors.Is(err, frontier.ErrCrawlNotComplete) {
		t.Errorf("Result() error = %v, want ErrCrawlNotComplete", err)
	}
	if c.Robots() != nil {
		t.Error("expected no rules before Run")
	}
	if c.Stats() != (model.CrawlStats{}) {
		t.Error("expected zero stats before Run")
	}
}

func TestLinkCrawlerCancelled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(newSite())
	t.Cleanup(server.Close)

	c, err := NewLinkCrawler(server.Client(), server.URL)
	if err != nil {
		t.Fatalf("NewLinkCrawler: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if _, err := c.Result(); !errors.Is(err, frontier.ErrCrawlNotComplete) {
		t.Errorf("Result() error = %v, want ErrCrawlNotComplete", err)
	}
}

func TestLinkCrawlerRobotsModes(t *testing.T) {
	t.Parallel()

	s := newSite()
	s.robot = "User-agent: *\nDisallow: /b/\nAllow: /b/index.html\n"
	server := httptest.NewServer(s)
	t.Cleanup(server.Close)

	tests := []struct {
		name string
		mode robots.Mode
		want []string
	}{
		{
			// Under the literal reading an Allow only rescues a path when it
			// comes after the Disallow, which it does here.
			name: "literal",
			mode: robots.ModeLiteral,
			want: []string{"/", "/a.html", "/b/index.html"},
		},
		{
			name: "standard",
			mode: robots.ModeStandard,
			want: []string{"/", "/a.html", "/b/index.html"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := NewLinkCrawler(server.Client(), server.URL, WithRobotsMode(tt.mode))
			if err != nil {
				t.Fatalf("NewLinkCrawler: %v", err)
			}
			if err := c.Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			result, err := c.Result()
			if err != nil {
				t.Fatalf("Result: %v", err)
			}
			if !slices.Equal(result.VisitedPaths, tt.want) {
				t.Errorf("VisitedPaths = %v, want %v", result.VisitedPaths, tt.want)
			}
		})
	}
}

func TestParseSiteURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "example.com", want: "http://example.com"},
		{in: "https://example.com/start/", want: "https://example.com/start/"},
		{in: "  http://example.com  ", want: "http://example.com"},
		{in: "", wantErr: true},
		{in: "ftp://example.com", wantErr: true},
		{in: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			u, err := ParseSiteURL(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSiteURL) {
					t.Errorf("expected ErrInvalidSiteURL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.String() != tt.want {
				t.Errorf("got %q, want %q", u.String(), tt.want)
			}
		})
	}
}

func TestHTTPSourceNonHTML(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, `<a href="hidden.html">not a link</a>`)
	}))
	t.Cleanup(server.Close)

	base, err := ParseSiteURL(server.URL)
	if err != nil {
		t.Fatalf("ParseSiteURL: %v", err)
	}
	src := NewHTTPSource(server.Client(), base, 0)

	candidates, err := src.Fetch(context.Background(), "/doc.pdf")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected no candidates, got %v", candidates)
	}
}

func TestHTTPSourceStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	base, err := ParseSiteURL(server.URL)
	if err != nil {
		t.Fatalf("ParseSiteURL: %v", err)
	}
	src := NewHTTPSource(server.Client(), base, 0)

	_, err = src.Fetch(context.Background(), "/secret/")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusForbidden {
		t.Errorf("Code = %d", statusErr.Code)
	}
	if !strings.HasSuffix(statusErr.URL, "/secret/") {
		t.Errorf("URL = %q", statusErr.URL)
	}
}

func TestHTTPSourceSendsUserAgent(t *testing.T) {
	t.Parallel()

	agents := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.UserAgent()
		w.Header().Set("Content-Type", "text/html")
	}))
	t.Cleanup(server.Close)

	base, err := ParseSiteURL(server.URL)
	if err != nil {
		t.Fatalf("ParseSiteURL: %v", err)
	}
	src := NewHTTPSource(server.Client(), base, 0, WithUserAgent("test-agent"))
	if _, err := src.Fetch(context.Background(), "/"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := <-agents; got != "test-agent" {
		t.Errorf("User-Agent = %q", got)
	}
}
