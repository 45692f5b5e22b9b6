package robots

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func lines(s string) []string {
	return strings.Split(s, "\n")
}

func TestLoadDisallowAndAllow(t *testing.T) {
	t.Parallel()

	t.Run("disallow prefix blocks nested paths", func(t *testing.T) {
		t.Parallel()

		rs := Load(lines("User-agent: *\nDisallow: /private/"))
		if rs.Allowed("/private/x") {
			t.Error("expected /private/x to be disallowed")
		}
		if !rs.Allowed("/public/x") {
			t.Error("expected /public/x to be allowed")
		}
	})

	t.Run("later allow overrides disallow", func(t *testing.T) {
		t.Parallel()

		rs := Load(lines("User-agent: *\nDisallow: /private/\nAllow: /private/public/"))
		if !rs.Allowed("/private/public/x") {
			t.Error("expected /private/public/x to be allowed")
		}
		if rs.Allowed("/private/other") {
			t.Error("expected /private/other to be disallowed")
		}
	})

	t.Run("empty disallow allows everything", func(t *testing.T) {
		t.Parallel()

		rs := Load(lines("User-agent: *\nDisallow:"))
		if len(rs.Rules()) != 0 {
			t.Errorf("expected no rules, got %d", len(rs.Rules()))
		}
		if !rs.Allowed("/anything") {
			t.Error("expected /anything to be allowed")
		}
	})

	t.Run("wildcards and query prefixes", func(t *testing.T) {
		t.Parallel()

		rs := Load(lines("User-agent: *\nDisallow: /*.pdf\nDisallow: /search?"))
		tests := map[string]bool{
			"/docs/a.pdf":  false,
			"/docs/a.html": true,
			"/search?q=go": false,
			"/search":      true,
		}
		for path, want := range tests {
			if got := rs.Allowed(path); got != want {
				t.Errorf("Allowed(%q) = %v, want %v", path, got, want)
			}
		}
	})

	t.Run("dots are literal", func(t *testing.T) {
		t.Parallel()

		rs := Load(lines("User-agent: *\nDisallow: /a.html"))
		if rs.Allowed("/a.html") {
			t.Error("expected /a.html to be disallowed")
		}
		if !rs.Allowed("/aXhtml") {
			t.Error("expected /aXhtml to be allowed")
		}
	})

	t.Run("patterns are anchored at the path start", func(t *testing.T) {
		t.Parallel()

		rs := Load(lines("User-agent: *\nDisallow: /tmp/"))
		if !rs.Allowed("/site/tmp/x") {
			t.Error("expected /site/tmp/x to be allowed")
		}
	})
}

func TestLoadUserAgentGroups(t *testing.T) {
	t.Parallel()

	file := lines(strings.Join([]string{
		"# robots for example.com",
		"User-agent: BadBot",
		"Disallow: /",
		"",
		"User-agent: *",
		"Disallow: /tmp/ # scratch space",
		"Crawl-delay: 2",
		"",
		"Sitemap: https://example.com/sitemap.xml",
	}, "\n"))

	t.Run("wildcard group applies to other agents", func(t *testing.T) {
		t.Parallel()

		rs := Load(file, WithUserAgent("OrphanCrawl"))
		if !rs.Allowed("/index.html") {
			t.Error("expected /index.html to be allowed")
		}
		if rs.Allowed("/tmp/a") {
			t.Error("expected /tmp/a to be disallowed")
		}
		if rs.CrawlDelay() != 2*time.Second {
			t.Errorf("expected crawl delay 2s, got %v", rs.CrawlDelay())
		}
		sitemaps := rs.Sitemaps()
		if len(sitemaps) != 1 || sitemaps[0] != "https://example.com/sitemap.xml" {
			t.Errorf("unexpected sitemaps %v", sitemaps)
		}
	})

	t.Run("named group matches case-insensitively", func(t *testing.T) {
		t.Parallel()

		rs := Load(file, WithUserAgent("badbot"))
		if rs.Allowed("/index.html") {
			t.Error("expected badbot to be disallowed everywhere")
		}
	})

	t.Run("consecutive user-agent lines share a group", func(t *testing.T) {
		t.Parallel()

		rs := Load(lines("User-agent: other\nUser-agent: *\nDisallow: /x/"))
		if rs.Allowed("/x/y") {
			t.Error("expected /x/y to be disallowed")
		}
	})

	t.Run("a wildcard before a named agent still opens the group", func(t *testing.T) {
		t.Parallel()

		rs := Load(lines("User-agent: *\nUser-agent: googlebot\nDisallow: /x/"), WithUserAgent("orphancrawl"))
		if rs.Allowed("/x/y") {
			t.Error("expected /x/y to be disallowed by the shared group")
		}
	})

	t.Run("non-matching group is ignored", func(t *testing.T) {
		t.Parallel()

		rs := Load(lines("User-agent: googlebot\nDisallow: /"), WithUserAgent("orphancrawl"))
		if !rs.Allowed("/a") {
			t.Error("expected /a to be allowed")
		}
	})
}

func TestPatternsAreAnchored(t *testing.T) {
	t.Parallel()

	rs := Load(lines("User-agent: *\nDisallow: /private/\nDisallow: /*.bak"))

	tests := []struct {
		path    string
		allowed bool
	}{
		{path: "/private/a.html", allowed: false},
		{path: "/private/", allowed: false},
		{path: "/x/private/a.html", allowed: true},
		{path: "/old/page.bak", allowed: false},
		{path: "/privateer.html", allowed: true},
	}
	for _, tt := range tests {
		if got := rs.Allowed(tt.path); got != tt.allowed {
			t.Errorf("Allowed(%q) = %v, want %v", tt.path, got, tt.allowed)
		}
	}
}

func TestModes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		robots string
		path   string
		want   map[Mode]bool
	}{
		{
			name:   "earlier allow",
			robots: "User-agent: *\nAllow: /p/\nDisallow: /p/secret/",
			path:   "/p/secret/x",
			want:   map[Mode]bool{ModeLiteral: false, ModeAllowOverride: true, ModeStandard: false},
		},
		{
			name:   "later broader allow",
			robots: "User-agent: *\nDisallow: /p/secret/\nAllow: /p/",
			path:   "/p/secret/x",
			want:   map[Mode]bool{ModeLiteral: true, ModeAllowOverride: true, ModeStandard: false},
		},
		{
			name:   "later rule of either type overrides",
			robots: "User-agent: *\nDisallow: /p/\nDisallow: /p/x/\nAllow: /p/x/y",
			path:   "/p/x/y",
			want:   map[Mode]bool{ModeLiteral: true, ModeAllowOverride: true, ModeStandard: true},
		},
		{
			name:   "plain disallow",
			robots: "User-agent: *\nDisallow: /p/",
			path:   "/p/x",
			want:   map[Mode]bool{ModeLiteral: false, ModeAllowOverride: false, ModeStandard: false},
		},
	}

	for _, tt := range tests {
		for mode, want := range tt.want {
			t.Run(tt.name+"/"+mode.String(), func(t *testing.T) {
				t.Parallel()

				rs := Load(lines(tt.robots), WithMode(mode))
				if got := rs.Allowed(tt.path); got != want {
					t.Errorf("Allowed(%q) in %s mode = %v, want %v", tt.path, mode, got, want)
				}
			})
		}
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]Mode{
		"":               ModeLiteral,
		"literal":        ModeLiteral,
		"Allow-Override": ModeAllowOverride,
		"standard":       ModeStandard,
	} {
		got, err := ParseMode(name)
		if err != nil {
			t.Errorf("ParseMode(%q) returned error: %v", name, err)
		}
		if got != want {
			t.Errorf("ParseMode(%q) = %v, want %v", name, got, want)
		}
	}

	if _, err := ParseMode("strict"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}

type fakeFetcher struct {
	status int
	lines  []string
	err    error
}

func (f fakeFetcher) FetchRobots(context.Context, string) (int, []string, error) {
	return f.status, f.lines, f.err
}

func TestFetch(t *testing.T) {
	t.Parallel()

	disallowAll := []string{"User-agent: *", "Disallow: /"}

	tests := []struct {
		name      string
		fetcher   fakeFetcher
		retrieved bool
	}{
		{name: "status 200 loads rules", fetcher: fakeFetcher{status: 200, lines: disallowAll}, retrieved: true},
		{name: "status 404 is unrestricted", fetcher: fakeFetcher{status: 404, lines: disallowAll}, retrieved: false},
		{name: "status 500 is unrestricted", fetcher: fakeFetcher{status: 500}, retrieved: false},
		{name: "fetch error is unrestricted", fetcher: fakeFetcher{err: errors.New("connection refused")}, retrieved: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rs := Fetch(context.Background(), tt.fetcher, "example.com")
			if rs.Retrieved() != tt.retrieved {
				t.Errorf("Retrieved() = %v, want %v", rs.Retrieved(), tt.retrieved)
			}
			if got := rs.Allowed("/page.html"); got == tt.retrieved {
				t.Errorf("Allowed(/page.html) = %v", got)
			}
		})
	}
}

func TestHTTPFetcher(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		gotAgent string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		mu.Lock()
		gotAgent = r.Header.Get("User-Agent")
		mu.Unlock()
		_, _ = w.Write([]byte("User-agent: *\r\nDisallow: /admin/\r\n"))
	}))
	defer server.Close()

	host := strings.TrimPrefix(server.URL, "http://")
	fetcher := NewHTTPFetcher(server.Client(), WithFetchUserAgent("OrphanCrawl/1.0"))

	status, got, err := fetcher.FetchRobots(context.Background(), host)
	if err != nil {
		t.Fatalf("FetchRobots returned error: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	if len(got) != 2 || got[1] != "Disallow: /admin/" {
		t.Errorf("unexpected lines %q", got)
	}
	mu.Lock()
	agent := gotAgent
	mu.Unlock()
	if agent != "OrphanCrawl/1.0" {
		t.Errorf("expected User-Agent header, got %q", agent)
	}

	rs := Fetch(context.Background(), fetcher, host)
	if rs.Allowed("/admin/users") {
		t.Error("expected /admin/users to be disallowed")
	}
}

func TestUnrestricted(t *testing.T) {
	t.Parallel()

	rs := Unrestricted(WithMode(ModeStandard))
	if rs.Retrieved() {
		t.Error("expected Retrieved() to be false")
	}
	if !rs.Allowed("/anything/at/all") {
		t.Error("expected everything to be allowed")
	}

	var nilSet *RuleSet
	if !nilSet.Allowed("/x") {
		t.Error("expected nil RuleSet to allow everything")
	}
}
