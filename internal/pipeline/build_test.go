package pipeline

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/orphancrawl/internal/config"
	"github.com/nao1215/orphancrawl/internal/database"
	"github.com/nao1215/orphancrawl/internal/report"
)

// testConfig returns a config for the test site with no politeness delay.
func testConfig(site string) *config.Config {
	cfg := config.NewConfig()
	cfg.Site = site
	cfg.FTP.Server = "ftp.example.com"
	cfg.CrawlDelay = 0
	cfg.IgnoreRobots = true
	return cfg
}

func textWriter(t *testing.T, buf *bytes.Buffer) report.Writer {
	t.Helper()
	w, err := report.NewWriter(report.FormatText, buf, report.WithColor(false))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	return w
}

func TestCrawlerOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr bool
	}{
		{name: "defaults", modify: func(*config.Config) {}},
		{name: "all switches", modify: func(c *config.Config) {
			c.IgnoreRobots = true
			c.IgnoreCrawlDelay = true
			c.IgnorePatterns = []string{"/tmp/*", "*.bak"}
			c.RobotsMode = "standard"
			c.BlacklistMatch = "raw"
		}},
		{name: "bad robots mode", modify: func(c *config.Config) { c.RobotsMode = "lenient" }, wantErr: true},
		{name: "bad blacklist match", modify: func(c *config.Config) { c.BlacklistMatch = "both" }, wantErr: true},
		{name: "bad pattern", modify: func(c *config.Config) { c.IgnorePatterns = []string{"[unclosed"} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewConfig()
			tt.modify(cfg)
			opts, err := CrawlerOptions(cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CrawlerOptions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(opts) == 0 {
				t.Error("expected options")
			}
		})
	}
}

func TestServerRoot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ftp  config.FTPConfig
		want string
	}{
		{config.FTPConfig{Server: "ftp.example.com", Port: 21}, "ftp://ftp.example.com"},
		{config.FTPConfig{Server: "ftp.example.com"}, "ftp://ftp.example.com"},
		{config.FTPConfig{Server: "ftp.example.com", Port: 2121}, "ftp://ftp.example.com:2121"},
		{config.FTPConfig{Server: "::1", Port: 2121}, "ftp://[::1]:2121"},
	}
	for _, tt := range tests {
		if got := ServerRoot(tt.ftp); got != tt.want {
			t.Errorf("ServerRoot(%+v) = %q, want %q", tt.ftp, got, tt.want)
		}
	}
}

func TestNewOrphanPipeline(t *testing.T) {
	t.Parallel()

	srv := newTestSite(t)
	session := newFakeSession()
	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	var buf bytes.Buffer
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	p, err := NewOrphanPipeline(testConfig(srv.URL), Deps{
		HTTPClient: srv.Client(),
		Connect:    connectTo(session),
		Archive:    db,
		Writer:     textWriter(t, &buf),
		Now:        func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewOrphanPipeline: %v", err)
	}
	wantSteps := []string{"crawl", "reconcile", "archive", "report"}
	if !slices.Equal(p.StepNames(), wantSteps) {
		t.Errorf("StepNames() = %v, want %v", p.StepNames(), wantSteps)
	}

	ctx := context.Background()
	run := NewRun(srv.URL)
	if err := p.Execute(ctx, run); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantOrphans := []string{"/docs/draft.html", "/old.html"}
	if !slices.Equal(run.Report.Orphans, wantOrphans) {
		t.Errorf("Orphans = %v, want %v", run.Report.Orphans, wantOrphans)
	}
	if run.Report.Site != srv.URL {
		t.Errorf("Site = %q, want %q", run.Report.Site, srv.URL)
	}
	if session.closeCount() != 1 {
		t.Errorf("session closed %d times, want 1", session.closeCount())
	}

	out := buf.String()
	for _, want := range []string{"ORPHANCRAWL REPORT", "[!] /old.html", "[!] /docs/draft.html", "Run ID:     " + run.RunID} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	runs, err := db.ListRuns(ctx, "")
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.RunID || runs[0].Orphans != 2 {
		t.Errorf("ListRuns = %+v", runs)
	}
	pages, err := db.Pages(ctx, run.RunID)
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != len(sitePages) {
		t.Errorf("archived %d pages, want %d", len(pages), len(sitePages))
	}
}

func TestNewOrphanPipelineWithoutArchive(t *testing.T) {
	t.Parallel()

	srv := newTestSite(t)
	var buf bytes.Buffer
	p, err := NewOrphanPipeline(testConfig(srv.URL), Deps{
		HTTPClient: srv.Client(),
		Connect:    connectTo(newFakeSession()),
		Writer:     textWriter(t, &buf),
	})
	if err != nil {
		t.Fatalf("NewOrphanPipeline: %v", err)
	}
	if slices.Contains(p.StepNames(), "archive") {
		t.Errorf("StepNames() = %v, want no archive step", p.StepNames())
	}

	run := NewRun(srv.URL)
	if err := p.Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if run.RunID != "" {
		t.Errorf("RunID = %q, want empty", run.RunID)
	}
	if len(run.Pages()) != 0 {
		t.Error("pages collected without an archive")
	}
}

func TestSingleCrawlPipelines(t *testing.T) {
	t.Parallel()

	t.Run("site", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(t)
		var buf bytes.Buffer
		p, err := NewSitePipeline(testConfig(srv.URL), Deps{
			HTTPClient: srv.Client(),
			Writer:     textWriter(t, &buf),
		})
		if err != nil {
			t.Fatalf("NewSitePipeline: %v", err)
		}
		if err := p.Execute(context.Background(), NewRun(srv.URL)); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if !strings.Contains(buf.String(), "SITE CRAWL REPORT") {
			t.Errorf("unexpected report:\n%s", buf.String())
		}
	})

	t.Run("server", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cfg := testConfig("")
		p, err := NewServerPipeline(cfg, Deps{
			Connect: connectTo(newFakeSession()),
			Writer:  textWriter(t, &buf),
		})
		if err != nil {
			t.Fatalf("NewServerPipeline: %v", err)
		}
		if err := p.Execute(context.Background(), NewRun("")); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "SERVER CRAWL REPORT") || !strings.Contains(out, "/old.html") {
			t.Errorf("unexpected report:\n%s", out)
		}
	})
}

func TestPipelineRequirements(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := textWriter(t, &buf)

	cfg := testConfig("")
	if _, err := NewSitePipeline(cfg, Deps{Writer: w}); !errors.Is(err, config.ErrNoSite) {
		t.Errorf("NewSitePipeline error = %v, want ErrNoSite", err)
	}

	cfg = testConfig("http://example.com")
	cfg.FTP.Server = ""
	if _, err := NewOrphanPipeline(cfg, Deps{Writer: w}); !errors.Is(err, config.ErrNoServer) {
		t.Errorf("NewOrphanPipeline error = %v, want ErrNoServer", err)
	}

	if _, err := NewSitePipeline(testConfig("http://example.com"), Deps{}); !errors.Is(err, ErrNoWriter) {
		t.Errorf("NewSitePipeline error = %v, want ErrNoWriter", err)
	}
}
