package main

import (
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/orphancrawl/internal/config"
	"github.com/nao1215/orphancrawl/internal/report"
)

func profileFile() *config.File {
	passive := false
	return &config.File{
		Defaults: config.SiteConfig{
			MaxPages:   10,
			IgnoreDirs: []string{"cgi-bin"},
		},
		Sites: map[string]config.SiteConfig{
			"example.com": {
				Cookie:  "session=abc",
				Headers: map[string]string{"X-Token": "t1"},
				FTP: &config.SiteFTPConfig{
					Server:   "ftp.example.com",
					User:     "deploy",
					Password: "secret",
					StartDir: "/public_html",
					Passive:  &passive,
				},
			},
			"other.org": {},
		},
	}
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("profile overlays defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewOrphansCmd()
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, "http://www.example.com", profileFile(), "/etc/orphancrawl.yaml")
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}

		if cfg.MaxPages != 10 {
			t.Errorf("MaxPages = %d, want 10", cfg.MaxPages)
		}
		if cfg.Cookie != "session=abc" {
			t.Errorf("Cookie = %q", cfg.Cookie)
		}
		if cfg.FTP.Server != "ftp.example.com" || cfg.FTP.User != "deploy" || cfg.FTP.StartDir != "/public_html" {
			t.Errorf("FTP = %+v", cfg.FTP)
		}
		if cfg.FTP.Passive {
			t.Error("FTP.Passive = true, want profile value false")
		}
		if cfg.ConfigFilePath != "/etc/orphancrawl.yaml" {
			t.Errorf("ConfigFilePath = %q", cfg.ConfigFilePath)
		}
		if !cfg.SaveToDB {
			t.Error("SaveToDB = false, want true")
		}
		if cfg.DBDir != config.XDGDataDir() {
			t.Errorf("DBDir = %q", cfg.DBDir)
		}
	})

	t.Run("flags win over the profile", func(t *testing.T) {
		t.Parallel()

		cmd := NewOrphansCmd()
		err := cmd.ParseFlags([]string{
			"--max-pages", "5",
			"--cookie", "session=xyz",
			"-H", "X-Extra=e1",
			"--ftp-user", "admin",
			"--ftp-passive",
			"--ignore-dirs", "stats,logs",
			"--crawl-delay", "0s",
			"--no-save",
			"--db-dir", "/tmp/archive",
			"-f", "json",
		})
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, "http://example.com", profileFile(), "")
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}

		if cfg.MaxPages != 5 {
			t.Errorf("MaxPages = %d, want 5", cfg.MaxPages)
		}
		if cfg.Cookie != "session=xyz" {
			t.Errorf("Cookie = %q", cfg.Cookie)
		}
		wantHeaders := map[string]string{"X-Token": "t1", "X-Extra": "e1"}
		if !maps.Equal(cfg.Headers, wantHeaders) {
			t.Errorf("Headers = %v, want %v", cfg.Headers, wantHeaders)
		}
		if cfg.FTP.User != "admin" || cfg.FTP.Password != "secret" {
			t.Errorf("FTP user/password = %q/%q", cfg.FTP.User, cfg.FTP.Password)
		}
		if !cfg.FTP.Passive {
			t.Error("FTP.Passive = false, want flag value true")
		}
		if !slices.Equal(cfg.IgnoreDirs, []string{"stats", "logs"}) {
			t.Errorf("IgnoreDirs = %v", cfg.IgnoreDirs)
		}
		if cfg.CrawlDelay != 0 {
			t.Errorf("CrawlDelay = %v, want 0", cfg.CrawlDelay)
		}
		if cfg.SaveToDB {
			t.Error("SaveToDB = true, want false")
		}
		if cfg.DBDir != "/tmp/archive" {
			t.Errorf("DBDir = %q", cfg.DBDir)
		}
		if cfg.ReportFormat != "json" {
			t.Errorf("ReportFormat = %q", cfg.ReportFormat)
		}
	})

	t.Run("unknown site uses defaults only", func(t *testing.T) {
		t.Parallel()

		cmd := NewSiteCmd()
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, "http://unknown.net", profileFile(), "")
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.Cookie != "" || cfg.FTP.Server != "" {
			t.Errorf("unexpected profile values: cookie %q, ftp %q", cfg.Cookie, cfg.FTP.Server)
		}
		if !slices.Equal(cfg.IgnoreDirs, []string{"cgi-bin"}) {
			t.Errorf("IgnoreDirs = %v", cfg.IgnoreDirs)
		}
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "orphancrawl.yaml")
		content := "sites:\n  example.com:\n    cookie: a=1\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		root := NewRootCmd()
		cmd, _, err := root.Find([]string{"settings"})
		if err != nil {
			t.Fatal(err)
		}
		if err := root.PersistentFlags().Set("config", path); err != nil {
			t.Fatal(err)
		}

		file, gotPath, err := loadConfigFile(cmd)
		if err != nil {
			t.Fatalf("loadConfigFile() error = %v", err)
		}
		if gotPath != path {
			t.Errorf("path = %q, want %q", gotPath, path)
		}
		if file.Sites["example.com"].Cookie != "a=1" {
			t.Errorf("Sites = %+v", file.Sites)
		}
	})

	t.Run("missing explicit file", func(t *testing.T) {
		t.Parallel()

		root := NewRootCmd()
		cmd, _, err := root.Find([]string{"settings"})
		if err != nil {
			t.Fatal(err)
		}
		missing := filepath.Join(t.TempDir(), "missing.yaml")
		if err := root.PersistentFlags().Set("config", missing); err != nil {
			t.Fatal(err)
		}

		if _, _, err := loadConfigFile(cmd); err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("loadConfigFile() error = %v, want not found", err)
		}
	})
}

func TestReportPath(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		setup   func(*config.Config)
		format  report.Format
		orphans bool
		want    string
	}{
		{
			name:   "explicit output wins",
			setup:  func(c *config.Config) { c.ReportFile = "out/report.txt" },
			format: report.FormatXML,
			want:   "out/report.txt",
		},
		{
			name:   "text prints to stdout",
			format: report.FormatText,
			want:   "",
		},
		{
			name:   "links document",
			format: report.FormatXML,
			want:   "example.xml",
		},
		{
			name:    "orphan document",
			format:  report.FormatXML,
			orphans: true,
			want:    "example_orphancrawl.xml",
		},
		{
			name:   "explicit name with date",
			setup:  func(c *config.Config) { c.XMLFileName = "links"; c.XMLDateSuffix = true },
			format: report.FormatXML,
			want:   "links_2026-10-17.xml",
		},
		{
			name:   "sitemap",
			format: report.FormatSitemap,
			want:   "Sitemap.xml",
		},
		{
			name:   "server host without site",
			setup:  func(c *config.Config) { c.Site = ""; c.FTP.Server = "ftp.example.com" },
			format: report.FormatHTML,
			want:   "example.html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewConfig()
			cfg.Site = "http://www.example.com"
			if tt.setup != nil {
				tt.setup(cfg)
			}
			if got := reportPath(cfg, tt.format, tt.orphans, now); got != tt.want {
				t.Errorf("reportPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProfileSites(t *testing.T) {
	t.Parallel()

	got := profileSites(profileFile())
	want := []string{"http://example.com", "http://other.org"}
	if !slices.Equal(got, want) {
		t.Errorf("profileSites() = %v, want %v", got, want)
	}

	if got := profileSites(&config.File{}); len(got) != 0 {
		t.Errorf("profileSites(empty) = %v", got)
	}
}

func TestReportFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reports", "example.xml")
	f := &reportFile{path: path}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() before write error = %v", err)
	}
	if f.Written() {
		t.Fatal("Written() = true before any write")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("file created before the first write")
	}

	if _, err := f.Write([]byte("<links/>")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "<links/>" {
		t.Errorf("content = %q", content)
	}
}
