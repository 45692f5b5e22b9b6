package main

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/orphancrawl/internal/database"
	"github.com/nao1215/orphancrawl/internal/model"
)

// seedArchive stores two runs of www.example.com and one of other.org and
// returns the archive directory and the run IDs in save order.
func seedArchive(t *testing.T) (string, []string) {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	reports := []*model.OrphanReport{
		{
			Site:            "http://www.example.com",
			Server:          "ftp://ftp.example.com/www",
			GeneratedAt:     base,
			Orphans:         []string{"/a.html", "/b.html"},
			ServerInventory: []string{"/", "/a.html", "/b.html"},
			SiteInventory:   []string{"/"},
		},
		{
			Site:            "http://www.example.com",
			Server:          "ftp://ftp.example.com/www",
			GeneratedAt:     base.Add(time.Hour),
			Orphans:         []string{"/b.html", "/c.html"},
			ServerInventory: []string{"/", "/a.html", "/b.html", "/c.html"},
			SiteInventory:   []string{"/", "/a.html"},
		},
		{
			Site:            "http://other.org",
			Server:          "ftp://ftp.other.org/",
			GeneratedAt:     base.Add(2 * time.Hour),
			ServerInventory: []string{"/"},
			SiteInventory:   []string{"/"},
		},
	}

	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		id, err := db.SaveReport(context.Background(), r)
		if err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
		ids = append(ids, id)
	}
	return dir, ids
}

func runHistory(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewHistoryCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	// Subtests share one archive file, so they run in sequence.
	dir, ids := seedArchive(t)

	t.Run("lists runs newest first", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dir)
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		if !strings.Contains(out, "Archived runs (3)") {
			t.Errorf("output missing run count:\n%s", out)
		}
		first := strings.Index(out, ids[2])
		last := strings.Index(out, ids[0])
		if first < 0 || last < 0 || first > last {
			t.Errorf("runs not listed newest first:\n%s", out)
		}
	})

	t.Run("filters runs by site", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dir, "--json", "www.example.com")
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		var runs []database.RunSummary
		if err := json.Unmarshal([]byte(out), &runs); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if len(runs) != 2 {
			t.Fatalf("got %d runs, want 2", len(runs))
		}
		if runs[0].ID != ids[1] || runs[0].Orphans != 2 {
			t.Errorf("latest run = %+v", runs[0])
		}
	})

	t.Run("lists sites", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dir, "--sites", "--json")
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		var sites []string
		if err := json.Unmarshal([]byte(out), &sites); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		want := []string{"http://other.org", "http://www.example.com"}
		if !slices.Equal(sites, want) {
			t.Errorf("sites = %v, want %v", sites, want)
		}
	})

	t.Run("diffs the latest two runs", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dir, "--diff", "http://www.example.com/")
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		for _, want := range []string{"New orphans (1):", "+ /c.html", "Resolved (1):", "- /a.html"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "/b.html") {
			t.Errorf("unchanged orphan listed:\n%s", out)
		}
	})

	t.Run("diff as JSON", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dir, "--diff", "--json", "http://www.example.com")
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		var d database.RunDiff
		if err := json.Unmarshal([]byte(out), &d); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if d.Previous.ID != ids[0] || d.Current.ID != ids[1] {
			t.Errorf("diff runs = %s -> %s", d.Previous.ID, d.Current.ID)
		}
		if !slices.Equal(d.New, []string{"/c.html"}) || !slices.Equal(d.Resolved, []string{"/a.html"}) {
			t.Errorf("diff = new %v, resolved %v", d.New, d.Resolved)
		}
	})

	t.Run("diff needs two runs", func(t *testing.T) {
		_, err := runHistory(t, "--db-dir", dir, "--diff", "http://other.org")
		if err == nil {
			t.Error("expected error for a site with one run")
		}
	})

	t.Run("shows an archived report", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dir, "--show", ids[1], "-f", "json")
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		var rep model.OrphanReport
		if err := json.Unmarshal([]byte(out), &rep); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if rep.ID != ids[1] || !slices.Equal(rep.Orphans, []string{"/b.html", "/c.html"}) {
			t.Errorf("report = %s %v", rep.ID, rep.Orphans)
		}
	})

	t.Run("shows an archived report as text", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dir, "--show", ids[0])
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		if !strings.Contains(out, "ORPHANCRAWL REPORT") || !strings.Contains(out, "/a.html") {
			t.Errorf("unexpected text report:\n%s", out)
		}
	})
}

func TestHistoryCmdErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing archive",
			args: []string{},
			want: "no archive yet",
		},
		{
			name: "diff without site",
			args: []string{"--diff"},
			want: "--diff needs a site URL",
		},
		{
			name: "invalid site",
			args: []string{"ftp://example.com"},
			want: "invalid site",
		},
		{
			name: "unknown format",
			args: []string{"--show", "x", "-f", "pdf"},
			want: "pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"--db-dir", t.TempDir()}, tt.args...)
			_, err := runHistory(t, args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
