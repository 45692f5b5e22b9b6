package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/nao1215/orphancrawl/internal/model"
)

const (
	ruleWidth  = 70
	timeLayout = "2006-01-02 15:04:05 MST"
)

// TextWriter outputs human-readable reports for the terminal.
type TextWriter struct {
	baseWriter

	heading *color.Color
	alert   *color.Color
	ok      *color.Color
	warn    *color.Color
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...Option) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output, opts),
		heading:    color.New(color.Bold),
		alert:      color.New(color.FgRed, color.Bold),
		ok:         color.New(color.FgGreen),
		warn:       color.New(color.FgYellow),
	}

	enabled := w.colorEnabled()
	for _, c := range []*color.Color{w.heading, w.alert, w.ok, w.warn} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return w
}

// WriteOrphans outputs the orphan report.
func (w *TextWriter) WriteOrphans(report *model.OrphanReport) (int, error) {
	if report == nil {
		return 0, ErrNilReport
	}

	var sb strings.Builder
	w.writeBanner(&sb, "ORPHANCRAWL REPORT")

	fmt.Fprintf(&sb, "Site:       %s\n", report.Site)
	fmt.Fprintf(&sb, "Server:     %s\n", report.Server)
	fmt.Fprintf(&sb, "Generated:  %s\n", report.GeneratedAt.Format(timeLayout))
	if report.ID != "" {
		fmt.Fprintf(&sb, "Run ID:     %s\n", report.ID)
	}
	if report.Partial() {
		fmt.Fprintf(&sb, "Status:     %s\n", w.warn.Sprint("PARTIAL (a crawl stopped early, orphans may be over-reported)"))
	} else {
		sb.WriteString("Status:     Complete\n")
	}
	sb.WriteString("\n")

	totals := report.Totals()
	w.writeSection(&sb, "SUMMARY")
	fmt.Fprintf(&sb, "  Server files:  %d\n", totals.Server)
	fmt.Fprintf(&sb, "  Site paths:    %d\n", totals.Site)
	fmt.Fprintf(&sb, "  Linked:        %d\n", totals.Linked)
	fmt.Fprintf(&sb, "  Orphans:       %d\n", totals.Orphans)
	sb.WriteString("\n")

	w.writeSection(&sb, "ORPHANS")
	if !report.HasOrphans() {
		sb.WriteString("  " + w.ok.Sprint("No orphans found") + "\n")
	}
	for _, p := range report.Orphans {
		fmt.Fprintf(&sb, "  %s %s\n", w.alert.Sprint("[!]"), p)
	}
	sb.WriteString("\n")

	if len(w.opts.settings) > 0 {
		w.writeSection(&sb, "SERVER SETTINGS")
		for _, s := range w.opts.settings {
			fmt.Fprintf(&sb, "  %-14s %s\n", s.Name+":", s.Value)
		}
		sb.WriteString("\n")
	}

	if w.opts.verbose {
		if report.SiteCrawl != nil {
			w.writeSection(&sb, "SITE CRAWL")
			w.writeStats(&sb, report.SiteCrawl)
		}
		if report.ServerCrawl != nil {
			w.writeSection(&sb, "SERVER CRAWL")
			w.writeStats(&sb, report.ServerCrawl)
		}
	}

	w.writeFooter(&sb)
	return io.WriteString(w.output, sb.String())
}

// WriteCrawl outputs a single crawl with its inventory.
func (w *TextWriter) WriteCrawl(result *model.CrawlResult) (int, error) {
	if result == nil {
		return 0, ErrNilReport
	}

	var sb strings.Builder
	w.writeBanner(&sb, strings.ToUpper(string(result.Kind))+" CRAWL REPORT")
	fmt.Fprintf(&sb, "Root:       %s\n", result.Root)
	fmt.Fprintf(&sb, "Started:    %s\n", result.StartedAt.Format(timeLayout))
	fmt.Fprintf(&sb, "Duration:   %s\n", result.Duration())
	if result.Partial {
		fmt.Fprintf(&sb, "Status:     %s\n", w.warn.Sprint("PARTIAL (stopped before the queue emptied)"))
	} else {
		sb.WriteString("Status:     Complete\n")
	}
	sb.WriteString("\n")

	w.writeSection(&sb, "STATISTICS")
	w.writeStats(&sb, result)

	w.writeSection(&sb, fmt.Sprintf("INVENTORY (%d)", len(result.FlatLinks)))
	for _, p := range result.FlatLinks {
		fmt.Fprintf(&sb, "  %s\n", p)
	}
	sb.WriteString("\n")

	if len(result.FailedPaths) > 0 {
		w.writeSection(&sb, fmt.Sprintf("FAILED (%d)", len(result.FailedPaths)))
		for _, p := range result.FailedPaths {
			fmt.Fprintf(&sb, "  %s %s\n", w.alert.Sprint("[x]"), p)
		}
		sb.WriteString("\n")
	}

	if w.opts.verbose && len(result.LinkMap) > 0 {
		w.writeSection(&sb, "LINKS")
		for _, page := range result.VisitedPaths {
			fmt.Fprintf(&sb, "  %s\n", page)
			for _, target := range result.LinkMap[page] {
				fmt.Fprintf(&sb, "    -> %s\n", target)
			}
		}
		sb.WriteString("\n")
	}

	w.writeFooter(&sb)
	return io.WriteString(w.output, sb.String())
}

func (w *TextWriter) writeStats(sb *strings.Builder, r *model.CrawlResult) {
	s := r.Stats
	fmt.Fprintf(sb, "  Visited:          %d\n", r.VisitedTotal)
	fmt.Fprintf(sb, "  Discovered:       %d\n", s.Discovered)
	fmt.Fprintf(sb, "  Enqueued:         %d\n", s.Enqueued)
	fmt.Fprintf(sb, "  Leaves:           %d\n", s.Leaves)
	fmt.Fprintf(sb, "  Duplicates:       %d\n", s.Duplicates)
	fmt.Fprintf(sb, "  Malformed:        %d\n", s.Malformed)
	fmt.Fprintf(sb, "  Blacklisted:      %d\n", s.Blacklisted)
	fmt.Fprintf(sb, "  Ignored:          %d\n", s.Ignored)
	fmt.Fprintf(sb, "  Not whitelisted:  %d\n", s.NotWhitelisted)
	fmt.Fprintf(sb, "  Robots denied:    %d\n", s.RobotsDenied)
	fmt.Fprintf(sb, "  Fetch failures:   %d\n", s.FetchFailures)
	sb.WriteString("\n")
}

func (w *TextWriter) writeBanner(sb *strings.Builder, title string) {
	rule := strings.Repeat("=", ruleWidth)
	pad := (ruleWidth - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	sb.WriteString("\n" + rule + "\n")
	sb.WriteString(strings.Repeat(" ", pad) + w.heading.Sprint(title) + "\n")
	sb.WriteString(rule + "\n\n")
}

func (w *TextWriter) writeSection(sb *strings.Builder, title string) {
	rule := strings.Repeat("-", ruleWidth)
	sb.WriteString(rule + "\n")
	sb.WriteString(w.heading.Sprint(title) + "\n")
	sb.WriteString(rule + "\n\n")
}

func (w *TextWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	sb.WriteString("Report generated by orphancrawl\n")
	sb.WriteString("https://github.com/nao1215/orphancrawl\n")
	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")
}
