package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/orphancrawl/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...Option) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output, opts),
	}
}

// WriteOrphans outputs the orphan report in Markdown format.
func (w *MarkdownWriter) WriteOrphans(report *model.OrphanReport) (int, error) {
	if report == nil {
		return 0, ErrNilReport
	}
	md := markdown.NewMarkdown(w.output)

	md.H1("Orphan Report")
	md.PlainText("")
	rows := [][]string{
		{"Site", "`" + report.Site + "`"},
		{"Server", "`" + report.Server + "`"},
		{"Generated", report.GeneratedAt.Format(timeLayout)},
		{"Status", orphanStatus(report)},
	}
	if report.ID != "" {
		rows = append(rows, []string{"Run ID", "`" + report.ID + "`"})
	}
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")

	totals := report.Totals()
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Inventory", "Count"},
		Rows: [][]string{
			{"Server files", strconv.Itoa(totals.Server)},
			{"Site paths", strconv.Itoa(totals.Site)},
			{"Linked", strconv.Itoa(totals.Linked)},
			{"**Orphans**", "**" + strconv.Itoa(totals.Orphans) + "**"},
		},
	})
	md.PlainText("")
	if totals.Server > 0 {
		w.writePieChart(md, totals)
	}
	w.writeAlert(md, report)

	md.H2("Orphans")
	md.PlainText("")
	if !report.HasOrphans() {
		md.PlainText("Every server file is linked from the site.")
	} else {
		orphanRows := make([][]string, len(report.Orphans))
		for i, p := range report.Orphans {
			orphanRows[i] = []string{"`" + p + "`", absoluteURL(report.Site, p)}
		}
		md.Table(markdown.TableSet{Header: []string{"Path", "URL"}, Rows: orphanRows})
	}
	md.PlainText("")

	if len(w.opts.settings) > 0 {
		md.H2("Server Settings")
		md.PlainText("")
		md.Table(markdown.TableSet{Header: []string{"Setting", "Value"}, Rows: settingRows(w.opts.settings)})
		md.PlainText("")
	}

	if w.opts.verbose {
		for _, c := range []*model.CrawlResult{report.SiteCrawl, report.ServerCrawl} {
			if c == nil {
				continue
			}
			md.H3(capitalize(string(c.Kind)) + " crawl")
			md.PlainText("")
			md.Table(statsTable(c))
			md.PlainText("")
		}
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteCrawl outputs a crawl in Markdown format.
func (w *MarkdownWriter) WriteCrawl(result *model.CrawlResult) (int, error) {
	if result == nil {
		return 0, ErrNilReport
	}
	md := markdown.NewMarkdown(w.output)

	md.H1(capitalize(string(result.Kind)) + " Crawl Report")
	md.PlainText("")
	status := "✅ Complete"
	if result.Partial {
		status = "⚠️ Partial (stopped before the queue emptied)"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Root", "`" + result.Root + "`"},
			{"Started", result.StartedAt.Format(timeLayout)},
			{"Duration", result.Duration().String()},
			{"Status", status},
		},
	})
	md.PlainText("")

	md.H2("Statistics")
	md.PlainText("")
	md.Table(statsTable(result))
	md.PlainText("")

	md.H2("Inventory")
	md.PlainText("")
	if len(result.FlatLinks) == 0 {
		md.PlainText("Nothing was found.")
	} else {
		md.BulletList(codeSpans(result.FlatLinks)...)
	}
	md.PlainText("")

	if len(result.FailedPaths) > 0 {
		md.H2("Failed")
		md.PlainText("")
		md.BulletList(codeSpans(result.FailedPaths)...)
		md.PlainText("")
	}

	if w.opts.verbose {
		for _, page := range result.VisitedPaths {
			targets := result.LinkMap[page]
			if len(targets) == 0 {
				continue
			}
			md.Details(page, strings.Join(targets, "\n"))
		}
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writePieChart writes a mermaid pie chart of linked versus orphaned files.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, totals model.ReportTotals) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Server Files"),
		piechart.WithShowData(true),
	)
	if totals.Linked > 0 {
		chart.LabelAndIntValue("Linked", uint64(totals.Linked))
	}
	if totals.Orphans > 0 {
		chart.LabelAndIntValue("Orphans", uint64(totals.Orphans))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.OrphanReport) {
	switch {
	case report.Partial():
		md.Cautionf("A crawl stopped early. %d orphan(s) listed, some may be linked from pages that were never visited.",
			len(report.Orphans))
	case report.HasOrphans():
		md.Warningf("%d file(s) on the server are not linked from the site.", len(report.Orphans))
	default:
		md.Tip("No orphaned files found.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [orphancrawl](https://github.com/nao1215/orphancrawl)*")
}

func orphanStatus(report *model.OrphanReport) string {
	if report.Partial() {
		return "⚠️ Partial"
	}
	return "✅ Complete"
}

func statsTable(r *model.CrawlResult) markdown.TableSet {
	s := r.Stats
	return markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Visited", strconv.Itoa(r.VisitedTotal)},
			{"Discovered", strconv.Itoa(s.Discovered)},
			{"Enqueued", strconv.Itoa(s.Enqueued)},
			{"Leaves", strconv.Itoa(s.Leaves)},
			{"Duplicates", strconv.Itoa(s.Duplicates)},
			{"Malformed", strconv.Itoa(s.Malformed)},
			{"Blacklisted", strconv.Itoa(s.Blacklisted)},
			{"Ignored", strconv.Itoa(s.Ignored)},
			{"Not whitelisted", strconv.Itoa(s.NotWhitelisted)},
			{"Robots denied", strconv.Itoa(s.RobotsDenied)},
			{"Fetch failures", strconv.Itoa(s.FetchFailures)},
		},
	}
}

func settingRows(settings []Setting) [][]string {
	rows := make([][]string, len(settings))
	for i, s := range settings {
		value := s.Value
		if value == "" {
			value = "-"
		}
		rows[i] = []string{s.Name, value}
	}
	return rows
}

func codeSpans(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = "`" + p + "`"
	}
	return out
}
