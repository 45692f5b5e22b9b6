package report

import (
	"bytes"
	"html/template"
	"io"

	"github.com/nao1215/orphancrawl/internal/model"
)

// HTMLWriter outputs a standalone HTML page.
type HTMLWriter struct {
	baseWriter
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer, opts ...Option) *HTMLWriter {
	return &HTMLWriter{
		baseWriter: newBaseWriter(output, opts),
	}
}

type htmlLink struct {
	Path string
	URL  string
}

type htmlSection struct {
	ID    string
	Title string
	Links []htmlLink
}

type htmlPage struct {
	Title     string
	Heading   string
	Facts     []Setting
	Settings  []Setting
	Sections  []htmlSection
	Generator string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:Calibri,Helvetica,sans-serif;}
#container{position:relative;width:700px;margin:0 auto;}
ol,ul{list-style-type:none;padding-left:0;}
th{text-align:left;padding-right:1em;}
</style>
</head>
<body>
<div id="container">
<h2>{{.Heading}}</h2>
<table>
{{- range .Facts}}
<tr><th>{{.Name}}</th><td>{{.Value}}</td></tr>
{{- end}}
</table>
{{- range .Sections}}
<div id="{{.ID}}">
<h3>{{.Title}}</h3>
<p>Total: {{len .Links}}</p>
<ol>
{{- range .Links}}
<li>{{if .URL}}<a href="{{.URL}}">{{.Path}}</a>{{else}}{{.Path}}{{end}}</li>
{{- end}}
</ol>
</div>
{{- end}}
{{- if .Settings}}
<div id="settings">
<h3>Server settings</h3>
<table>
{{- range .Settings}}
<tr><th>{{.Name}}</th><td>{{.Value}}</td></tr>
{{- end}}
</table>
</div>
{{- end}}
<p><small>{{.Generator}}</small></p>
</div>
</body>
</html>
`))

// WriteOrphans outputs the orphans page, followed by the server and site
// inventories.
func (w *HTMLWriter) WriteOrphans(report *model.OrphanReport) (int, error) {
	if report == nil {
		return 0, ErrNilReport
	}

	status := "Complete"
	if report.Partial() {
		status = "Partial"
	}
	page := htmlPage{
		Title:   report.Site + " | orphancrawl",
		Heading: "Orphan files",
		Facts: []Setting{
			{Name: "Site", Value: report.Site},
			{Name: "Server", Value: report.Server},
			{Name: "Generated", Value: report.GeneratedAt.Format(timeLayout)},
			{Name: "Status", Value: status},
		},
		Settings: w.opts.settings,
		Sections: []htmlSection{
			{ID: "orphans", Title: "Orphan files", Links: links(report.Site, report.Orphans)},
		},
		Generator: "Report generated by orphancrawl",
	}
	if w.opts.verbose {
		page.Sections = append(page.Sections,
			htmlSection{ID: "server", Title: "Server files", Links: links(report.Site, report.ServerInventory)},
			htmlSection{ID: "site", Title: "Site paths", Links: links(report.Site, report.SiteInventory)},
		)
	}
	return w.render(page)
}

// WriteCrawl outputs the inventory of a crawl.
func (w *HTMLWriter) WriteCrawl(result *model.CrawlResult) (int, error) {
	if result == nil {
		return 0, ErrNilReport
	}

	inventory := links(result.Root, result.FlatLinks)
	if result.Kind == model.CrawlKindServer {
		for i := range inventory {
			inventory[i].URL = ""
		}
	}
	page := htmlPage{
		Title:   result.Root + " | orphancrawl",
		Heading: capitalize(string(result.Kind)) + " crawl",
		Facts: []Setting{
			{Name: "Root", Value: result.Root},
			{Name: "Started", Value: result.StartedAt.Format(timeLayout)},
			{Name: "Duration", Value: result.Duration().String()},
		},
		Sections: []htmlSection{
			{ID: "inventory", Title: "Inventory", Links: inventory},
		},
		Generator: "Report generated by orphancrawl",
	}
	if len(result.FailedPaths) > 0 {
		page.Sections = append(page.Sections,
			htmlSection{ID: "failed", Title: "Failed", Links: links("", result.FailedPaths)})
	}
	return w.render(page)
}

func (w *HTMLWriter) render(page htmlPage) (int, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}

// links pairs paths with their URLs under root. An empty root gives
// plain entries.
func links(root string, paths []string) []htmlLink {
	out := make([]htmlLink, len(paths))
	for i, p := range paths {
		out[i] = htmlLink{Path: p}
		if root != "" {
			out[i].URL = absoluteURL(root, p)
		}
	}
	return out
}
