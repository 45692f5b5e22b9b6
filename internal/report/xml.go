package report

import (
	"bytes"
	"encoding/xml"
	"io"
	"slices"

	"github.com/nao1215/orphancrawl/internal/model"
)

// XMLWriter outputs the links document of a crawl and the orphan_crawl
// document of an orphan report.
type XMLWriter struct {
	baseWriter
}

// NewXMLWriter creates an XMLWriter that outputs to the given writer.
func NewXMLWriter(output io.Writer, opts ...Option) *XMLWriter {
	return &XMLWriter{
		baseWriter: newBaseWriter(output, opts),
	}
}

type xmlPages struct {
	XMLName xml.Name  `xml:"pages"`
	Pages   []xmlPage `xml:"page"`
}

type xmlPage struct {
	ID    string   `xml:"id,attr"`
	Links []string `xml:"link"`
}

type xmlOrphanCrawl struct {
	XMLName xml.Name     `xml:"orphan_crawl"`
	Orphans xmlOrphans   `xml:"orphans"`
	FTP     xmlServer    `xml:"ftp"`
	Site    xmlSiteLinks `xml:"site"`
}

type xmlOrphans struct {
	Total int        `xml:"total"`
	List  []xmlEntry `xml:"list>orphan"`
}

type xmlServer struct {
	Settings []xmlSetting `xml:"settings>setting"`
	Total    int          `xml:"total"`
	List     []xmlEntry   `xml:"list>file"`
}

type xmlSiteLinks struct {
	Total int        `xml:"total"`
	List  []xmlEntry `xml:"list>page"`
}

// xmlSetting is rendered as an element named after the setting.
type xmlSetting struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlEntry struct {
	Path string `xml:"path"`
	URL  string `xml:"url"`
}

// WriteCrawl outputs <pages> with one <page id="path"> per visited page
// holding its <link> targets, ordered by path.
func (w *XMLWriter) WriteCrawl(result *model.CrawlResult) (int, error) {
	if result == nil {
		return 0, ErrNilReport
	}

	ids := make([]string, 0, len(result.LinkMap))
	for id := range result.LinkMap {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	doc := xmlPages{Pages: make([]xmlPage, 0, len(ids))}
	for _, id := range ids {
		doc.Pages = append(doc.Pages, xmlPage{ID: id, Links: result.LinkMap[id]})
	}
	return w.encode(doc)
}

// WriteOrphans outputs <orphan_crawl> with the orphans, the server files
// with the connection settings, and the site inventory. Every path is
// paired with its absolute URL on the site.
func (w *XMLWriter) WriteOrphans(report *model.OrphanReport) (int, error) {
	if report == nil {
		return 0, ErrNilReport
	}

	settings := make([]xmlSetting, 0, len(w.opts.settings))
	for _, s := range w.opts.settings {
		settings = append(settings, xmlSetting{XMLName: xml.Name{Local: s.Name}, Value: s.Value})
	}

	doc := xmlOrphanCrawl{
		Orphans: xmlOrphans{
			Total: len(report.Orphans),
			List:  entries(report.Site, report.Orphans),
		},
		FTP: xmlServer{
			Settings: settings,
			Total:    len(report.ServerInventory),
			List:     entries(report.Site, report.ServerInventory),
		},
		Site: xmlSiteLinks{
			Total: len(report.SiteInventory),
			List:  entries(report.Site, report.SiteInventory),
		},
	}
	return w.encode(doc)
}

func (w *XMLWriter) encode(v any) (int, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", w.opts.indent)
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	if err := enc.Close(); err != nil {
		return 0, err
	}
	buf.WriteByte('\n')

	return w.output.Write(buf.Bytes())
}

func entries(site string, paths []string) []xmlEntry {
	out := make([]xmlEntry, len(paths))
	for i, p := range paths {
		out[i] = xmlEntry{Path: p, URL: absoluteURL(site, p)}
	}
	return out
}
