package report

import (
	"encoding/xml"
	"io"
	"slices"

	"github.com/nao1215/orphancrawl/internal/model"
)

// SitemapNamespace is the sitemaps.org 0.9 schema.
const SitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// SitemapWriter outputs a sitemaps.org urlset of the visited pages of a
// site crawl.
type SitemapWriter struct {
	XMLWriter
}

// NewSitemapWriter creates a SitemapWriter that outputs to the given writer.
func NewSitemapWriter(output io.Writer, opts ...Option) *SitemapWriter {
	return &SitemapWriter{XMLWriter: *NewXMLWriter(output, opts...)}
}

type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []xmlURL `xml:"url"`
}

type xmlURL struct {
	Loc string `xml:"loc"`
}

// WriteCrawl outputs the sitemap of a site crawl. Server listings have no
// URLs and return ErrUnsupported.
func (w *SitemapWriter) WriteCrawl(result *model.CrawlResult) (int, error) {
	if result == nil {
		return 0, ErrNilReport
	}
	if result.Kind != model.CrawlKindSite {
		return 0, ErrUnsupported
	}

	visited := slices.Clone(result.VisitedPaths)
	slices.Sort(visited)

	doc := xmlURLSet{XMLNS: SitemapNamespace, URLs: make([]xmlURL, len(visited))}
	for i, p := range visited {
		doc.URLs[i] = xmlURL{Loc: absoluteURL(result.Root, p)}
	}
	return w.encode(doc)
}

// WriteOrphans outputs the sitemap of the site crawl the report was built
// from.
func (w *SitemapWriter) WriteOrphans(report *model.OrphanReport) (int, error) {
	if report == nil {
		return 0, ErrNilReport
	}
	if report.SiteCrawl == nil {
		return 0, ErrUnsupported
	}
	return w.WriteCrawl(report.SiteCrawl)
}
