package report

import (
	"fmt"
	"io"
	"strings"
)

// Format names an output format.
type Format string

const (
	// FormatText is the human-readable terminal report.
	FormatText Format = "text"
	// FormatJSON is the full report as JSON.
	FormatJSON Format = "json"
	// FormatMarkdown is a Markdown document.
	FormatMarkdown Format = "markdown"
	// FormatXML is the links document for a crawl and the orphan_crawl
	// document for an orphan report.
	FormatXML Format = "xml"
	// FormatSitemap is a sitemaps.org 0.9 urlset of the visited pages.
	FormatSitemap Format = "sitemap"
	// FormatHTML is a standalone HTML page.
	FormatHTML Format = "html"
)

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatMarkdown, FormatXML, FormatSitemap, FormatHTML}
}

// ParseFormat parses a format name, case-insensitively. "md" is accepted
// for markdown.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "md" {
		return FormatMarkdown, nil
	}
	for _, f := range Formats() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// WritesFile reports whether the format is saved to a file by default
// rather than printed.
func (f Format) WritesFile() bool {
	switch f {
	case FormatXML, FormatSitemap, FormatHTML:
		return true
	default:
		return false
	}
}

// NewWriter returns the Writer for format f.
func NewWriter(f Format, output io.Writer, opts ...Option) (Writer, error) {
	switch f {
	case FormatText:
		return NewTextWriter(output, opts...), nil
	case FormatJSON:
		return NewJSONWriter(output, opts...), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output, opts...), nil
	case FormatXML:
		return NewXMLWriter(output, opts...), nil
	case FormatSitemap:
		return NewSitemapWriter(output, opts...), nil
	case FormatHTML:
		return NewHTMLWriter(output, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}
