package report

import (
	"net"
	"strings"
	"time"
)

// SitemapFileName is the conventional sitemap file name.
const SitemapFileName = "Sitemap.xml"

// BaseName returns the name report files are saved under. An explicit
// name wins; otherwise it is the label of the host that names the site,
// so "www.example.com" and "example.com" both give "example". A non-zero
// date appends "_YYYY-MM-DD".
func BaseName(host, name string, date time.Time) string {
	if name == "" {
		name = hostLabel(host)
	}
	if !date.IsZero() {
		name += "_" + date.Format("2006-01-02")
	}
	return name
}

func hostLabel(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if net.ParseIP(host) != nil {
		return strings.ReplaceAll(host, ":", "_")
	}
	labels := strings.Split(host, ".")
	if len(labels) > 2 {
		return labels[1]
	}
	return labels[0]
}

// FileName returns the file a report of format f is saved to by default.
// Orphan XML documents get an "_orphancrawl" suffix so they do not
// overwrite the links document of the same site.
func FileName(f Format, base string, orphans bool) string {
	switch f {
	case FormatSitemap:
		return SitemapFileName
	case FormatXML:
		if orphans {
			return base + "_orphancrawl.xml"
		}
		return base + ".xml"
	case FormatHTML:
		return base + ".html"
	case FormatJSON:
		return base + ".json"
	case FormatMarkdown:
		return base + ".md"
	default:
		return base + ".txt"
	}
}
