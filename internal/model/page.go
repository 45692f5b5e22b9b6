package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MaxPageSize is the default cap on how much of a response body is read.
const MaxPageSize = 5 * 1024 * 1024 // 5 MB

// Page is a fetched page of the crawled site.
type Page struct {
	// URL is the absolute URL that was requested.
	URL string `json:"url"`

	// Path is the root-relative path the crawler asked for.
	Path string `json:"path"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Headers contains the response headers in canonical form.
	Headers map[string][]string `json:"headers,omitempty"`

	// ContentType is the media type of the response without parameters.
	ContentType string `json:"content_type"`

	// Title is the text of the <title> element, if any.
	Title string `json:"title,omitempty"`

	// References are the raw href and src attribute values in document
	// order, unresolved and unfiltered.
	References []string `json:"references,omitempty"`

	// Raw is the response body, truncated to the configured limit.
	Raw []byte `json:"-"`

	// Hash is the hex SHA-256 of Raw.
	Hash string `json:"hash,omitempty"`
}

// ComputeHash sets Hash from Raw.
func (p *Page) ComputeHash() {
	if len(p.Raw) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256(p.Raw)
	p.Hash = hex.EncodeToString(hash[:])
}

// GetHeader returns the first value of the named header.
func (p *Page) GetHeader(name string) string {
	if values, ok := p.Headers[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// IsHTML reports whether the page content type is HTML.
// An empty content type is treated as HTML, as many static servers omit it.
func (p *Page) IsHTML() bool {
	ct := strings.ToLower(strings.TrimSpace(p.ContentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct == "" || ct == "text/html" || ct == "application/xhtml+xml"
}

// Truncate cuts Raw down to limit bytes. A non-positive limit uses MaxPageSize.
func (p *Page) Truncate(limit int) {
	if limit <= 0 {
		limit = MaxPageSize
	}
	if len(p.Raw) > limit {
		p.Raw = p.Raw[:limit]
	}
}
