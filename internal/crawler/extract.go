package crawler

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// referenceAttrs are the attributes whose values are crawl references, in
// the order they are read from one element.
var referenceAttrs = []string{"href", "src"}

// Extraction is what ExtractReferences finds in an HTML document.
type Extraction struct {
	// Title is the trimmed text of the first <title> element.
	Title string

	// References are the href and src values in document order,
	// unresolved and unfiltered. Surrounding whitespace is trimmed.
	References []string
}

// ExtractReferences parses an HTML document and collects every href and src
// attribute value. Malformed markup is tolerated the way browsers do.
func ExtractReferences(r io.Reader) (*Extraction, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	doc := goquery.NewDocumentFromNode(root)
	out := &Extraction{
		Title:      strings.TrimSpace(doc.Find("title").First().Text()),
		References: make([]string, 0),
	}

	doc.Find("[href], [src]").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range referenceAttrs {
			if v, ok := s.Attr(attr); ok {
				out.References = append(out.References, strings.TrimSpace(v))
			}
		}
	})

	return out, nil
}
