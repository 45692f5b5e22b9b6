package report

import (
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/nao1215/orphancrawl/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Writer renders reports in one format.
type Writer interface {
	// WriteOrphans outputs an orphan report.
	WriteOrphans(report *model.OrphanReport) (int, error)

	// WriteCrawl outputs the result of a single crawl.
	WriteCrawl(result *model.CrawlResult) (int, error)
}

// Setting is a named value shown alongside a report, such as the FTP
// connection settings of an orphan run.
type Setting struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Option configures a Writer.
type Option func(*options)

type options struct {
	color    *bool
	verbose  bool
	indent   string
	settings []Setting
}

// WithColor forces coloured text output on or off. By default colour is
// used only when the output is a terminal.
func WithColor(enabled bool) Option {
	return func(o *options) {
		o.color = &enabled
	}
}

// WithVerbose includes crawl statistics and per-page links where the
// format supports them.
func WithVerbose(verbose bool) Option {
	return func(o *options) {
		o.verbose = verbose
	}
}

// WithIndent sets the indentation of JSON and XML output. The default is
// two spaces; "" gives compact output.
func WithIndent(indent string) Option {
	return func(o *options) {
		o.indent = indent
	}
}

// WithSettings attaches server settings to orphan reports.
func WithSettings(settings ...Setting) Option {
	return func(o *options) {
		o.settings = append(o.settings, settings...)
	}
}

// MultiWriter writes to multiple Writers in order, stopping at the first
// error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteOrphans outputs the report to every Writer.
func (m *MultiWriter) WriteOrphans(report *model.OrphanReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteOrphans(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteCrawl outputs the crawl to every Writer.
func (m *MultiWriter) WriteCrawl(result *model.CrawlResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteCrawl(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
	opts   options
}

func newBaseWriter(output io.Writer, opts []Option) baseWriter {
	o := options{indent: "  "}
	for _, opt := range opts {
		opt(&o)
	}
	return baseWriter{output: output, opts: o}
}

// colorEnabled resolves the colour setting against the output.
func (b baseWriter) colorEnabled() bool {
	if b.opts.color != nil {
		return *b.opts.color
	}
	f, ok := b.output.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// absoluteURL joins a root-relative path onto the root URL. Paths that do
// not parse are appended verbatim.
func absoluteURL(root, path string) string {
	base, err := url.Parse(root)
	if err != nil || base.Host == "" {
		return strings.TrimSuffix(root, "/") + path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return strings.TrimSuffix(root, "/") + path
	}
	return base.ResolveReference(ref).String()
}

// capitalize title-cases a crawl kind for headings.
func capitalize(s string) string {
	return cases.Title(language.English).String(s)
}
