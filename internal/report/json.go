package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/orphancrawl/internal/model"
)

// JSONWriter outputs reports in JSON format.
type JSONWriter struct {
	baseWriter
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...Option) *JSONWriter {
	return &JSONWriter{
		baseWriter: newBaseWriter(output, opts),
	}
}

// JSONOrphanReport is the JSON document of an orphan report: the report
// with its totals and the server settings the run used.
type JSONOrphanReport struct {
	*model.OrphanReport

	Totals   model.ReportTotals `json:"totals"`
	Partial  bool               `json:"partial"`
	Settings []Setting          `json:"server_settings,omitempty"`
}

// WriteOrphans outputs the orphan report in JSON format.
func (w *JSONWriter) WriteOrphans(report *model.OrphanReport) (int, error) {
	if report == nil {
		return 0, ErrNilReport
	}
	return w.writeJSON(JSONOrphanReport{
		OrphanReport: report,
		Totals:       report.Totals(),
		Partial:      report.Partial(),
		Settings:     w.opts.settings,
	})
}

// WriteCrawl outputs the crawl result in JSON format.
func (w *JSONWriter) WriteCrawl(result *model.CrawlResult) (int, error) {
	if result == nil {
		return 0, ErrNilReport
	}
	return w.writeJSON(result)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.opts.indent != "" {
		data, err = json.MarshalIndent(v, "", w.opts.indent)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
