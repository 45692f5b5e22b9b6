package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/orphancrawl/internal/frontier"
	"github.com/nao1215/orphancrawl/internal/model"
)

// HTTPSource fetches site pages and turns their references into frontier
// candidates.
type HTTPSource struct {
	client      *http.Client
	base        *url.URL
	userAgent   string
	limiter     *rate.Limiter
	maxBodySize int64
	logger      *slog.Logger
	onPage      func(*model.Page)
}

// NewHTTPSource creates a source for the site at base. Only the scheme and
// host of base are used. A positive delay spaces requests at least that far
// apart.
func NewHTTPSource(client *http.Client, base *url.URL, delay time.Duration, opts ...Option) *HTTPSource {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if client == nil {
		client = http.DefaultClient
	}

	s := &HTTPSource{
		client:      client,
		base:        &url.URL{Scheme: base.Scheme, Host: base.Host},
		userAgent:   o.userAgent,
		maxBodySize: o.maxBodySize,
		logger:      o.logger,
		onPage:      o.onPage,
	}
	if s.maxBodySize <= 0 {
		s.maxBodySize = model.MaxPageSize
	}
	if delay > 0 {
		s.limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	return s
}

// URL returns the absolute URL of a root-relative path.
func (s *HTTPSource) URL(path string) string {
	return s.base.String() + path
}

// Fetch implements frontier.Source. Every href and src value of an HTML
// page becomes a KindUnknown candidate; other content types yield none.
func (s *HTTPSource) Fetch(ctx context.Context, path string) ([]frontier.Candidate, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	page, err := s.fetchPage(ctx, path)
	if err != nil {
		s.logger.Warn("fetch failed", "url", s.URL(path), "error", err)
		return nil, err
	}
	s.logger.Debug("fetched page",
		"url", page.URL,
		"status", page.StatusCode,
		"references", len(page.References),
	)
	if s.onPage != nil {
		s.onPage(page)
	}

	candidates := make([]frontier.Candidate, len(page.References))
	for i, ref := range page.References {
		candidates[i] = frontier.Candidate{Ref: ref, Kind: frontier.KindUnknown}
	}
	return candidates, nil
}

func (s *HTTPSource) fetchPage(ctx context.Context, path string) (*model.Page, error) {
	target := s.URL(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, s.maxBodySize))
		return nil, &StatusError{URL: target, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	page := &model.Page{
		URL:         target,
		Path:        path,
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		Raw:         body,
	}
	page.ComputeHash()

	if !page.IsHTML() {
		return page, nil
	}

	ext, err := ExtractReferences(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	page.Title = ext.Title
	page.References = ext.References

	return page, nil
}
