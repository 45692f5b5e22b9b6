package robots

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxRobotsSize caps how much of a robots.txt is read.
const maxRobotsSize = 512 * 1024

// Fetcher retrieves the robots.txt of a host.
type Fetcher interface {
	FetchRobots(ctx context.Context, host string) (status int, lines []string, err error)
}

// Fetch retrieves and compiles the robots.txt of host. Anything other than
// a successful fetch with status 200 yields an unrestricted RuleSet.
func Fetch(ctx context.Context, f Fetcher, host string, opts ...Option) *RuleSet {
	status, lines, err := f.FetchRobots(ctx, host)
	if err != nil || status != http.StatusOK {
		return Unrestricted(opts...)
	}
	return Load(lines, opts...)
}

// HTTPFetcher fetches robots.txt over HTTP.
type HTTPFetcher struct {
	client    *http.Client
	scheme    string
	userAgent string
}

// HTTPFetcherOption configures an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithScheme sets the URL scheme, "http" by default.
func WithScheme(scheme string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if scheme != "" {
			f.scheme = scheme
		}
	}
}

// WithFetchUserAgent sets the User-Agent header of the robots request.
func WithFetchUserAgent(agent string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = agent
	}
}

// NewHTTPFetcher creates a fetcher using client.
func NewHTTPFetcher(client *http.Client, opts ...HTTPFetcherOption) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &HTTPFetcher{
		client: client,
		scheme: "http",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchRobots requests scheme://host/robots.txt and splits the body into
// lines. Non-200 responses return their status with no lines.
func (f *HTTPFetcher) FetchRobots(ctx context.Context, host string) (int, []string, error) {
	target := f.scheme + "://" + host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build robots request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxRobotsSize))
		return resp.StatusCode, nil, nil
	}

	var lines []string
	scanner := bufio.NewScanner(io.LimitReader(resp.Body, maxRobotsSize))
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read robots.txt: %w", err)
	}

	return resp.StatusCode, lines, nil
}
