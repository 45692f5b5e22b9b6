package transport

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// checkProxyTimeout bounds the SOCKS5 greeting sent by CheckProxy.
const checkProxyTimeout = 2 * time.Second

// maxRedirects is the number of redirects followed before the last
// response is returned as-is.
const maxRedirects = 10

// Client dials directly or through a SOCKS5 proxy.
type Client struct {
	proxyAddress string
	dialer       proxy.Dialer
	timeout      time.Duration
	insecure     bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithProxy routes connections through the SOCKS5 proxy at address.
// An empty address dials directly.
func WithProxy(address string) ClientOption {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// WithTimeout sets the timeout of HTTP requests and FTP dials.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithInsecureTLS disables TLS certificate verification.
func WithInsecureTLS(insecure bool) ClientOption {
	return func(c *Client) {
		c.insecure = insecure
	}
}

// NewClient creates a Client. The proxy is not contacted; call CheckProxy
// to verify it.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		dialer:  proxy.Direct,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.proxyAddress != "" {
		if !isValidProxyAddress(c.proxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", c.proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, err
		}
		c.dialer = dialer
	}

	return c, nil
}

func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// SOCKS5 greeting bytes.
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthNoAccept = 0xFF
)

// CheckProxy verifies that the configured proxy speaks SOCKS5 without
// authentication. It returns nil when no proxy is configured.
func (c *Client) CheckProxy(ctx context.Context) error {
	if c.proxyAddress == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.proxyAddress)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return ErrProxyTimeout
		}
		return ErrProxyCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return ErrProxyCannotConnect
	}

	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ErrProxyCannotConnect
	}

	resp := make([]byte, 2)
	if _, err := io.ReadFull(conn, resp); err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return ErrProxyTimeout
		}
		return ErrProxyNotSOCKS5
	}
	if resp[0] != socks5Version || resp[1] == socks5AuthNoAccept || resp[1] != socks5AuthNone {
		return ErrProxyNotSOCKS5
	}
	return nil
}

// HTTPConfig holds the per-site request settings.
type HTTPConfig struct {
	UserAgent string
	Cookie    string
	Headers   map[string]string
	Username  string
	Password  string
}

// NewHTTPClient creates an HTTP client dialing through the Client.
func (c *Client) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: c.DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: c.insecure, //nolint:gosec // Opt-in for self-signed staging sites
		},
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// HTTPClientWithConfig creates an HTTP client that adds the configured
// credentials, cookie and headers to every request.
func (c *Client) HTTPClientWithConfig(cfg HTTPConfig) *http.Client {
	client := c.NewHTTPClient()
	client.Transport = &headerInjectingTransport{
		base: client.Transport,
		cfg:  cfg,
	}
	return client
}

// DialContext dials address through the proxy, honouring ctx.
func (c *Client) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if cd, ok := c.dialer.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, address)
	}

	type dialResult struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan dialResult, 1)
	go func() {
		conn, err := c.dialer.Dial(network, address)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case result := <-resultCh:
		return result.conn, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ProxyAddress returns the configured proxy address.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// Timeout returns the configured timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// headerInjectingTransport adds the site settings to every request.
type headerInjectingTransport struct {
	base http.RoundTripper
	cfg  HTTPConfig
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.cfg.UserAgent != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", t.cfg.UserAgent)
	}

	if t.cfg.Cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cfg.Cookie)
		} else {
			clone.Header.Set("Cookie", t.cfg.Cookie)
		}
	}

	for key, value := range t.cfg.Headers {
		clone.Header.Set(key, value)
	}

	if t.cfg.Username != "" {
		clone.SetBasicAuth(t.cfg.Username, t.cfg.Password)
	}

	return t.base.RoundTrip(clone)
}
