// Package transport builds the network clients the crawlers use: an HTTP
// client for the site crawl and an FTP connection for the server crawl.
//
// Both can be routed through an optional SOCKS5 proxy. Site-specific
// credentials (basic auth, a cookie, extra headers) are injected into every
// HTTP request by a wrapping RoundTripper, redirects included.
package transport
