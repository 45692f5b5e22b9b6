package config

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/orphancrawl/internal/crawler"
	"github.com/nao1215/orphancrawl/internal/frontier"
	"github.com/nao1215/orphancrawl/internal/report"
	"github.com/nao1215/orphancrawl/internal/robots"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "orphancrawl"

	// DefaultTimeout bounds each HTTP request and FTP exchange.
	DefaultTimeout = 30 * time.Second

	// DefaultCrawlDelay is the minimum time between two site requests. A
	// larger Crawl-delay in robots.txt wins.
	DefaultCrawlDelay = 250 * time.Millisecond

	// DefaultMaxPages of zero crawls until the frontier is exhausted.
	DefaultMaxPages = 0

	// DefaultMaxBodySize limits how much of each response is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultFTPPort is the FTP control port.
	DefaultFTPPort = 21

	// DefaultFTPUser logs in anonymously.
	DefaultFTPUser = "anonymous"

	// DefaultFTPStartDir is the server directory that maps to the site root.
	DefaultFTPStartDir = crawler.DefaultStartDir

	// DefaultUserAgent identifies orphancrawl in requests and robots.txt.
	DefaultUserAgent = crawler.DefaultUserAgent

	// DefaultRobotsMode keeps the literal rule evaluation.
	DefaultRobotsMode = "literal"

	// DefaultBlacklistMatch checks the blacklist against resolved paths.
	DefaultBlacklistMatch = "resolved"

	// DefaultReportFormat is the human-readable text report.
	DefaultReportFormat = string(report.FormatText)
)

// DefaultFileTypes returns the extensions crawled when none are configured.
func DefaultFileTypes() []string {
	return crawler.DefaultFileTypes()
}

// FTPConfig holds the FTP connection settings.
type FTPConfig struct {
	// Server is the FTP host name. Empty disables the server crawl.
	Server string

	// Port is the control port.
	Port int

	// User and Password are the login credentials.
	User     string
	Password string

	// StartDir is the server directory that maps to the site root, such as
	// "/www" or "/public_html".
	StartDir string

	// Passive requests passive data connections. Active mode is not
	// supported; turning this off only logs a warning.
	Passive bool

	// DisableEPSV forces PASV for servers that mishandle EPSV.
	DisableEPSV bool
}

// Config holds all configuration options for orphancrawl. It is built from
// defaults, the config file and flags, then passed down explicitly.
type Config struct {
	// Site is the URL of the site to crawl, such as "http://example.com".
	Site string

	// FTP holds the server crawl settings.
	FTP FTPConfig

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form used for
	// both HTTP and FTP.
	ProxyAddress string

	// Timeout bounds each request.
	Timeout time.Duration

	// MaxPages caps the number of fetched pages or listed directories per
	// crawl. Zero means no cap; a capped crawl is reported as partial.
	MaxPages int

	// CrawlDelay is the minimum time between two site requests.
	CrawlDelay time.Duration

	// IgnoreCrawlDelay ignores the Crawl-delay of robots.txt.
	IgnoreCrawlDelay bool

	// UserAgent is sent with requests and matched against robots.txt.
	UserAgent string

	// MaxBodySize caps how much of each response is read.
	MaxBodySize int64

	// FileTypes are the extensions that are crawled and inventoried.
	FileTypes []string

	// IgnoreDirs are directory names never entered.
	IgnoreDirs []string

	// IgnorePatterns are glob patterns of paths to skip.
	IgnorePatterns []string

	// BlacklistMatch is "resolved" or "raw".
	BlacklistMatch string

	// RobotsMode is "literal", "allow-override" or "standard".
	RobotsMode string

	// IgnoreRobots skips robots.txt entirely.
	IgnoreRobots bool

	// Cookie is sent with every site request.
	Cookie string

	// Headers are added to every site request.
	Headers map[string]string

	// HTTPUser and HTTPPassword enable HTTP basic authentication.
	HTTPUser     string
	HTTPPassword string

	// Insecure disables TLS certificate verification.
	Insecure bool

	// Verbose enables debug logging.
	Verbose bool

	// ReportFormat is one of report.Formats.
	ReportFormat string

	// ReportFile is the output path; empty writes to stdout, except for XML
	// formats, which derive a file name from the site host.
	ReportFile string

	// XMLFileName overrides the derived XML file name.
	XMLFileName string

	// XMLDateSuffix appends the run date to derived XML file names.
	XMLDateSuffix bool

	// ConfigFilePath is the explicit path of the config file, if any.
	ConfigFilePath string

	// SiteConfigs holds the loaded config file.
	SiteConfigs *File

	// DBDir is the directory of the report archive.
	DBDir string

	// SaveToDB stores finished orphan reports in the archive.
	SaveToDB bool
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		FTP: FTPConfig{
			Port:     DefaultFTPPort,
			User:     DefaultFTPUser,
			StartDir: DefaultFTPStartDir,
			Passive:  true,
		},
		Timeout:        DefaultTimeout,
		MaxPages:       DefaultMaxPages,
		CrawlDelay:     DefaultCrawlDelay,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
		FileTypes:      DefaultFileTypes(),
		BlacklistMatch: DefaultBlacklistMatch,
		RobotsMode:     DefaultRobotsMode,
		ReportFormat:   DefaultReportFormat,
	}
}

// XDGDataDir returns the XDG data directory for orphancrawl, where the
// report archive lives.
// On Linux: ~/.local/share/orphancrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for orphancrawl.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks every setting that has a fixed domain. It returns the
// first problem as a *ConfigurationError. Whether a site or a server is
// required depends on the command; see RequireSite and RequireServer.
func (c *Config) Validate() error {
	if c.Site != "" {
		if _, err := crawler.ParseSiteURL(c.Site); err != nil {
			return invalid("site", c.Site, ErrInvalidSite)
		}
	}
	if c.Timeout <= 0 {
		return invalid("timeout", c.Timeout.String(), ErrInvalidTimeout)
	}
	if c.CrawlDelay < 0 {
		return invalid("crawl_delay", c.CrawlDelay.String(), ErrInvalidCrawlDelay)
	}
	if c.MaxPages < 0 {
		return invalid("max_pages", strconv.Itoa(c.MaxPages), ErrInvalidMaxPages)
	}
	if c.MaxBodySize < 0 {
		return invalid("max_body_size", strconv.FormatInt(c.MaxBodySize, 10), ErrInvalidMaxBodySize)
	}
	if c.FTP.Port < 1 || c.FTP.Port > 65535 {
		return invalid("ftp.port", strconv.Itoa(c.FTP.Port), ErrInvalidPort)
	}
	if _, err := robots.ParseMode(c.RobotsMode); err != nil {
		return invalid("robots_mode", c.RobotsMode, ErrInvalidRobotsMode)
	}
	if _, err := frontier.ParseBlacklistMatch(c.BlacklistMatch); err != nil {
		return invalid("blacklist_match", c.BlacklistMatch, ErrInvalidBlacklistMatch)
	}
	for _, p := range c.IgnorePatterns {
		if _, err := frontier.CompilePatterns([]string{p}); err != nil {
			return invalid("ignore_patterns", p, ErrInvalidIgnorePattern)
		}
	}
	if _, err := report.ParseFormat(c.ReportFormat); err != nil {
		return invalid("report.format", c.ReportFormat, ErrInvalidReportFormat)
	}
	return nil
}

// RequireSite returns a *ConfigurationError when no site is set.
func (c *Config) RequireSite() error {
	if c.Site == "" {
		return invalid("site", "", ErrNoSite)
	}
	return nil
}

// RequireServer returns a *ConfigurationError when no FTP server is set.
func (c *Config) RequireServer() error {
	if c.FTP.Server == "" {
		return invalid("ftp.server", "", ErrNoServer)
	}
	return nil
}

// SiteHost returns the host of Site, or "" when Site is unset or invalid.
func (c *Config) SiteHost() string {
	u, err := crawler.ParseSiteURL(c.Site)
	if err != nil {
		return ""
	}
	return u.Host
}
