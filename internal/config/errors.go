package config

import (
	"errors"
	"fmt"
)

// Configuration validation errors. Validate wraps them in a
// *ConfigurationError naming the offending setting, so callers can match
// with errors.Is and still print which value was wrong.
var (
	// ErrNoSite is returned when a site crawl is requested without a site.
	ErrNoSite = errors.New("no site specified: provide a site URL")

	// ErrNoServer is returned when a server crawl is requested without an
	// FTP server.
	ErrNoServer = errors.New("no FTP server specified: use --ftp-server or the ftp block of the config file")

	// ErrInvalidSite is returned when the site URL cannot be parsed.
	ErrInvalidSite = errors.New("invalid site URL")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidPort is returned when the FTP port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxPages is returned when the page cap is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRobotsMode is returned for an unknown robots mode.
	ErrInvalidRobotsMode = errors.New("invalid robots mode: use literal, allow-override or standard")

	// ErrInvalidBlacklistMatch is returned for an unknown blacklist match.
	ErrInvalidBlacklistMatch = errors.New("invalid blacklist match: use resolved or raw")

	// ErrInvalidIgnorePattern is returned when an ignore pattern does not
	// compile.
	ErrInvalidIgnorePattern = errors.New("invalid ignore pattern")

	// ErrInvalidReportFormat is returned for an unknown report format.
	ErrInvalidReportFormat = errors.New("invalid report format")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)

// ConfigurationError reports an invalid setting.
type ConfigurationError struct {
	// Setting is the name shown by Settings, such as "ftp.port".
	Setting string
	// Value is the rejected value as text.
	Value string
	// Err is one of the sentinel errors of this package.
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s=%q: %v", e.Setting, e.Value, e.Err)
}

// Unwrap returns the sentinel error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func invalid(setting, value string, err error) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Value: value, Err: err}
}
