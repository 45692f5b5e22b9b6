package config

import "time"

// SiteConfig holds the per-site settings of the config file. Zero values
// leave the corresponding setting alone.
type SiteConfig struct {
	// Cookie is an HTTP cookie to use when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Username and Password enable HTTP basic authentication.
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// FileTypes replaces the crawled extensions.
	FileTypes []string `yaml:"fileTypes,omitempty"`

	// IgnoreDirs are directory names never entered.
	IgnoreDirs []string `yaml:"ignoreDirs,omitempty"`

	// IgnorePatterns are paths to skip, using glob syntax.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// BlacklistMatch is "resolved" or "raw".
	BlacklistMatch string `yaml:"blacklistMatch,omitempty"`

	// RobotsMode is "literal", "allow-override" or "standard".
	RobotsMode string `yaml:"robotsMode,omitempty"`

	// MaxPages caps the crawl.
	MaxPages int `yaml:"maxPages,omitempty"`

	// CrawlDelay is written as a duration, such as "1s".
	CrawlDelay time.Duration `yaml:"crawlDelay,omitempty"`

	// FTP describes the server that hosts this site.
	FTP *SiteFTPConfig `yaml:"ftp,omitempty"`
}

// SiteFTPConfig is the ftp block of a site profile.
type SiteFTPConfig struct {
	Server      string `yaml:"server,omitempty"`
	Port        int    `yaml:"port,omitempty"`
	User        string `yaml:"user,omitempty"`
	Password    string `yaml:"password,omitempty"`
	StartDir    string `yaml:"startDir,omitempty"`
	Passive     *bool  `yaml:"passive,omitempty"`
	DisableEPSV bool   `yaml:"disableEPSV,omitempty"`
}

// File represents the structure of the .orphancrawl configuration file.
type File struct {
	// Sites maps site hosts (e.g. "www.example.com") to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a site host merged over the
// defaults. A "www." prefix is tried both ways.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	if cf == nil {
		return SiteConfig{}
	}
	for _, key := range []string{host, wwwVariant(host)} {
		if sc, ok := cf.Sites[key]; ok {
			return mergeSiteConfig(cf.Defaults, sc)
		}
	}
	return mergeSiteConfig(cf.Defaults, SiteConfig{})
}

func wwwVariant(host string) string {
	const www = "www."
	if len(host) > len(www) && host[:len(www)] == www {
		return host[len(www):]
	}
	return www + host
}

// mergeSiteConfig overlays override on defaults. Headers are merged key by
// key; everything else is replaced when set.
func mergeSiteConfig(defaults, override SiteConfig) SiteConfig {
	result := defaults

	if len(defaults.Headers) > 0 || len(override.Headers) > 0 {
		result.Headers = make(map[string]string, len(defaults.Headers)+len(override.Headers))
		for k, v := range defaults.Headers {
			result.Headers[k] = v
		}
		for k, v := range override.Headers {
			result.Headers[k] = v
		}
	}
	if override.Cookie != "" {
		result.Cookie = override.Cookie
	}
	if override.Username != "" {
		result.Username = override.Username
		result.Password = override.Password
	}
	if len(override.FileTypes) > 0 {
		result.FileTypes = override.FileTypes
	}
	if len(override.IgnoreDirs) > 0 {
		result.IgnoreDirs = override.IgnoreDirs
	}
	if len(override.IgnorePatterns) > 0 {
		result.IgnorePatterns = override.IgnorePatterns
	}
	if override.BlacklistMatch != "" {
		result.BlacklistMatch = override.BlacklistMatch
	}
	if override.RobotsMode != "" {
		result.RobotsMode = override.RobotsMode
	}
	if override.MaxPages != 0 {
		result.MaxPages = override.MaxPages
	}
	if override.CrawlDelay != 0 {
		result.CrawlDelay = override.CrawlDelay
	}
	if override.FTP != nil {
		result.FTP = override.FTP
	}

	return result
}

// ApplySiteConfig copies the set values of sc into c. Flags given
// explicitly on the command line are applied afterwards and win.
func (c *Config) ApplySiteConfig(sc SiteConfig) {
	if sc.Cookie != "" {
		c.Cookie = sc.Cookie
	}
	if len(sc.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(sc.Headers))
		}
		for k, v := range sc.Headers {
			c.Headers[k] = v
		}
	}
	if sc.Username != "" {
		c.HTTPUser = sc.Username
		c.HTTPPassword = sc.Password
	}
	if len(sc.FileTypes) > 0 {
		c.FileTypes = sc.FileTypes
	}
	if len(sc.IgnoreDirs) > 0 {
		c.IgnoreDirs = sc.IgnoreDirs
	}
	if len(sc.IgnorePatterns) > 0 {
		c.IgnorePatterns = sc.IgnorePatterns
	}
	if sc.BlacklistMatch != "" {
		c.BlacklistMatch = sc.BlacklistMatch
	}
	if sc.RobotsMode != "" {
		c.RobotsMode = sc.RobotsMode
	}
	if sc.MaxPages != 0 {
		c.MaxPages = sc.MaxPages
	}
	if sc.CrawlDelay != 0 {
		c.CrawlDelay = sc.CrawlDelay
	}

	if ftp := sc.FTP; ftp != nil {
		if ftp.Server != "" {
			c.FTP.Server = ftp.Server
		}
		if ftp.Port != 0 {
			c.FTP.Port = ftp.Port
		}
		if ftp.User != "" {
			c.FTP.User = ftp.User
			c.FTP.Password = ftp.Password
		}
		if ftp.StartDir != "" {
			c.FTP.StartDir = ftp.StartDir
		}
		if ftp.Passive != nil {
			c.FTP.Passive = *ftp.Passive
		}
		if ftp.DisableEPSV {
			c.FTP.DisableEPSV = true
		}
	}
}
