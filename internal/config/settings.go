package config

import (
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/orphancrawl/internal/report"
)

// maskedValue replaces secrets in Settings.
const maskedValue = "********"

// Setting is one visible configuration value.
type Setting = report.Setting

// Settings lists the effective configuration in a fixed order. Passwords,
// cookies and header values are masked; the loaded config file itself is
// not listed.
func (c *Config) Settings() []Setting {
	return []Setting{
		{Name: "site", Value: c.Site},
		{Name: "file_types", Value: strings.Join(c.FileTypes, ",")},
		{Name: "ignore_dirs", Value: strings.Join(c.IgnoreDirs, ",")},
		{Name: "ignore_patterns", Value: strings.Join(c.IgnorePatterns, ",")},
		{Name: "blacklist_match", Value: c.BlacklistMatch},
		{Name: "robots_mode", Value: c.RobotsMode},
		{Name: "ignore_robots", Value: strconv.FormatBool(c.IgnoreRobots)},
		{Name: "ignore_crawl_delay", Value: strconv.FormatBool(c.IgnoreCrawlDelay)},
		{Name: "user_agent", Value: c.UserAgent},
		{Name: "crawl_delay", Value: c.CrawlDelay.String()},
		{Name: "max_pages", Value: strconv.Itoa(c.MaxPages)},
		{Name: "max_body_size", Value: strconv.FormatInt(c.MaxBodySize, 10)},
		{Name: "timeout", Value: c.Timeout.String()},
		{Name: "proxy", Value: c.ProxyAddress},
		{Name: "insecure", Value: strconv.FormatBool(c.Insecure)},
		{Name: "cookie", Value: mask(c.Cookie)},
		{Name: "headers", Value: maskHeaders(c.Headers)},
		{Name: "http.user", Value: c.HTTPUser},
		{Name: "http.password", Value: mask(c.HTTPPassword)},
		{Name: "ftp.server", Value: c.FTP.Server},
		{Name: "ftp.port", Value: strconv.Itoa(c.FTP.Port)},
		{Name: "ftp.user", Value: c.FTP.User},
		{Name: "ftp.password", Value: mask(c.FTP.Password)},
		{Name: "ftp.start_dir", Value: c.FTP.StartDir},
		{Name: "ftp.passive", Value: strconv.FormatBool(c.FTP.Passive)},
		{Name: "ftp.disable_epsv", Value: strconv.FormatBool(c.FTP.DisableEPSV)},
		{Name: "report.format", Value: c.ReportFormat},
		{Name: "report.file", Value: c.ReportFile},
		{Name: "xml.file_name", Value: c.XMLFileName},
		{Name: "xml.date_suffix", Value: strconv.FormatBool(c.XMLDateSuffix)},
		{Name: "db_dir", Value: c.DBDir},
		{Name: "save_to_db", Value: strconv.FormatBool(c.SaveToDB)},
		{Name: "verbose", Value: strconv.FormatBool(c.Verbose)},
	}
}

// FTPSettings returns the ftp.* entries of Settings with the prefix
// removed, as reported alongside an orphan list.
func (c *Config) FTPSettings() []Setting {
	var out []Setting
	for _, s := range c.Settings() {
		if name, ok := strings.CutPrefix(s.Name, "ftp."); ok {
			out = append(out, Setting{Name: name, Value: s.Value})
		}
	}
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return maskedValue
}

// maskHeaders lists header names with masked values, sorted by name.
func maskHeaders(headers map[string]string) string {
	if len(headers) == 0 {
		return ""
	}
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	slices.Sort(names)
	for i, name := range names {
		names[i] = name + ": " + maskedValue
	}
	return strings.Join(names, ", ")
}
