package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nao1215/orphancrawl/internal/config"
	"github.com/spf13/cobra"
)

// Flag names shared by several commands.
const (
	flagTimeout          = "timeout"
	flagMaxPages         = "max-pages"
	flagCrawlDelay       = "crawl-delay"
	flagIgnoreCrawlDelay = "ignore-crawl-delay"
	flagUserAgent        = "user-agent"
	flagMaxBodySize      = "max-body-size"
	flagFileTypes        = "file-types"
	flagIgnoreDirs       = "ignore-dirs"
	flagIgnore           = "ignore"
	flagBlacklistMatch   = "blacklist-match"
	flagRobotsMode       = "robots-mode"
	flagIgnoreRobots     = "ignore-robots"
	flagCookie           = "cookie"
	flagHeader           = "header"
	flagHTTPUser         = "http-user"
	flagHTTPPassword     = "http-password"
	flagInsecure         = "insecure"
	flagProxy            = "proxy"

	flagFTPServer      = "ftp-server"
	flagFTPPort        = "ftp-port"
	flagFTPUser        = "ftp-user"
	flagFTPPassword    = "ftp-password"
	flagFTPStartDir    = "ftp-start-dir"
	flagFTPPassive     = "ftp-passive"
	flagFTPDisableEPSV = "ftp-disable-epsv"

	flagFormat        = "format"
	flagOutput        = "output"
	flagXMLFileName   = "xml-file-name"
	flagXMLDateSuffix = "xml-date-suffix"

	flagNoSave = "no-save"
	flagDBDir  = "db-dir"
)

// addCommonFlags registers the flags used by both crawls.
func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.DurationP(flagTimeout, "t", config.DefaultTimeout,
		"Timeout for each request or FTP exchange")
	f.IntP(flagMaxPages, "p", config.DefaultMaxPages,
		"Maximum number of pages or directories per crawl (0 = no limit)")
	f.StringSlice(flagFileTypes, config.DefaultFileTypes(),
		"File extensions that are crawled and inventoried")
	f.StringSlice(flagIgnoreDirs, nil,
		"Directory names that are never entered")
	f.StringSlice(flagIgnore, nil,
		"Glob patterns of paths to skip (e.g. /tmp/*)")
	f.String(flagBlacklistMatch, config.DefaultBlacklistMatch,
		`Match ignored directories against the "resolved" path or the "raw" reference`)
	f.StringP(flagProxy, "x", "",
		"SOCKS5 proxy address for HTTP and FTP (e.g. 127.0.0.1:1080)")
}

// addHTTPFlags registers the site crawl flags.
func addHTTPFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.DurationP(flagCrawlDelay, "d", config.DefaultCrawlDelay,
		"Minimum time between two requests")
	f.Bool(flagIgnoreCrawlDelay, false,
		"Ignore the Crawl-delay of robots.txt")
	f.StringP(flagUserAgent, "u", config.DefaultUserAgent,
		"User-Agent sent with requests and matched against robots.txt")
	f.Int64(flagMaxBodySize, config.DefaultMaxBodySize,
		"Maximum number of bytes read from each response")
	f.String(flagRobotsMode, config.DefaultRobotsMode,
		`robots.txt evaluation: "literal", "allow-override" or "standard"`)
	f.Bool(flagIgnoreRobots, false,
		"Do not fetch or obey robots.txt")
	f.String(flagCookie, "",
		"Cookie sent with every request")
	f.StringToStringP(flagHeader, "H", nil,
		"Extra request header as name=value (repeatable)")
	f.String(flagHTTPUser, "",
		"HTTP basic authentication user")
	f.String(flagHTTPPassword, "",
		"HTTP basic authentication password")
	f.BoolP(flagInsecure, "k", false,
		"Skip TLS certificate verification")
}

// addFTPFlags registers the server crawl flags.
func addFTPFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String(flagFTPServer, "",
		"FTP server host")
	f.Int(flagFTPPort, config.DefaultFTPPort,
		"FTP control port")
	f.String(flagFTPUser, config.DefaultFTPUser,
		"FTP user")
	f.String(flagFTPPassword, "",
		"FTP password")
	f.String(flagFTPStartDir, config.DefaultFTPStartDir,
		"Server directory that maps to the site root")
	f.Bool(flagFTPPassive, true,
		"Use passive mode (active mode is not supported)")
	f.Bool(flagFTPDisableEPSV, false,
		"Use PASV instead of EPSV")
}

// addReportFlags registers the output flags.
func addReportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP(flagFormat, "f", config.DefaultReportFormat,
		"Report format: text, json, markdown, xml, sitemap or html")
	f.StringP(flagOutput, "o", "",
		"Write the report to this file (xml, sitemap and html derive a name when unset)")
	f.String(flagXMLFileName, "",
		"Base name of derived report files (default: taken from the site host)")
	f.Bool(flagXMLDateSuffix, false,
		"Append the run date to derived report file names")
}

// addArchiveFlags registers the report archive flags.
func addArchiveFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool(flagNoSave, false,
		"Do not store the report in the archive")
	f.String(flagDBDir, config.XDGDataDir(),
		"Directory of the report archive")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getLogJSONFlag retrieves the persistent --log-json flag.
func getLogJSONFlag(cmd *cobra.Command) bool {
	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		logJSON, err = cmd.Root().PersistentFlags().GetBool("log-json")
		if err != nil {
			return false
		}
	}
	return logJSON
}

// getConfigFlag retrieves the persistent --config flag.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// loadConfigFile loads the configuration file. An explicit path must
// exist; otherwise a missing file yields an empty File.
func loadConfigFile(cmd *cobra.Command) (*config.File, string, error) {
	explicit := getConfigFlag(cmd)
	path := config.FindConfigFile(explicit)

	if path == "" {
		if explicit != "" {
			return nil, "", fmt.Errorf("configuration file not found: %s", explicit)
		}
		return &config.File{Sites: make(map[string]config.SiteConfig)}, "", nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return file, path, nil
}

// buildConfig creates the Config for site. Defaults are overlaid with the
// site profile of file, then with the flags given on the command line.
func buildConfig(cmd *cobra.Command, site string, file *config.File, filePath string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Site = site
	cfg.SiteConfigs = file
	cfg.ConfigFilePath = filePath
	cfg.DBDir = config.XDGDataDir()
	cfg.SaveToDB = true

	cfg.ApplySiteConfig(file.GetSiteConfig(cfg.SiteHost()))

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// changed reports whether the command defines name and it was set.
func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// override copies a flag value into dst when the flag was set.
func override[T any](cmd *cobra.Command, name string, get func(string) (T, error), dst *T) error {
	if !changed(cmd, name) {
		return nil
	}
	v, err := get(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// applyFlags copies every flag given on the command line into cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()

	var noSave bool
	var headers map[string]string
	err := errors.Join(
		override(cmd, flagTimeout, f.GetDuration, &cfg.Timeout),
		override(cmd, flagMaxPages, f.GetInt, &cfg.MaxPages),
		override(cmd, flagCrawlDelay, f.GetDuration, &cfg.CrawlDelay),
		override(cmd, flagIgnoreCrawlDelay, f.GetBool, &cfg.IgnoreCrawlDelay),
		override(cmd, flagUserAgent, f.GetString, &cfg.UserAgent),
		override(cmd, flagMaxBodySize, f.GetInt64, &cfg.MaxBodySize),
		override(cmd, flagFileTypes, f.GetStringSlice, &cfg.FileTypes),
		override(cmd, flagIgnoreDirs, f.GetStringSlice, &cfg.IgnoreDirs),
		override(cmd, flagIgnore, f.GetStringSlice, &cfg.IgnorePatterns),
		override(cmd, flagBlacklistMatch, f.GetString, &cfg.BlacklistMatch),
		override(cmd, flagRobotsMode, f.GetString, &cfg.RobotsMode),
		override(cmd, flagIgnoreRobots, f.GetBool, &cfg.IgnoreRobots),
		override(cmd, flagCookie, f.GetString, &cfg.Cookie),
		override(cmd, flagHeader, f.GetStringToString, &headers),
		override(cmd, flagHTTPUser, f.GetString, &cfg.HTTPUser),
		override(cmd, flagHTTPPassword, f.GetString, &cfg.HTTPPassword),
		override(cmd, flagInsecure, f.GetBool, &cfg.Insecure),
		override(cmd, flagProxy, f.GetString, &cfg.ProxyAddress),

		override(cmd, flagFTPServer, f.GetString, &cfg.FTP.Server),
		override(cmd, flagFTPPort, f.GetInt, &cfg.FTP.Port),
		override(cmd, flagFTPUser, f.GetString, &cfg.FTP.User),
		override(cmd, flagFTPPassword, f.GetString, &cfg.FTP.Password),
		override(cmd, flagFTPStartDir, f.GetString, &cfg.FTP.StartDir),
		override(cmd, flagFTPPassive, f.GetBool, &cfg.FTP.Passive),
		override(cmd, flagFTPDisableEPSV, f.GetBool, &cfg.FTP.DisableEPSV),

		override(cmd, flagFormat, f.GetString, &cfg.ReportFormat),
		override(cmd, flagOutput, f.GetString, &cfg.ReportFile),
		override(cmd, flagXMLFileName, f.GetString, &cfg.XMLFileName),
		override(cmd, flagXMLDateSuffix, f.GetBool, &cfg.XMLDateSuffix),

		override(cmd, flagNoSave, f.GetBool, &noSave),
		override(cmd, flagDBDir, f.GetString, &cfg.DBDir),
	)
	if err != nil {
		return err
	}

	if len(headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			cfg.Headers[k] = v
		}
	}
	if noSave {
		cfg.SaveToDB = false
	}
	return nil
}

// profileSites returns the site URLs of the profiles in file, sorted.
// Profiles are keyed by host and crawled over http.
func profileSites(file *config.File) []string {
	sites := make([]string, 0, len(file.Sites))
	for host := range file.Sites {
		sites = append(sites, "http://"+host)
	}
	slices.Sort(sites)
	return sites
}
