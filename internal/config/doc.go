// Package config holds the settings of an orphancrawl run: the site and FTP
// server to crawl, crawl filters, politeness, report output and the archive
// location. Settings come from defaults, the optional .orphancrawl YAML file
// and command-line flags, in that order of precedence.
package config
