// Package main provides the entry point for the orphancrawl CLI.
//
// orphancrawl crawls a web site and the FTP server that hosts it, then
// reports the server files no page of the site links to.
//
// Usage:
//
//	orphancrawl orphans http://example.com --ftp-server ftp.example.com
//	orphancrawl site http://example.com
//	orphancrawl server --ftp-server ftp.example.com
//
// See --help for all available options.
package main

func main() {
	Execute()
}
