package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for orphancrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orphancrawl",
		Short: "Find server files that no page of a site links to",
		Long: `orphancrawl crawls a web site breadth-first over its links, walks the
directory tree of the FTP server that hosts it, and reports the orphans:
files that are on the server but never linked from the site.

Site profiles (cookies, headers, FTP login, ignore rules) are read from
.orphancrawl in the current or home directory. Run 'orphancrawl init' to
create one.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .orphancrawl in current or home directory)")
	cmd.PersistentFlags().Bool("log-json", false, "Write log records as JSON")

	cmd.AddCommand(NewOrphansCmd())
	cmd.AddCommand(NewSiteCmd())
	cmd.AddCommand(NewServerCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewSettingsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
