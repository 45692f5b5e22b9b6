package main

import (
	"fmt"

	"github.com/nao1215/orphancrawl/internal/config"
	"github.com/spf13/cobra"
)

// NewSettingsCmd creates the settings command.
func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings [site-url]",
		Short: "Print the effective configuration",
		Long: `Settings prints the configuration a crawl would use: built-in defaults,
overlaid with the site profile of the configuration file, overlaid with the
flags given on the command line. Passwords, cookies and header values are
masked.

Examples:
  orphancrawl settings
  orphancrawl settings http://www.example.com --max-pages 50
  orphancrawl settings http://www.example.com --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSettingsCmd,
	}

	addCommonFlags(cmd)
	addHTTPFlags(cmd)
	addFTPFlags(cmd)
	addReportFlags(cmd)
	addArchiveFlags(cmd)
	cmd.Flags().BoolP(flagJSON, "j", false, "Print the settings as JSON")

	return cmd
}

// runSettingsCmd executes the settings command.
func runSettingsCmd(cmd *cobra.Command, args []string) error {
	file, filePath, err := loadConfigFile(cmd)
	if err != nil {
		return err
	}
	site := ""
	if len(args) > 0 {
		site = args[0]
	}
	cfg, err := buildConfig(cmd, site, file, filePath)
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool(flagJSON)
	if err != nil {
		return err
	}

	settings := cfg.Settings()
	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, settings)
	}

	if cfg.ConfigFilePath != "" {
		fmt.Fprintf(out, "# config file: %s\n", cfg.ConfigFilePath)
	}
	printSettings(cmd, settings)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	return nil
}

func printSettings(cmd *cobra.Command, settings []config.Setting) {
	width := 0
	for _, s := range settings {
		width = max(width, len(s.Name))
	}
	for _, s := range settings {
		fmt.Fprintf(cmd.OutOrStdout(), "%-*s  %s\n", width, s.Name, s.Value)
	}
}
