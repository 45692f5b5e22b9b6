package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/orphancrawl/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/orphancrawl.yaml
var configTemplate embed.FS

const templatePath = "templates/orphancrawl.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new orphancrawl configuration file",
		Long: `Initialize creates a new .orphancrawl configuration file in the current directory.

The generated file includes:
- Default crawl settings (file types, ignored directories, robots mode)
- A commented site profile with an FTP block
- Documentation for all available options

Examples:
  # Create .orphancrawl in current directory
  orphancrawl init

  # Create config file at a specific path
  orphancrawl init -o myconfig.yaml

  # Force overwrite existing file
  orphancrawl init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// The file may hold FTP and HTTP passwords.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure per-site settings such as:")
	fmt.Fprintln(out, "  - FTP server, login and start directory")
	fmt.Fprintln(out, "  - Cookies, headers and basic authentication")
	fmt.Fprintln(out, "  - Directories and patterns to ignore")
	return nil
}
