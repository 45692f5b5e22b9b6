package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/orphancrawl/internal/pipeline"
	"github.com/nao1215/orphancrawl/internal/report"
	"github.com/spf13/cobra"
)

// Batch flags of the orphans command.
const (
	flagAllSites = "all-sites"
	flagBatch    = "batch"
)

// NewOrphansCmd creates the orphans command.
func NewOrphansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orphans [site-url]",
		Short: "Report server files that the site never links to",
		Long: `Orphans crawls the site and lists the FTP server at the same time, then
reports every server file that no crawled page links to.

Finished reports are stored in the archive (see 'orphancrawl history').

Examples:
  # Compare a site with its FTP server
  orphancrawl orphans http://example.com --ftp-server ftp.example.com \
      --ftp-user deploy --ftp-password secret --ftp-start-dir /public_html

  # Use the ftp block of the site profile in .orphancrawl
  orphancrawl orphans http://www.example.com

  # Save the orphan XML document as example_orphancrawl.xml
  orphancrawl orphans http://www.example.com -f xml

  # Run every site profile of the configuration file, two at a time
  orphancrawl orphans --all-sites --batch 2`,
		Args: cobra.MaximumNArgs(1),
		RunE: runOrphansCmd,
	}

	addCommonFlags(cmd)
	addHTTPFlags(cmd)
	addFTPFlags(cmd)
	addReportFlags(cmd)
	addArchiveFlags(cmd)
	cmd.Flags().Bool(flagAllSites, false,
		"Run every site profile of the configuration file")
	cmd.Flags().IntP(flagBatch, "b", pipeline.DefaultConcurrency,
		"Number of sites processed at once with --all-sites")

	return cmd
}

// NewSiteCmd creates the site command.
func NewSiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site <site-url>",
		Short: "Crawl the links of a site",
		Long: `Site crawls a web site breadth-first over its links and reports every
visited page and the links found on it.

Examples:
  # Print the crawl report
  orphancrawl site http://example.com

  # Save a sitemaps.org sitemap as Sitemap.xml
  orphancrawl site http://example.com -f sitemap

  # Save the links document as example.xml, skipping /cgi-bin/
  orphancrawl site http://www.example.com -f xml --ignore-dirs cgi-bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingleCmd(cmd, args, runSite)
		},
	}

	addCommonFlags(cmd)
	addHTTPFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// NewServerCmd creates the server command.
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server [site-url]",
		Short: "List the files of an FTP server",
		Long: `Server walks the directory tree of an FTP server breadth-first from the
start directory and reports every file with a crawled extension.

The optional site URL selects the site profile whose ftp block is used.

Examples:
  orphancrawl server --ftp-server ftp.example.com --ftp-start-dir /www
  orphancrawl server http://www.example.com -f json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingleCmd(cmd, args, runServer)
		},
	}

	addCommonFlags(cmd)
	addFTPFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// signalContext is cancelled on interrupt so crawls stop between fetches.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// runSingleCmd runs one site, server or orphan crawl.
func runSingleCmd(cmd *cobra.Command, args []string, kind runKind) error {
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
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)
	ctx, stop := signalContext(cmd)
	defer stop()

	return runCrawl(ctx, cmd, cfg, kind, logger)
}

// runOrphansCmd executes the orphans command.
func runOrphansCmd(cmd *cobra.Command, args []string) error {
	allSites, err := cmd.Flags().GetBool(flagAllSites)
	if err != nil {
		return err
	}
	if !allSites {
		return runSingleCmd(cmd, args, runOrphans)
	}

	if len(args) > 0 {
		return errors.New("--all-sites does not take a site argument")
	}
	if changed(cmd, flagOutput) {
		return errors.New("--output cannot be combined with --all-sites")
	}
	return runBatchCmd(cmd)
}

// batchOutput is the buffered report of one site in a batch.
type batchOutput struct {
	path string
	buf  bytes.Buffer
}

// runBatchCmd runs the orphan pipeline for every site profile.
func runBatchCmd(cmd *cobra.Command) error {
	file, filePath, err := loadConfigFile(cmd)
	if err != nil {
		return err
	}
	sites := profileSites(file)
	if len(sites) == 0 {
		return errors.New("no site profiles found in the configuration file")
	}
	concurrency, err := cmd.Flags().GetInt(flagBatch)
	if err != nil {
		return err
	}

	// The archive and the logger are shared; each site gets its own config.
	base, err := buildConfig(cmd, "", file, filePath)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd, base.Verbose)
	ctx, stop := signalContext(cmd)
	defer stop()

	db, err := openArchive(base, runOrphans)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	var mu sync.Mutex
	outputs := make(map[string]*batchOutput, len(sites))

	factory := func(site string) (*pipeline.Pipeline, error) {
		cfg, err := buildConfig(cmd, site, file, filePath)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
		format, err := report.ParseFormat(cfg.ReportFormat)
		if err != nil {
			return nil, err
		}

		out := &batchOutput{path: reportPath(cfg, format, true, time.Now())}
		writer, err := report.NewWriter(format, &out.buf, reportOptions(cfg, runOrphans)...)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		outputs[site] = out
		mu.Unlock()

		deps := pipeline.Deps{Writer: writer, Logger: logger}
		if err := newTransportDeps(ctx, cfg, &deps); err != nil {
			return nil, err
		}
		if db != nil {
			deps.Archive = db
		}
		return pipeline.NewOrphanPipeline(cfg, deps)
	}

	bp := pipeline.NewBatchProcessor(factory,
		pipeline.WithConcurrency(concurrency),
		pipeline.WithBatchLogger(logger),
	)

	fmt.Fprintf(cmd.ErrOrStderr(), "Processing %d sites (concurrency: %d)...\n\n", len(sites), concurrency)
	startTime := time.Now()

	var failed int
	err = bp.ProcessBatchWithCallback(ctx, sites, func(run *pipeline.Run, index int) {
		mu.Lock()
		defer mu.Unlock()

		if run.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s failed: %v\n", index+1, len(sites), run.Site, run.Err)
			return
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s: %d orphans\n",
			index+1, len(sites), run.Site, len(run.Report.Orphans))
		if err := flushBatchOutput(cmd, outputs[run.Site]); err != nil {
			logger.Error("report failed", "site", run.Site, "error", err)
		}
	})

	fmt.Fprintf(cmd.ErrOrStderr(), "\nBatch completed in %s\n", time.Since(startTime).Round(time.Millisecond))
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sites failed", failed, len(sites))
	}
	return nil
}

// flushBatchOutput prints a buffered report or saves it to its file.
func flushBatchOutput(cmd *cobra.Command, out *batchOutput) error {
	if out == nil {
		return nil
	}
	if out.path == "" {
		_, err := out.buf.WriteTo(cmd.OutOrStdout())
		return err
	}
	f := &reportFile{path: out.path}
	defer f.Close()
	if _, err := out.buf.WriteTo(f); err != nil {
		return err
	}
	if !f.Written() {
		return nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", out.path)
	return nil
}
