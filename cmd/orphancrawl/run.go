package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/orphancrawl/internal/config"
	"github.com/nao1215/orphancrawl/internal/database"
	"github.com/nao1215/orphancrawl/internal/log"
	"github.com/nao1215/orphancrawl/internal/pipeline"
	"github.com/nao1215/orphancrawl/internal/report"
	"github.com/spf13/cobra"
)

// runKind selects what a crawl command runs.
type runKind int

const (
	runSite runKind = iota
	runServer
	runOrphans
)

// newPipeline returns the pipeline constructor of the run kind.
func (k runKind) newPipeline() func(*config.Config, pipeline.Deps) (*pipeline.Pipeline, error) {
	switch k {
	case runSite:
		return pipeline.NewSitePipeline
	case runServer:
		return pipeline.NewServerPipeline
	default:
		return pipeline.NewOrphanPipeline
	}
}

// setupLogger creates the secure logger and makes it the default.
func setupLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	logger := log.NewSecureLogger(cmd.ErrOrStderr(), verbose)
	if getLogJSONFlag(cmd) {
		logger = log.NewSecureJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	slog.SetDefault(logger)
	return logger
}

// reportPath returns where the report is saved, or "" for stdout. An
// explicit --output wins; file formats derive a name from the site host.
func reportPath(cfg *config.Config, format report.Format, orphans bool, now time.Time) string {
	if cfg.ReportFile != "" {
		return cfg.ReportFile
	}
	if !format.WritesFile() {
		return ""
	}

	var date time.Time
	if cfg.XMLDateSuffix {
		date = now
	}
	host := cfg.SiteHost()
	if host == "" {
		host = cfg.FTP.Server
	}
	return report.FileName(format, report.BaseName(host, cfg.XMLFileName, date), orphans)
}

// reportFile creates the report file on the first write, so a failed run
// leaves no empty report behind.
type reportFile struct {
	path string
	file *os.File
}

func (r *reportFile) Write(p []byte) (int, error) {
	if r.file == nil {
		if dir := filepath.Dir(r.path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return 0, fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		// Reports list server paths and settings, so only the owner reads them.
		f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return 0, fmt.Errorf("failed to create output file: %w", err)
		}
		r.file = f
	}
	return r.file.Write(p)
}

// Written reports whether the file was created.
func (r *reportFile) Written() bool {
	return r.file != nil
}

func (r *reportFile) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// reportOptions returns the writer options for cfg.
func reportOptions(cfg *config.Config, kind runKind) []report.Option {
	opts := []report.Option{report.WithVerbose(cfg.Verbose)}
	if kind != runSite {
		opts = append(opts, report.WithSettings(cfg.FTPSettings()...))
	}
	return opts
}

// newTransportDeps creates the network client and, when a proxy is set,
// verifies it speaks SOCKS5.
func newTransportDeps(ctx context.Context, cfg *config.Config, deps *pipeline.Deps) error {
	client, err := pipeline.NewTransport(cfg)
	if err != nil {
		return fmt.Errorf("failed to create transport: %w", err)
	}
	if cfg.ProxyAddress != "" {
		if err := client.CheckProxy(ctx); err != nil {
			return fmt.Errorf("proxy check failed: %w (make sure a SOCKS5 proxy is running at %s)",
				err, cfg.ProxyAddress)
		}
	}
	deps.Transport = client
	return nil
}

// openArchive opens the report archive when orphan runs are saved.
func openArchive(cfg *config.Config, kind runKind) (*database.ReportDB, error) {
	if kind != runOrphans || !cfg.SaveToDB {
		return nil, nil
	}
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// runCrawl executes one run of kind for cfg and writes its report.
func runCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, kind runKind, logger *slog.Logger) error {
	format, err := report.ParseFormat(cfg.ReportFormat)
	if err != nil {
		return err
	}

	var output io.Writer = cmd.OutOrStdout()
	var file *reportFile
	if path := reportPath(cfg, format, kind == runOrphans, time.Now()); path != "" {
		file = &reportFile{path: path}
		output = file
		defer file.Close()
	}

	writer, err := report.NewWriter(format, output, reportOptions(cfg, kind)...)
	if err != nil {
		return err
	}

	deps := pipeline.Deps{Writer: writer, Logger: logger}
	if err := newTransportDeps(ctx, cfg, &deps); err != nil {
		return err
	}

	db, err := openArchive(cfg, kind)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		deps.Archive = db
	}

	p, err := kind.newPipeline()(cfg, deps)
	if err != nil {
		return err
	}

	logger.Info("starting run",
		"site", cfg.Site,
		"server", cfg.FTP.Server,
		"steps", p.StepNames(),
	)
	startTime := time.Now()

	run := pipeline.NewRun(cfg.Site)
	if err := p.Execute(ctx, run); err != nil {
		return err
	}

	status := cmd.ErrOrStderr()
	fmt.Fprintf(status, "Completed in %s\n", time.Since(startTime).Round(time.Millisecond))
	if run.RunID != "" {
		fmt.Fprintf(status, "Saved as run %s\n", run.RunID)
	}
	if file != nil && file.Written() {
		fmt.Fprintf(status, "Report written to %s\n", file.path)
	}
	return nil
}
