package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/nao1215/orphancrawl/internal/crawler"
	"github.com/nao1215/orphancrawl/internal/model"
	"github.com/nao1215/orphancrawl/internal/orphan"
	"github.com/nao1215/orphancrawl/internal/report"
	"golang.org/x/sync/errgroup"
)

// Crawler is a site or server crawler. *crawler.LinkCrawler and
// *crawler.FileCrawler satisfy it.
type Crawler interface {
	Run(ctx context.Context) error
	Result() (*model.CrawlResult, error)
}

// runCrawler runs c to completion and stores its result in run.
func runCrawler(ctx context.Context, c Crawler, run *Run) error {
	if err := c.Run(ctx); err != nil {
		return err
	}
	result, err := c.Result()
	if err != nil {
		return err
	}
	run.setResult(result)
	return nil
}

// SiteCrawlStep crawls the links of a web site.
type SiteCrawlStep struct {
	client *http.Client
	site   string
	opts   []crawler.Option

	// collectPages hands every fetched page to Run.AddPage.
	collectPages bool

	logger *slog.Logger
}

// SiteCrawlStepOption configures a SiteCrawlStep.
type SiteCrawlStepOption func(*SiteCrawlStep)

// WithSiteCrawlerOptions passes options to the link crawler.
func WithSiteCrawlerOptions(opts ...crawler.Option) SiteCrawlStepOption {
	return func(s *SiteCrawlStep) {
		s.opts = append(s.opts, opts...)
	}
}

// WithPageCollection records the fetched pages in the Run.
func WithPageCollection(collect bool) SiteCrawlStepOption {
	return func(s *SiteCrawlStep) {
		s.collectPages = collect
	}
}

// WithSiteLogger sets a custom logger for the site crawl step.
func WithSiteLogger(logger *slog.Logger) SiteCrawlStepOption {
	return func(s *SiteCrawlStep) {
		s.logger = logger
	}
}

// NewSiteCrawlStep creates a step crawling site with client.
func NewSiteCrawlStep(client *http.Client, site string, opts ...SiteCrawlStepOption) *SiteCrawlStep {
	s := &SiteCrawlStep{
		client: client,
		site:   site,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *SiteCrawlStep) Name() string {
	return "site_crawl"
}

// Do crawls the site and stores the result in run.SiteResult.
func (s *SiteCrawlStep) Do(ctx context.Context, run *Run) error {
	opts := slices.Clone(s.opts)
	if s.collectPages {
		opts = append(opts, crawler.WithPageHandler(run.AddPage))
	}

	c, err := crawler.NewLinkCrawler(s.client, s.site, opts...)
	if err != nil {
		return fmt.Errorf("failed to create site crawler: %w", err)
	}
	s.logger.Debug("site crawl starting", "site", c.Root())
	return runCrawler(ctx, c, run)
}

// Session is an open server listing. *transport.FTPSession satisfies it.
type Session interface {
	crawler.DirectoryLister
	Close() error
}

// Connector opens a server session.
type Connector func(ctx context.Context) (Session, error)

// ServerCrawlStep walks the directory tree of a server.
type ServerCrawlStep struct {
	connect Connector

	// root labels the result, such as "ftp://ftp.example.com".
	root string

	opts   []crawler.Option
	logger *slog.Logger
}

// ServerCrawlStepOption configures a ServerCrawlStep.
type ServerCrawlStepOption func(*ServerCrawlStep)

// WithServerCrawlerOptions passes options to the file crawler.
func WithServerCrawlerOptions(opts ...crawler.Option) ServerCrawlStepOption {
	return func(s *ServerCrawlStep) {
		s.opts = append(s.opts, opts...)
	}
}

// WithServerLogger sets a custom logger for the server crawl step.
func WithServerLogger(logger *slog.Logger) ServerCrawlStepOption {
	return func(s *ServerCrawlStep) {
		s.logger = logger
	}
}

// NewServerCrawlStep creates a step that connects with connect and lists
// the tree below the configured start directory.
func NewServerCrawlStep(connect Connector, root string, opts ...ServerCrawlStepOption) *ServerCrawlStep {
	s := &ServerCrawlStep{
		connect: connect,
		root:    root,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ServerCrawlStep) Name() string {
	return "server_crawl"
}

// Do lists the server and stores the result in run.ServerResult. The
// session is closed when the crawl ends.
func (s *ServerCrawlStep) Do(ctx context.Context, run *Run) error {
	session, err := s.connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", s.root, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			s.logger.Warn("failed to close server session", "server", s.root, "error", err)
		}
	}()

	c, err := crawler.NewFileCrawler(session, s.root, s.opts...)
	if err != nil {
		return fmt.Errorf("failed to create server crawler: %w", err)
	}
	s.logger.Debug("server crawl starting", "server", s.root, "start_dir", c.StartDir())
	return runCrawler(ctx, c, run)
}

// ParallelStep runs independent steps concurrently. The first failure
// cancels the others.
type ParallelStep struct {
	name  string
	steps []Step
}

// NewParallelStep groups steps under name.
func NewParallelStep(name string, steps ...Step) *ParallelStep {
	return &ParallelStep{name: name, steps: steps}
}

// Name returns the step name.
func (p *ParallelStep) Name() string {
	return p.name
}

// Do runs every step in its own goroutine and waits for all of them.
func (p *ParallelStep) Do(ctx context.Context, run *Run) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, step := range p.steps {
		g.Go(func() error {
			if err := step.Do(gctx, run); err != nil {
				return fmt.Errorf("%s: %w", step.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ReconcileStep builds the orphan report from the two crawls.
type ReconcileStep struct {
	now    func() time.Time
	logger *slog.Logger
}

// ReconcileStepOption configures a ReconcileStep.
type ReconcileStepOption func(*ReconcileStep)

// WithClock sets the clock used for the report date.
func WithClock(now func() time.Time) ReconcileStepOption {
	return func(s *ReconcileStep) {
		s.now = now
	}
}

// WithReconcileLogger sets a custom logger for the reconcile step.
func WithReconcileLogger(logger *slog.Logger) ReconcileStepOption {
	return func(s *ReconcileStep) {
		s.logger = logger
	}
}

// NewReconcileStep creates a reconcile step.
func NewReconcileStep(opts ...ReconcileStepOption) *ReconcileStep {
	s := &ReconcileStep{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ReconcileStep) Name() string {
	return "reconcile"
}

// Do sets run.Report.
func (s *ReconcileStep) Do(_ context.Context, run *Run) error {
	site, server := run.results()
	rep, err := orphan.Reconcile(site, server, orphan.WithClock(s.now))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoCrawlResult, err)
	}
	run.Report = rep

	totals := rep.Totals()
	s.logger.Info("reconciled inventories",
		"site", rep.Site,
		"server", rep.Server,
		"orphans", totals.Orphans,
		"linked", totals.Linked,
		"partial", rep.Partial(),
	)
	if rep.Partial() {
		s.logger.Warn("a crawl stopped early; the orphan list may contain linked files",
			"site", rep.Site,
		)
	}
	return nil
}

// Archive stores finished runs. *database.ReportDB satisfies it.
type Archive interface {
	SaveReport(ctx context.Context, report *model.OrphanReport) (string, error)
	SavePages(ctx context.Context, runID string, pages []*model.Page) error
}

// ArchiveStep saves the orphan report and the site pages.
type ArchiveStep struct {
	archive Archive
	logger  *slog.Logger
}

// ArchiveStepOption configures an ArchiveStep.
type ArchiveStepOption func(*ArchiveStep)

// WithArchiveLogger sets a custom logger for the archive step.
func WithArchiveLogger(logger *slog.Logger) ArchiveStepOption {
	return func(s *ArchiveStep) {
		s.logger = logger
	}
}

// NewArchiveStep creates an archive step.
func NewArchiveStep(archive Archive, opts ...ArchiveStepOption) *ArchiveStep {
	s := &ArchiveStep{
		archive: archive,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ArchiveStep) Name() string {
	return "archive"
}

// Do saves run.Report and sets run.RunID.
func (s *ArchiveStep) Do(ctx context.Context, run *Run) error {
	if s.archive == nil {
		return ErrNoArchive
	}
	if run.Report == nil {
		return fmt.Errorf("%w: nothing to archive", ErrNoCrawlResult)
	}

	id, err := s.archive.SaveReport(ctx, run.Report)
	if err != nil {
		return fmt.Errorf("failed to archive report: %w", err)
	}
	run.RunID = id

	pages := run.Pages()
	if err := s.archive.SavePages(ctx, id, pages); err != nil {
		return fmt.Errorf("failed to archive pages: %w", err)
	}

	s.logger.Info("archived run", "id", id, "pages", len(pages))
	return nil
}

// ReportStep writes the orphan report, or the single crawl of a run
// without one.
type ReportStep struct {
	writer report.Writer
	logger *slog.Logger
}

// ReportStepOption configures a ReportStep.
type ReportStepOption func(*ReportStep)

// WithReportLogger sets a custom logger for the report step.
func WithReportLogger(logger *slog.Logger) ReportStepOption {
	return func(s *ReportStep) {
		s.logger = logger
	}
}

// NewReportStep creates a report step writing to w.
func NewReportStep(w report.Writer, opts ...ReportStepOption) *ReportStep {
	s := &ReportStep{
		writer: w,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Do writes the report.
func (s *ReportStep) Do(_ context.Context, run *Run) error {
	if s.writer == nil {
		return ErrNoWriter
	}

	var (
		n   int
		err error
	)
	site, server := run.results()
	switch {
	case run.Report != nil:
		n, err = s.writer.WriteOrphans(run.Report)
	case site != nil:
		n, err = s.writer.WriteCrawl(site)
	case server != nil:
		n, err = s.writer.WriteCrawl(server)
	default:
		return fmt.Errorf("%w: nothing to report", ErrNoCrawlResult)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	s.logger.Debug("report written", "bytes", n)
	return nil
}
