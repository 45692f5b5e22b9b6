package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/nao1215/orphancrawl/internal/config"
	"github.com/nao1215/orphancrawl/internal/crawler"
	"github.com/nao1215/orphancrawl/internal/frontier"
	"github.com/nao1215/orphancrawl/internal/report"
	"github.com/nao1215/orphancrawl/internal/robots"
	"github.com/nao1215/orphancrawl/internal/transport"
)

// Deps are the collaborators of a run. Nil fields are built from the
// configuration.
type Deps struct {
	// Transport dials HTTP and FTP connections.
	Transport *transport.Client

	// HTTPClient overrides the site client built from Transport.
	HTTPClient *http.Client

	// Connect overrides the FTP connector built from Transport.
	Connect Connector

	// Archive stores the finished report. Nil disables archiving.
	Archive Archive

	// Writer receives the report.
	Writer report.Writer

	Logger *slog.Logger

	// Now is the report clock.
	Now func() time.Time
}

// CrawlerOptions converts the crawl settings of cfg into crawler options.
// Options that do not apply to a crawler are ignored by it, so the same
// slice serves both.
func CrawlerOptions(cfg *config.Config, logger *slog.Logger) ([]crawler.Option, error) {
	mode, err := robots.ParseMode(cfg.RobotsMode)
	if err != nil {
		return nil, err
	}
	match, err := frontier.ParseBlacklistMatch(cfg.BlacklistMatch)
	if err != nil {
		return nil, err
	}
	patterns, err := frontier.CompilePatterns(cfg.IgnorePatterns)
	if err != nil {
		return nil, err
	}

	opts := []crawler.Option{
		crawler.WithFileTypes(cfg.FileTypes...),
		crawler.WithBlacklist(cfg.IgnoreDirs...),
		crawler.WithBlacklistMatch(match),
		crawler.WithIgnore(patterns...),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithDelay(cfg.CrawlDelay),
		crawler.WithRobotsMode(mode),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithStartDir(cfg.FTP.StartDir),
		crawler.WithLogger(logger),
	}
	if cfg.IgnoreRobots {
		opts = append(opts, crawler.WithoutRobots())
	}
	if cfg.IgnoreCrawlDelay {
		opts = append(opts, crawler.WithIgnoreCrawlDelay())
	}
	return opts, nil
}

// NewTransport creates the network client for cfg.
func NewTransport(cfg *config.Config) (*transport.Client, error) {
	opts := []transport.ClientOption{
		transport.WithTimeout(cfg.Timeout),
		transport.WithInsecureTLS(cfg.Insecure),
	}
	if cfg.ProxyAddress != "" {
		opts = append(opts, transport.WithProxy(cfg.ProxyAddress))
	}
	return transport.NewClient(opts...)
}

// HTTPClient returns the site client for cfg.
func HTTPClient(client *transport.Client, cfg *config.Config) *http.Client {
	return client.HTTPClientWithConfig(transport.HTTPConfig{
		UserAgent: cfg.UserAgent,
		Cookie:    cfg.Cookie,
		Headers:   cfg.Headers,
		Username:  cfg.HTTPUser,
		Password:  cfg.HTTPPassword,
	})
}

// FTPConnector returns a Connector that logs in to the server of ftp.
func FTPConnector(client *transport.Client, ftp config.FTPConfig, logger *slog.Logger) Connector {
	if logger == nil {
		logger = slog.Default()
	}
	opts := transport.FTPOptions{
		Host:        ftp.Server,
		Port:        ftp.Port,
		User:        ftp.User,
		Password:    ftp.Password,
		DisableEPSV: ftp.DisableEPSV,
	}
	return func(ctx context.Context) (Session, error) {
		if !ftp.Passive {
			logger.Warn("active FTP mode is not supported, using passive mode", "server", ftp.Server)
		}
		session, err := client.DialFTP(ctx, opts)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
}

// ServerRoot returns the label of the server crawl, such as
// "ftp://ftp.example.com". Non-default ports are kept.
func ServerRoot(ftp config.FTPConfig) string {
	host := ftp.Server
	if ftp.Port != 0 && ftp.Port != transport.DefaultFTPPort {
		host = net.JoinHostPort(host, strconv.Itoa(ftp.Port))
	}
	return "ftp://" + host
}

// builder assembles the steps of the three run kinds.
type builder struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
	opts   []crawler.Option
}

func newBuilder(cfg *config.Config, deps Deps) (*builder, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Writer == nil {
		return nil, ErrNoWriter
	}
	opts, err := CrawlerOptions(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid crawl settings: %w", err)
	}
	if deps.Transport == nil && (deps.HTTPClient == nil || deps.Connect == nil) {
		client, err := NewTransport(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create transport: %w", err)
		}
		deps.Transport = client
	}
	return &builder{cfg: cfg, deps: deps, logger: logger, opts: opts}, nil
}

func (b *builder) siteStep() (*SiteCrawlStep, error) {
	if err := b.cfg.RequireSite(); err != nil {
		return nil, err
	}
	client := b.deps.HTTPClient
	if client == nil {
		client = HTTPClient(b.deps.Transport, b.cfg)
	}
	return NewSiteCrawlStep(client, b.cfg.Site,
		WithSiteCrawlerOptions(b.opts...),
		WithPageCollection(b.deps.Archive != nil),
		WithSiteLogger(b.logger),
	), nil
}

func (b *builder) serverStep() (*ServerCrawlStep, error) {
	if err := b.cfg.RequireServer(); err != nil {
		return nil, err
	}
	connect := b.deps.Connect
	if connect == nil {
		connect = FTPConnector(b.deps.Transport, b.cfg.FTP, b.logger)
	}
	return NewServerCrawlStep(connect, ServerRoot(b.cfg.FTP),
		WithServerCrawlerOptions(b.opts...),
		WithServerLogger(b.logger),
	), nil
}

func (b *builder) reportStep() *ReportStep {
	return NewReportStep(b.deps.Writer, WithReportLogger(b.logger))
}

// NewSitePipeline crawls the site and reports the crawl.
func NewSitePipeline(cfg *config.Config, deps Deps) (*Pipeline, error) {
	b, err := newBuilder(cfg, deps)
	if err != nil {
		return nil, err
	}
	site, err := b.siteStep()
	if err != nil {
		return nil, err
	}
	p := New(WithLogger(b.logger))
	p.AddSteps(site, b.reportStep())
	return p, nil
}

// NewServerPipeline lists the server and reports the crawl.
func NewServerPipeline(cfg *config.Config, deps Deps) (*Pipeline, error) {
	b, err := newBuilder(cfg, deps)
	if err != nil {
		return nil, err
	}
	server, err := b.serverStep()
	if err != nil {
		return nil, err
	}
	p := New(WithLogger(b.logger))
	p.AddSteps(server, b.reportStep())
	return p, nil
}

// NewOrphanPipeline crawls the site and the server concurrently,
// reconciles them, archives the report when an archive is given and
// writes it.
func NewOrphanPipeline(cfg *config.Config, deps Deps) (*Pipeline, error) {
	b, err := newBuilder(cfg, deps)
	if err != nil {
		return nil, err
	}
	site, err := b.siteStep()
	if err != nil {
		return nil, err
	}
	server, err := b.serverStep()
	if err != nil {
		return nil, err
	}

	reconcileOpts := []ReconcileStepOption{WithReconcileLogger(b.logger)}
	if deps.Now != nil {
		reconcileOpts = append(reconcileOpts, WithClock(deps.Now))
	}

	p := New(WithLogger(b.logger))
	p.AddSteps(
		NewParallelStep("crawl", site, server),
		NewReconcileStep(reconcileOpts...),
	)
	if deps.Archive != nil {
		p.AddStep(NewArchiveStep(deps.Archive, WithArchiveLogger(b.logger)))
	}
	p.AddStep(b.reportStep())
	return p, nil
}
