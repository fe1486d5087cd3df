package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/database"
	applog "github.com/nao1215/seoscan/internal/log"
	"github.com/nao1215/seoscan/internal/model"
	"github.com/nao1215/seoscan/internal/pipeline"
	"github.com/nao1215/seoscan/internal/report"
	"github.com/spf13/cobra"
)

// errXLSXNeedsOutput is returned when a binary report would go to the terminal.
var errXLSXNeedsOutput = errors.New("xlsx reports require --output")

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [url...]",
		Short: "Crawl a website and score its SEO",
		Long: `Audit crawls one or more websites starting at the given URLs and scores
every page for technical SEO, content quality and accessibility.

The crawl stays on the host of each URL, follows links breadth-first up to
--depth and stores at most --max-pages pages. Links found on the pages are
then probed to find broken ones. The report lists per-page scores, the most
common issues across the site, broken links and prioritized advice.

Audit summaries are saved to the history database unless --no-save is given.

Examples:
  # Audit a site with the default limits
  seoscan audit https://example.com

  # Crawl deeper and store more pages
  seoscan audit -d 3 -p 50 https://example.com

  # Audit several sites, two at a time
  seoscan audit -b 2 https://example.com https://example.org

  # Write a Markdown report to a file
  seoscan audit -f markdown -o report.md https://example.com

  # Write an Excel workbook
  seoscan audit -f xlsx -o report.xlsx https://example.com

Configuration file (.seoscan) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      maxPages: 100
      ignorePatterns:
        - "/admin/*"`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to store per site")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum crawl depth from the start URL")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Delay between page fetches")
	cmd.Flags().Bool("respect-robots", false,
		"Skip URLs disallowed by robots.txt")

	// Batch auditing flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent audits")

	cmd.Flags().Bool("no-save", false,
		"Do not save the audit summary to the history database")

	addRequestFlags(cmd)
	addReportFlags(cmd)
	addDBDirFlag(cmd)

	return cmd
}

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [url]",
		Short: "Quickly check a single page",
		Long: `Check fetches only the given page, scores it and probes the links on it.
Nothing is saved to the history database.

Examples:
  # Check a landing page
  seoscan check https://example.com/pricing

  # Check without probing links, as JSON
  seoscan check --no-link-check -f json https://example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runCheckCmd,
	}

	addRequestFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// addRequestFlags registers the flags shared by audit and check that
// control HTTP requests.
func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Fetch timeout for each page")
	cmd.Flags().Duration("probe-timeout", config.DefaultProbeTimeout,
		"Timeout for each broken-link probe")
	cmd.Flags().Int("link-concurrency", config.DefaultLinkConcurrency,
		"Number of concurrent broken-link probes")
	cmd.Flags().Bool("no-link-check", false,
		"Skip broken-link probing")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .seoscan in current or home directory)")
}

// addReportFlags registers the report format and destination flags.
func addReportFlags(cmd *cobra.Command) {
	names := make([]string, len(config.ReportFormats))
	for i, f := range config.ReportFormats {
		names[i] = string(f)
	}
	cmd.Flags().StringP("format", "f", string(config.FormatText),
		"Report format ("+strings.Join(names, "|")+")")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// addDBDirFlag registers the history database directory flag.
func addDBDirFlag(cmd *cobra.Command) {
	cmd.Flags().String("db-dir", "",
		"History database directory (default: $SEOSCAN_DB_DIR or the XDG data directory)")
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if cfg.ReportFormat == config.FormatXLSX && cfg.ReportFile == "" {
		return errXLSXNeedsOutput
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runAudit(ctx, cfg, auditIO{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}, false, logger)
}

// runCheckCmd executes the check command.
// A check is an audit limited to the root page that is never saved.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.MaxPages = 1
	cfg.MaxDepth = 0
	cfg.BatchSize = 1
	cfg.SaveToDB = false

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if cfg.ReportFormat == config.FormatXLSX && cfg.ReportFile == "" {
		return errXLSXNeedsOutput
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runAudit(ctx, cfg, auditIO{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}, true, logger)
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

// buildConfig creates a Config from the .env overlay and cobra command flags.
// Flags that the command does not define keep their default values.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	env, err := config.ReadEnv(config.DefaultEnvFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(env); err != nil {
		return nil, err
	}

	if err := intFlag(cmd, "max-pages", &cfg.MaxPages); err != nil {
		return nil, err
	}
	if err := intFlag(cmd, "depth", &cfg.MaxDepth); err != nil {
		return nil, err
	}
	if err := intFlag(cmd, "batch", &cfg.BatchSize); err != nil {
		return nil, err
	}
	if err := intFlag(cmd, "link-concurrency", &cfg.LinkConcurrency); err != nil {
		return nil, err
	}
	if err := durationFlag(cmd, "timeout", &cfg.Timeout); err != nil {
		return nil, err
	}
	if err := durationFlag(cmd, "probe-timeout", &cfg.ProbeTimeout); err != nil {
		return nil, err
	}
	// The delay flag only wins over SEOSCAN_CRAWL_DELAY when given explicitly.
	if f := cmd.Flags().Lookup("delay"); f != nil && f.Changed {
		if cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay"); err != nil {
			return nil, err
		}
	}
	if err := boolFlag(cmd, "respect-robots", &cfg.RespectRobots); err != nil {
		return nil, err
	}

	var noLinkCheck, noSave bool
	if err := boolFlag(cmd, "no-link-check", &noLinkCheck); err != nil {
		return nil, err
	}
	if err := boolFlag(cmd, "no-save", &noSave); err != nil {
		return nil, err
	}
	cfg.CheckLinks = !noLinkCheck
	cfg.SaveToDB = !noSave

	if f := cmd.Flags().Lookup("db-dir"); f != nil && f.Changed {
		cfg.DBDir = f.Value.String()
	}

	var format string
	if err := stringFlag(cmd, "format", &format); err != nil {
		return nil, err
	}
	if format != "" {
		if cfg.ReportFormat, err = config.ParseReportFormat(format); err != nil {
			return nil, err
		}
	}
	if err := stringFlag(cmd, "output", &cfg.ReportFile); err != nil {
		return nil, err
	}
	if err := stringFlag(cmd, "config", &cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not found.
	// If no path was specified, run without site configs when no file is found.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Targets = args

	return cfg, nil
}

func intFlag(cmd *cobra.Command, name string, dst *int) error {
	if cmd.Flags().Lookup(name) == nil {
		return nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func durationFlag(cmd *cobra.Command, name string, dst *time.Duration) error {
	if cmd.Flags().Lookup(name) == nil {
		return nil
	}
	v, err := cmd.Flags().GetDuration(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func boolFlag(cmd *cobra.Command, name string, dst *bool) error {
	if cmd.Flags().Lookup(name) == nil {
		return nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func stringFlag(cmd *cobra.Command, name string, dst *string) error {
	if cmd.Flags().Lookup(name) == nil {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// setupLogger creates a structured logger that masks cookies and tokens.
func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	return applog.NewSecureLogger(w, verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// newHTTPClient returns the client shared by the crawler and the link checker.
// Timeouts are applied per request through contexts.
func newHTTPClient() *http.Client {
	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return &http.Client{}
	}
	return &http.Client{Transport: transport.Clone()}
}

// auditIO holds where reports and progress messages go.
// Progress goes to errOut so that reports on stdout stay machine readable.
type auditIO struct {
	out    io.Writer
	errOut io.Writer
}

// runAudit audits every target in cfg.
func runAudit(ctx context.Context, cfg *config.Config, w auditIO, quick bool, logger *slog.Logger) error {
	logger.Info("starting audit",
		"targets", cfg.Targets,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.AuditDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	client := newHTTPClient()

	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchAudit(ctx, cfg, client, db, w, logger)
	}
	return runSequentialAudit(ctx, cfg, client, db, w, quick, logger)
}

// runSequentialAudit audits targets one at a time.
func runSequentialAudit(ctx context.Context, cfg *config.Config, client *http.Client, db *database.AuditDB, w auditIO, quick bool, logger *slog.Logger) error {
	for i, target := range cfg.Targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		auditReport := model.NewAuditReport(target)
		auditReport.QuickCheck = quick

		fmt.Fprintf(w.errOut, "Auditing %s...\n", target)
		startTime := time.Now()

		if err := newAuditPipeline(client, cfg, target, logger).Execute(ctx, auditReport); err != nil {
			logger.Error("audit failed", "url", target, "error", err)
			fmt.Fprintf(w.errOut, "Audit error for %s: %v\n", target, err)
		}
		fmt.Fprintf(w.errOut, "Audit completed in %s\n\n", time.Since(startTime).Round(time.Millisecond))

		if err := outputReport(cfg, auditReport, i, w.out); err != nil {
			logger.Error("report failed", "url", target, "error", err)
			return err
		}
		if err := saveAudit(ctx, db, auditReport, logger); err != nil {
			logger.Error("failed to save audit", "url", target, "error", err)
		}
	}

	return ctx.Err()
}

// runBatchAudit audits multiple targets concurrently using BatchProcessor.
// Every target gets a pipeline built from its own site configuration.
func runBatchAudit(ctx context.Context, cfg *config.Config, client *http.Client, db *database.AuditDB, w auditIO, logger *slog.Logger) error {
	fmt.Fprintf(w.errOut, "Starting batch audit of %d sites (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func(target string) *pipeline.Pipeline {
			return newAuditPipeline(client, cfg, target, logger)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	var (
		mu        sync.Mutex
		outputErr error
	)
	err := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(auditReport *model.AuditReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Fprintf(w.errOut, "[%d/%d] Audit completed: %s\n", index+1, len(cfg.Targets), auditReport.URL)

		if err := outputReport(cfg, auditReport, index, w.out); err != nil {
			logger.Error("report failed", "url", auditReport.URL, "error", err)
			if outputErr == nil {
				outputErr = err
			}
		}
		if err := saveAudit(ctx, db, auditReport, logger); err != nil {
			logger.Error("failed to save audit", "url", auditReport.URL, "error", err)
		}
	})

	fmt.Fprintf(w.errOut, "\nBatch audit completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	if err != nil {
		return err
	}
	return outputErr
}

// newAuditPipeline creates the audit pipeline for one target.
func newAuditPipeline(client *http.Client, cfg *config.Config, target string, logger *slog.Logger) *pipeline.Pipeline {
	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	}
	return pipeline.DefaultPipeline(client, pipelineOpts, pipeline.OptionsFromConfig(cfg, target)...)
}

// reportPath returns the output path for the index-th report.
// With several targets, reports after the first get a "-N" suffix
// before the extension so that they do not overwrite each other.
func reportPath(path string, index int) string {
	if path == "" || index == 0 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), index+1, ext)
}

// outputReport writes the audit report in the configured format.
// With an output file, the report goes to the file and a text summary of
// the site goes to stdout.
func outputReport(cfg *config.Config, auditReport *model.AuditReport, index int, stdout io.Writer) error {
	path := reportPath(cfg.ReportFile, index)
	if path == "" {
		writer, err := report.NewWriter(cfg.ReportFormat, stdout, getVersion(), cfg.Verbose)
		if err != nil {
			return err
		}
		if _, err := writer.Write(auditReport); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports may list pages behind authentication, so only the owner may read them.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided output path
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	fileWriter, err := report.NewWriter(cfg.ReportFormat, f, getVersion(), cfg.Verbose)
	if err != nil {
		return err
	}
	writer := report.NewMultiWriter(fileWriter, report.NewSimpleWriter(stdout, report.WithSummaryOnly()))
	if _, err := writer.Write(auditReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(stdout, "Report written to %s\n", path)
	return nil
}

// saveAudit stores the audit summary in the history database.
// If db is nil, or the audit produced no summary, this function is a no-op.
func saveAudit(ctx context.Context, db *database.AuditDB, auditReport *model.AuditReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}
	if auditReport.Summary == nil {
		logger.Warn("audit has no summary, not saving", "url", auditReport.URL)
		return nil
	}

	// Save even when the audit was interrupted.
	if err := db.SaveAudit(context.WithoutCancel(ctx), auditReport); err != nil {
		return fmt.Errorf("failed to save audit: %w", err)
	}

	logger.Info("audit saved to database", "url", auditReport.URL, "id", auditReport.ID)
	return nil
}
