package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/database"
	"github.com/spf13/cobra"
)

const testHomePage = `<html><head>
<title>Example Store - Handmade Goods and Gifts for Every Season</title>
<meta name="description" content="Handmade goods from local makers.">
</head><body>
<h1>Welcome</h1>
<p>We sell handmade goods. Every item is made by local makers.</p>
<a href="/about">About us</a>
<a href="/missing">Old catalog</a>
</body></html>`

const testAboutPage = `<html><head><title>About</title></head><body>
<h1>About</h1><p>Founded by makers.</p><a href="/">Home</a>
</body></html>`

// newTestSite starts a small site where /missing answers 404.
func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(testHomePage)) //nolint:errcheck
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(testAboutPage)) //nolint:errcheck
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// jsonAudit is the subset of the JSON report checked by the tests.
type jsonAudit struct {
	Version string `json:"version"`
	Report  struct {
		URL         string            `json:"url"`
		QuickCheck  bool              `json:"quick_check"`
		Pages       []json.RawMessage `json:"pages"`
		BrokenLinks []json.RawMessage `json:"broken_links"`
		Summary     *struct {
			HealthStatus string `json:"health_status"`
		} `json:"summary"`
	} `json:"report"`
}

// execute runs cmd with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// TestNewAuditCmd tests the audit command flags.
func TestNewAuditCmd(t *testing.T) {
	t.Parallel()

	cmd := NewAuditCmd()
	if cmd.Use != "audit [url...]" {
		t.Errorf("expected use 'audit [url...]', got %q", cmd.Use)
	}

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"max-pages", "p", "10"},
		{"depth", "d", "2"},
		{"delay", "", "500ms"},
		{"timeout", "t", "10s"},
		{"probe-timeout", "", "5s"},
		{"link-concurrency", "", "4"},
		{"no-link-check", "", "false"},
		{"respect-robots", "", "false"},
		{"batch", "b", "1"},
		{"format", "f", "text"},
		{"output", "o", ""},
		{"config", "c", ""},
		{"no-save", "", "false"},
		{"db-dir", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

// TestNewCheckCmd tests that check only exposes single-page flags.
func TestNewCheckCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCheckCmd()
	for _, name := range []string{"timeout", "no-link-check", "format", "output"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
	for _, name := range []string{"max-pages", "depth", "batch", "no-save", "db-dir"} {
		if cmd.Flags().Lookup(name) != nil {
			t.Errorf("unexpected %s flag", name)
		}
	}
}

// TestBuildConfig tests translating flags into a Config.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	parse := func(t *testing.T, cmd *cobra.Command, args ...string) (*config.Config, error) {
		t.Helper()
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		return buildConfig(cmd, cmd.Flags().Args())
	}

	t.Run("flag values", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		cfg, err := parse(t, NewAuditCmd(),
			"-p", "25", "-d", "3", "--delay", "0s", "-t", "3s", "--probe-timeout", "1s",
			"--link-concurrency", "8", "--no-link-check", "--respect-robots", "-b", "2",
			"-f", "md", "-o", "out.md", "--no-save", "--db-dir", dbDir,
			"https://example.com", "https://example.org",
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.MaxPages != 25 || cfg.MaxDepth != 3 || cfg.BatchSize != 2 || cfg.LinkConcurrency != 8 {
			t.Errorf("unexpected limits %+v", cfg)
		}
		if cfg.CrawlDelay != 0 || cfg.Timeout != 3*time.Second || cfg.ProbeTimeout != time.Second {
			t.Errorf("unexpected durations %v %v %v", cfg.CrawlDelay, cfg.Timeout, cfg.ProbeTimeout)
		}
		if cfg.CheckLinks || !cfg.RespectRobots || cfg.SaveToDB {
			t.Errorf("unexpected switches %+v", cfg)
		}
		if cfg.ReportFormat != config.FormatMarkdown || cfg.ReportFile != "out.md" {
			t.Errorf("unexpected report settings %q %q", cfg.ReportFormat, cfg.ReportFile)
		}
		if cfg.DBDir != dbDir {
			t.Errorf("expected db dir %s, got %s", dbDir, cfg.DBDir)
		}
		if len(cfg.Targets) != 2 {
			t.Errorf("expected 2 targets, got %v", cfg.Targets)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := parse(t, NewAuditCmd(), "https://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MaxPages != config.DefaultMaxPages || cfg.MaxDepth != config.DefaultMaxDepth {
			t.Errorf("unexpected defaults %+v", cfg)
		}
		if !cfg.CheckLinks || !cfg.SaveToDB || cfg.ReportFormat != config.FormatText {
			t.Errorf("unexpected defaults %+v", cfg)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()

		_, err := parse(t, NewAuditCmd(), "-f", "pdf", "https://example.com")
		if !errors.Is(err, config.ErrUnknownReportFormat) {
			t.Errorf("expected ErrUnknownReportFormat, got %v", err)
		}
	})

	t.Run("explicit config file not found", func(t *testing.T) {
		t.Parallel()

		missing := filepath.Join(t.TempDir(), "missing.yaml")
		_, err := parse(t, NewAuditCmd(), "-c", missing, "https://example.com")
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("loads config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "seoscan.yaml")
		content := "sites:\n  example.com:\n    cookie: \"session=abc\"\n    maxPages: 5\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg, err := parse(t, NewAuditCmd(), "-c", path, "https://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		site := cfg.SiteFor("https://example.com")
		if site.Cookie != "session=abc" || site.MaxPages != 5 {
			t.Errorf("unexpected site config %+v", site)
		}
	})

	t.Run("check command keeps audit defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := parse(t, NewCheckCmd(), "--no-link-check", "https://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.BatchSize != config.DefaultBatchSize || cfg.CheckLinks {
			t.Errorf("unexpected config %+v", cfg)
		}
	})
}

// TestReportPath tests output file naming for multiple targets.
func TestReportPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path  string
		index int
		want  string
	}{
		{"", 3, ""},
		{"report.md", 0, "report.md"},
		{"report.md", 1, "report-2.md"},
		{"out/report.json", 2, "out/report-3.json"},
		{"report", 1, "report-2"},
	}
	for _, tt := range tests {
		if got := reportPath(tt.path, tt.index); got != tt.want {
			t.Errorf("reportPath(%q, %d): expected %q, got %q", tt.path, tt.index, tt.want, got)
		}
	}
}

// TestRunAuditCmd tests complete audits against a local site.
func TestRunAuditCmd(t *testing.T) {
	t.Parallel()

	t.Run("JSON report and saved history", func(t *testing.T) {
		t.Parallel()

		server := newTestSite(t)
		dbDir := t.TempDir()

		stdout, stderr, err := execute(t, NewAuditCmd(),
			"--delay", "0s", "--probe-timeout", "2s", "-f", "json", "--db-dir", dbDir, server.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stderr, "Auditing "+server.URL) {
			t.Errorf("expected progress on stderr, got %q", stderr)
		}

		var got jsonAudit
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("stdout is not a JSON report: %v\n%s", err, stdout)
		}
		if got.Report.URL != server.URL+"/" {
			t.Errorf("expected url %s, got %s", server.URL+"/", got.Report.URL)
		}
		if len(got.Report.Pages) != 3 {
			t.Errorf("expected 3 pages, got %d", len(got.Report.Pages))
		}
		if len(got.Report.BrokenLinks) != 1 {
			t.Errorf("expected 1 broken link, got %d", len(got.Report.BrokenLinks))
		}
		if got.Report.Summary == nil || got.Report.Summary.HealthStatus == "" {
			t.Error("expected a summary with health status")
		}

		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		records, err := db.RecentAudits(context.Background(), 10)
		if err != nil {
			t.Fatalf("failed to read history: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 saved audit, got %d", len(records))
		}
		if records[0].BrokenLinks != 1 || records[0].PagesCrawled != 3 {
			t.Errorf("unexpected saved audit %+v", records[0])
		}
	})

	t.Run("no-save leaves no database", func(t *testing.T) {
		t.Parallel()

		server := newTestSite(t)
		dbDir := filepath.Join(t.TempDir(), "db")

		if _, _, err := execute(t, NewAuditCmd(),
			"--delay", "0s", "--no-link-check", "--no-save", "--db-dir", dbDir, server.URL+"/"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dbDir, database.DBFileName)); !os.IsNotExist(err) {
			t.Errorf("expected no database file, got %v", err)
		}
	})

	t.Run("one output file per target", func(t *testing.T) {
		t.Parallel()

		first := newTestSite(t)
		second := newTestSite(t)
		output := filepath.Join(t.TempDir(), "reports", "audit.csv")

		stdout, _, err := execute(t, NewAuditCmd(),
			"--delay", "0s", "--no-link-check", "--no-save", "-b", "2", "-f", "csv", "-o", output,
			first.URL+"/", second.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Each file gets a text summary on stdout.
		if got := strings.Count(stdout, "SITE SUMMARY"); got != 2 {
			t.Errorf("expected 2 summaries on stdout, got %d:\n%s", got, stdout)
		}
		if strings.Contains(stdout, "URL,Overall Score") {
			t.Error("expected CSV only in the report files")
		}
		for _, path := range []string{output, reportPath(output, 1)} {
			if !strings.Contains(stdout, "Report written to "+path) {
				t.Errorf("expected stdout to name %s", path)
			}
		}

		for _, path := range []string{output, reportPath(output, 1)} {
			data, err := os.ReadFile(path) //nolint:gosec // test file path
			if err != nil {
				t.Fatalf("expected report %s: %v", path, err)
			}
			if !strings.HasPrefix(string(data), "URL,Overall Score") {
				t.Errorf("unexpected CSV header in %s: %q", path, string(data))
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("failed to stat report: %v", err)
			}
			if perm := info.Mode().Perm(); perm != 0600 {
				t.Errorf("expected permissions 0600, got %o", perm)
			}
		}
	})

	t.Run("validation errors stop before crawling", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			args []string
			want error
		}{
			{"no URL", []string{"--no-save"}, config.ErrNoTarget},
			{"ftp URL", []string{"--no-save", "ftp://example.com/"}, config.ErrInvalidURL},
			{"zero pages", []string{"--no-save", "-p", "0", "https://example.com"}, config.ErrInvalidMaxPages},
			{"xlsx to stdout", []string{"--no-save", "-f", "xlsx", "https://example.com"}, errXLSXNeedsOutput},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				_, _, err := execute(t, NewAuditCmd(), tt.args...)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})
}

// TestRunCheckCmd tests the single-page quick check.
func TestRunCheckCmd(t *testing.T) {
	t.Parallel()

	server := newTestSite(t)

	stdout, _, err := execute(t, NewCheckCmd(), "--probe-timeout", "2s", "-f", "json", server.URL+"/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got jsonAudit
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("stdout is not a JSON report: %v\n%s", err, stdout)
	}
	if !got.Report.QuickCheck {
		t.Error("expected quick_check to be set")
	}
	if len(got.Report.Pages) != 1 {
		t.Errorf("expected 1 page, got %d", len(got.Report.Pages))
	}
	if len(got.Report.BrokenLinks) != 1 {
		t.Errorf("expected the 404 link on the page to be reported, got %d", len(got.Report.BrokenLinks))
	}
}
