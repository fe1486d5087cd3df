package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/database"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

const compareDateLayout = "2006-01-02 15:04"

// NewCompareCmd creates the compare command.
// This command compares audit summaries stored in the history database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [site]",
		Short: "Compare the latest audit of a site with an earlier one",
		Long: `Compare displays differences between two saved audits of a site.

It shows:
- Score changes for overall, technical, content and accessibility
- Changes in critical issues, warnings and broken links
- Common issues that appeared or were resolved since the earlier audit

By default the latest two audits are compared. Use --with-audit-id to
compare the latest audit with a specific earlier one ('seoscan history
<site>' lists audit IDs).

Examples:
  # Compare latest two audits
  seoscan compare example.com

  # Compare with a specific audit
  seoscan compare -i 0b6f6a52-5f4e-4c1b-9d55-3f0c0f4f7a11 example.com

  # Output comparison in Markdown format
  seoscan compare --markdown example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().StringP("with-audit-id", "i", "",
		"Compare with a specific audit by ID (use 'seoscan history <site>' to see IDs)")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	addDBDirFlag(cmd)

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	withAuditID, err := cmd.Flags().GetString("with-audit-id")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	site := config.HostOf(args[0])

	db, err := openHistory(cmd)
	if errors.Is(err, errNoHistory) {
		return fmt.Errorf("no audit history found for %s", site)
	}
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	comparison, err := loadComparison(ctx, db, site, withAuditID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return writeJSON(out, comparison)
	case markdownOutput:
		return writeComparisonMarkdown(out, comparison)
	default:
		writeComparisonText(out, comparison)
		return nil
	}
}

// loadComparison picks the two audits to compare and compares them.
func loadComparison(ctx context.Context, db *database.AuditDB, site, withAuditID string) (*database.Comparison, error) {
	latest, err := db.LatestAudits(ctx, site, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	if len(latest) == 0 {
		return nil, fmt.Errorf("no audit history found for %s", site)
	}
	current := latest[0]

	if withAuditID == "" {
		if len(latest) < 2 {
			return nil, fmt.Errorf("at least 2 audits are required for comparison (found %d)", len(latest))
		}
		return database.Compare(latest[1], current), nil
	}

	previous, err := db.GetAuditByID(ctx, withAuditID)
	if err != nil {
		return nil, err
	}
	if previous.Site != site {
		return nil, fmt.Errorf("audit %s belongs to %s, not %s", withAuditID, previous.Site, site)
	}
	if previous.ID == current.ID {
		return nil, fmt.Errorf("audit %s is the latest audit; choose an earlier one", withAuditID)
	}
	return database.Compare(previous, current), nil
}

// writeComparisonText prints a human-readable comparison.
func writeComparisonText(out io.Writer, c *database.Comparison) {
	fmt.Fprintf(out, "Audit comparison for %s\n\n", c.Site)
	fmt.Fprintf(out, "  Previous: %s (%s)\n", c.Previous.Timestamp.Local().Format(compareDateLayout), c.Previous.ID)
	fmt.Fprintf(out, "  Current:  %s (%s)\n", c.Current.Timestamp.Local().Format(compareDateLayout), c.Current.ID)
	fmt.Fprintf(out, "  Trend:    %s\n\n", trendText(c.Trend))

	tbl := table.New("Metric", "Previous", "Current", "Change").WithWriter(out)
	for _, row := range comparisonRows(c) {
		tbl.AddRow(row[0], row[1], row[2], row[3])
	}
	tbl.Print()

	if c.HealthChanged {
		fmt.Fprintf(out, "\nHealth changed: %s -> %s\n", healthText(c.Previous), healthText(c.Current))
	}

	if len(c.NewIssues) > 0 {
		fmt.Fprintf(out, "\nNew issues (%d):\n", len(c.NewIssues))
		for _, ic := range c.NewIssues {
			fmt.Fprintf(out, "  [+] %s (%d pages)\n", ic.Issue, ic.Count)
		}
	}
	if len(c.ResolvedIssues) > 0 {
		fmt.Fprintf(out, "\nResolved issues (%d):\n", len(c.ResolvedIssues))
		for _, ic := range c.ResolvedIssues {
			fmt.Fprintf(out, "  [-] %s\n", ic.Issue)
		}
	}
	if len(c.NewIssues) == 0 && len(c.ResolvedIssues) == 0 {
		fmt.Fprintln(out, "\nNo changes in common issues.")
	}
}

// writeComparisonMarkdown renders the comparison as GitHub flavored Markdown.
func writeComparisonMarkdown(out io.Writer, c *database.Comparison) error {
	md := markdown.NewMarkdown(out)

	md.H1("Audit Comparison: " + c.Site)
	md.PlainText("")

	switch c.Trend {
	case database.TrendImproved:
		md.Tip("SEO score improved since the previous audit.")
	case database.TrendDeclined:
		md.Warning("SEO score declined since the previous audit.")
	default:
		md.Note("SEO score is unchanged since the previous audit.")
	}
	md.PlainText("")

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows:   append([][]string{{"Date", c.Previous.Timestamp.Local().Format(compareDateLayout), c.Current.Timestamp.Local().Format(compareDateLayout), "-"}}, comparisonRows(c)...),
	})
	md.PlainText("")

	if c.HealthChanged {
		md.PlainTextf("Health changed from **%s** to **%s**.", healthText(c.Previous), healthText(c.Current))
		md.PlainText("")
	}

	if len(c.NewIssues) > 0 {
		md.H2(fmt.Sprintf("New Issues (%d)", len(c.NewIssues)))
		md.PlainText("")
		items := make([]string, len(c.NewIssues))
		for i, ic := range c.NewIssues {
			items[i] = fmt.Sprintf("%s (%d pages)", ic.Issue, ic.Count)
		}
		md.BulletList(items...)
		md.PlainText("")
	}
	if len(c.ResolvedIssues) > 0 {
		md.H2(fmt.Sprintf("Resolved Issues (%d)", len(c.ResolvedIssues)))
		md.PlainText("")
		items := make([]string, len(c.ResolvedIssues))
		for i, ic := range c.ResolvedIssues {
			items[i] = ic.Issue
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	return md.Build()
}

// comparisonRows returns the metric rows shared by the text and Markdown output.
func comparisonRows(c *database.Comparison) [][]string {
	p, q := c.Previous, c.Current
	return [][]string{
		{"Overall", scoreText(p, p.Overall), scoreText(q, q.Overall), formatScoreDelta(c.Scores.Overall)},
		{"Technical SEO", scoreText(p, p.Technical), scoreText(q, q.Technical), formatScoreDelta(c.Scores.Technical)},
		{"Content SEO", scoreText(p, p.Content), scoreText(q, q.Content), formatScoreDelta(c.Scores.Content)},
		{"Accessibility", scoreText(p, p.Accessibility), scoreText(q, q.Accessibility), formatScoreDelta(c.Scores.Accessibility)},
		{"Pages", strconv.Itoa(p.PagesCrawled), strconv.Itoa(q.PagesCrawled), formatDelta(q.PagesCrawled - p.PagesCrawled)},
		{"Critical issues", strconv.Itoa(p.Critical), strconv.Itoa(q.Critical), formatDelta(c.CriticalDelta)},
		{"Warnings", strconv.Itoa(p.Warnings), strconv.Itoa(q.Warnings), formatDelta(c.WarningsDelta)},
		{"Broken links", strconv.Itoa(p.BrokenLinks), strconv.Itoa(q.BrokenLinks), formatDelta(c.BrokenLinksDelta)},
	}
}

func scoreText(r *database.AuditRecord, v float64) string {
	if !r.Valid() {
		return "error"
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func healthText(r *database.AuditRecord) string {
	if r.Health == "" {
		return "unknown"
	}
	return string(r.Health)
}

func trendText(trend string) string {
	switch trend {
	case database.TrendImproved:
		return "improved ▲"
	case database.TrendDeclined:
		return "declined ▼"
	default:
		return "unchanged"
	}
}

// formatDelta formats an integer change with an explicit sign.
func formatDelta(delta int) string {
	if delta > 0 {
		return fmt.Sprintf("+%d", delta)
	}
	return strconv.Itoa(delta)
}

// formatScoreDelta formats a score change with one decimal and an explicit sign.
func formatScoreDelta(delta float64) string {
	if delta > 0 {
		return "+" + strconv.FormatFloat(delta, 'f', 1, 64)
	}
	if delta == 0 {
		return "0.0"
	}
	return strconv.FormatFloat(delta, 'f', 1, 64)
}
