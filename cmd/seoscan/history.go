package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/database"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

const historyDateLayout = "2006-01-02 15:04:05"

// errNoHistory is returned by openHistory when no audit was ever saved.
var errNoHistory = errors.New("no audit history")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [site]",
		Short: "Show saved audits",
		Long: `History lists audit summaries saved in the history database.

Without arguments it shows the most recent audits of all sites. With a site
(host name or URL) it shows every audit of that site.

Examples:
  # Show the 10 most recent audits
  seoscan history

  # Show every audit of a site
  seoscan history example.com

  # List all audited sites
  seoscan history --sites

  # Remove every audit of a site
  seoscan history --delete example.com

  # Output as JSON
  seoscan history --json example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("sites", "s", false,
		"List all audited sites")
	cmd.Flags().BoolP("json", "j", false,
		"Output history in JSON format")
	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit,
		"Maximum number of audits to show")
	cmd.Flags().Bool("delete", false,
		"Delete every saved audit of the given site")
	cmd.MarkFlagsMutuallyExclusive("delete", "sites")
	cmd.MarkFlagsMutuallyExclusive("delete", "json")
	addDBDirFlag(cmd)

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listSites, err := cmd.Flags().GetBool("sites")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	if limit < 1 {
		return errors.New("--limit must be at least 1")
	}
	deleteSite, err := cmd.Flags().GetBool("delete")
	if err != nil {
		return err
	}
	if deleteSite && len(args) == 0 {
		return errors.New("--delete requires a site")
	}

	out := cmd.OutOrStdout()

	db, err := openHistory(cmd)
	if errors.Is(err, errNoHistory) {
		if jsonOutput {
			return writeJSON(out, []any{})
		}
		fmt.Fprintln(out, "No audits recorded yet.")
		fmt.Fprintln(out, "\nUse 'seoscan audit <url>' to audit a site.")
		return nil
	}
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if listSites {
		return listAuditedSites(ctx, db, out, jsonOutput)
	}
	if len(args) == 0 {
		return listRecentAudits(ctx, db, out, limit, jsonOutput)
	}

	site := config.HostOf(args[0])
	if deleteSite {
		n, err := db.DeleteSite(ctx, site)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %d audits of %s\n", n, site)
		return nil
	}
	var records []*database.AuditRecord
	if cmd.Flags().Changed("limit") {
		records, err = db.LatestAudits(ctx, site, limit)
	} else {
		records, err = db.GetAuditHistory(ctx, site)
	}
	if err != nil {
		return fmt.Errorf("failed to get audit history: %w", err)
	}
	if jsonOutput {
		return writeJSON(out, records)
	}
	if len(records) == 0 {
		fmt.Fprintf(out, "No audit history found for %s\n", site)
		fmt.Fprintln(out, "\nUse 'seoscan history --sites' to see audited sites.")
		return nil
	}

	fmt.Fprintf(out, "Audit history for %s (%d audits):\n\n", site, len(records))
	printAuditTable(out, records)
	fmt.Fprintf(out, "\nUse 'seoscan compare %s' to compare the latest two audits.\n", site)
	return nil
}

// resolveDBDir returns the history database directory: the --db-dir flag,
// then SEOSCAN_DB_DIR (process environment or .env), then the XDG data directory.
func resolveDBDir(cmd *cobra.Command) (string, error) {
	if f := cmd.Flags().Lookup("db-dir"); f != nil && f.Changed {
		return f.Value.String(), nil
	}
	cfg := config.NewConfig()
	env, err := config.ReadEnv(config.DefaultEnvFile)
	if err != nil {
		return "", err
	}
	if err := cfg.ApplyEnv(env); err != nil {
		return "", err
	}
	return cfg.DBDir, nil
}

// openHistory opens an existing history database.
// It returns errNoHistory instead of creating an empty database.
func openHistory(cmd *cobra.Command) (*database.AuditDB, error) {
	dir, err := resolveDBDir(cmd)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(dir, database.DBFileName)); errors.Is(err, os.ErrNotExist) {
		return nil, errNoHistory
	}

	db, err := database.Open(dir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// listAuditedSites prints every site that has audits in the database.
func listAuditedSites(ctx context.Context, db *database.AuditDB, out io.Writer, jsonOutput bool) error {
	sites, err := db.ListAuditedSites(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sites: %w", err)
	}
	if jsonOutput {
		return writeJSON(out, sites)
	}
	if len(sites) == 0 {
		fmt.Fprintln(out, "No audited sites found in the database.")
		return nil
	}

	fmt.Fprintf(out, "Audited sites (%d):\n\n", len(sites))
	tbl := table.New("Site", "Audits", "Last Audit").WithWriter(out)
	for _, s := range sites {
		tbl.AddRow(s.Site, s.AuditCount, s.LastAudit.Local().Format(historyDateLayout))
	}
	tbl.Print()
	fmt.Fprintln(out, "\nUse 'seoscan history <site>' to see the audits of a site.")
	return nil
}

// listRecentAudits prints the most recent audits across all sites.
func listRecentAudits(ctx context.Context, db *database.AuditDB, out io.Writer, limit int, jsonOutput bool) error {
	records, err := db.RecentAudits(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to get recent audits: %w", err)
	}
	if jsonOutput {
		return writeJSON(out, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No audits recorded yet.")
		return nil
	}

	fmt.Fprintf(out, "Recent audits (%d):\n\n", len(records))
	printAuditTable(out, records)
	return nil
}

// printAuditTable prints one row per audit. Failed audits have no scores.
func printAuditTable(out io.Writer, records []*database.AuditRecord) {
	tbl := table.New("ID", "Date", "Site", "Overall", "Health", "Pages", "Critical", "Warnings", "Broken").WithWriter(out)
	for _, r := range records {
		overall, health := "error", "-"
		if r.Valid() {
			overall = strconv.FormatFloat(r.Overall, 'f', 1, 64)
			health = string(r.Health)
		}
		tbl.AddRow(
			r.ID,
			r.Timestamp.Local().Format(historyDateLayout),
			r.Site,
			overall,
			health,
			r.PagesCrawled,
			r.Critical,
			r.Warnings,
			r.BrokenLinks,
		)
	}
	tbl.Print()
}

// writeJSON writes v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
