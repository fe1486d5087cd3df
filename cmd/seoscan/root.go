package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for seoscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seoscan",
		Short: "SEO auditing tool for websites",
		Long: `seoscan crawls a website and scores every page for technical SEO,
content quality and accessibility. It reports broken links, the most
common issues across the site and prioritized advice.

Audit summaries are saved to a local SQLite history so that later
audits can be compared with earlier ones.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
