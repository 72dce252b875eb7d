package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/corey/colrecon/internal/domain/history"
)

var (
	historyHeader string
	historyJSON   bool

	pruneMaxAge     time.Duration
	pruneKeep       int
	pruneAllTenants bool
	pruneDryRun     bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and prune learned mappings",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tenant's learned mappings, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop superseded mappings by age or count",
	Long: "Applies the retention policy from config, overridden by flags. The newest\n" +
		"mapping of every header is always kept.",
	Args: cobra.NoArgs,
	RunE: runHistoryPrune,
}

func init() {
	historyListCmd.Flags().StringVar(&historyHeader, "header", "", "Only mappings for this header (any spelling)")
	historyListCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")

	f := historyPruneCmd.Flags()
	f.DurationVar(&pruneMaxAge, "max-age", 0, "Drop superseded mappings older than this (e.g. 720h)")
	f.IntVar(&pruneKeep, "keep", 0, "Keep at most N mappings per header")
	f.BoolVar(&pruneAllTenants, "all-tenants", false, "Prune every tenant in the store")
	f.BoolVar(&pruneDryRun, "dry-run", false, "Report what would be removed")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyPruneCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	engine, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	recs, err := engine.Mappings(cmd.Context(), cfg.Tenant, historyHeader)
	if err != nil {
		return err
	}
	if historyJSON {
		return writeJSON(cmd.OutOrStdout(), recs)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatRecords(cfg.Tenant, recs))
	return nil
}

// prunePolicy returns the configured policy with flag overrides applied.
func prunePolicy(cmd *cobra.Command) history.Policy {
	p := cfg.Retention.Policy
	if cmd.Flags().Changed("max-age") {
		p.MaxAge = pruneMaxAge
	}
	if cmd.Flags().Changed("keep") {
		p.KeepPerHeader = pruneKeep
	}
	return p
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	p := prunePolicy(cmd)
	if !p.Enabled() {
		return errors.New("nothing to prune: set --max-age or --keep, or retention in config")
	}
	if pruneDryRun && pruneAllTenants {
		return errors.New("--dry-run works on one tenant at a time")
	}

	engine, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	now := time.Now().UTC()
	out := cmd.OutOrStdout()
	switch {
	case pruneDryRun:
		recs, err := engine.Mappings(cmd.Context(), cfg.Tenant, "")
		if err != nil {
			return err
		}
		keys := history.Expired(recs, p, now)
		fmt.Fprintf(out, "⚡ would remove %d of %d mappings for tenant %s\n", len(keys), len(recs), cfg.Tenant)
	case pruneAllTenants:
		n, err := engine.PruneAll(cmd.Context(), p, now)
		fmt.Fprintf(out, "⚡ removed %d mappings across all tenants\n", n)
		return err
	default:
		n, err := engine.Prune(cmd.Context(), cfg.Tenant, p, now)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "⚡ removed %d mappings for tenant %s\n", n, cfg.Tenant)
	}
	return nil
}
