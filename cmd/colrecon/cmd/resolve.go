package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/colrecon/internal/adapters/sheet"
	"github.com/corey/colrecon/internal/domain/field"
)

var (
	resolveJSON  bool
	resolveSheet string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <file>",
	Short: "Resolve the columns of a CSV, TSV or XLSX import",
	Long: "Reads the header row and a sample of values per column, then maps each column\n" +
		"onto a canonical field using the tenant's learned history.",
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "Output as JSON")
	resolveCmd.Flags().StringVar(&resolveSheet, "sheet", "", "XLSX sheet name (default first sheet)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	reader := &sheet.Reader{Sheet: resolveSheet}
	columns, err := reader.Columns(args[0], cfg.Params.SampleSize)
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	engine, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	results, err := engine.ResolveColumns(cmd.Context(), cfg.Tenant, columns)
	if err != nil {
		return err
	}
	return printResults(cmd, results, resolveJSON)
}

func printResults(cmd *cobra.Command, results []field.MatchResult, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), results)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatResults(results))
	return nil
}
