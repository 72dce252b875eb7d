package cmd

import (
	"github.com/spf13/cobra"

	"github.com/corey/colrecon/internal/ports"
)

var (
	matchSamples []string
	matchJSON    bool
)

var matchCmd = &cobra.Command{
	Use:   "match <header>...",
	Short: "Resolve header strings without a file",
	Long:  "Resolves each header as its own column. --sample values apply to every header.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMatch,
}

func init() {
	matchCmd.Flags().StringArrayVarP(&matchSamples, "sample", "s", nil, "Sample value (repeatable)")
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "Output as JSON")
}

func runMatch(cmd *cobra.Command, args []string) error {
	columns := make([]ports.Column, len(args))
	for i, h := range args {
		columns[i] = ports.Column{Header: h, Sample: matchSamples}
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
	return printResults(cmd, results, matchJSON)
}
