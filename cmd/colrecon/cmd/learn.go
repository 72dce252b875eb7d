package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/colrecon/internal/domain/field"
	"github.com/corey/colrecon/internal/domain/history"
)

var (
	learnConfidence float64
	learnSource     string
)

var learnCmd = &cobra.Command{
	Use:   "learn <header> <field>",
	Short: "Record a confirmed header → field mapping",
	Long:  "Stores the mapping in the tenant's history. It applies from the next resolve on.",
	Args:  cobra.ExactArgs(2),
	RunE:  runLearn,
}

func init() {
	learnCmd.Flags().Float64Var(&learnConfidence, "confidence", history.DefaultConfidence, "Confidence of the mapping (0-1]")
	learnCmd.Flags().StringVar(&learnSource, "source", history.DefaultSource, "Who confirmed the mapping")
}

func runLearn(cmd *cobra.Command, args []string) error {
	engine, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	rec, err := engine.Confirm(cmd.Context(), cfg.Tenant, args[0], field.Field(args[1]), learnConfidence, learnSource)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "⚡ learned %s → %s (%.2f) for tenant %s\n",
		rec.OriginalHeader, paint(colorGreen, rec.Field), rec.Confidence, rec.Tenant)
	return nil
}
