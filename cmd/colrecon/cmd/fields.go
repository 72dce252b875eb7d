package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/colrecon/internal/adapters/web"
	"github.com/corey/colrecon/internal/domain/field"
)

var fieldsJSON bool

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List canonical fields and their alias counts",
	Args:  cobra.NoArgs,
	RunE:  runFields,
}

func init() {
	fieldsCmd.Flags().BoolVar(&fieldsJSON, "json", false, "Output as JSON")
}

func runFields(cmd *cobra.Command, args []string) error {
	engine, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	counts := engine.Dictionary().Counts()
	if fieldsJSON {
		result := web.FieldsResult{Fields: make([]web.FieldInfo, 0, len(field.All()))}
		for _, f := range field.All() {
			result.Fields = append(result.Fields, web.FieldInfo{Field: string(f), Aliases: counts[f]})
		}
		result.Count = len(result.Fields)
		return writeJSON(cmd.OutOrStdout(), result)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatFields(counts))
	return nil
}
