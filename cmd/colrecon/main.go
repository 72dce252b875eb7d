// colrecon maps bilingual (Arabic/English) import column headers onto
// canonical business fields and learns from confirmed mappings.
package main

import (
	"os"

	"github.com/corey/colrecon/cmd/colrecon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
