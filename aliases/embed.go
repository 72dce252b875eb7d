// Package aliases embeds the curated header alias table for compile-time inclusion.
// Each YAML file lists canonical fields with their known Arabic and English
// header spellings. Files load in name order; that order is the tie-break rank.
//
// Usage:
//
//	dictionary.Load(aliases.FS, "v1")
package aliases

import "embed"

//go:embed v1/*.yaml
var FS embed.FS
