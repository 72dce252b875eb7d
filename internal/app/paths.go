package app

import (
	"os"
	"path/filepath"
)

// Paths holds all resolved filesystem paths for the .colrecon/ project directory.
// All fields are pre-computed strings.
type Paths struct {
	Root   string // .colrecon/
	Config string // .colrecon/config.yaml
	DB     string // .colrecon/mappings.db (bbolt)
	SQLite string // .colrecon/mappings.sqlite

	AliasDir string // .colrecon/aliases/ (operator overlay, optional)

	RunDir   string // .colrecon/run/
	AddrFile string // .colrecon/run/http.addr

	EnvFile string // <project>/.env
}

// NewPaths constructs all resolved paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, ".colrecon")
	return &Paths{
		Root:   root,
		Config: filepath.Join(root, "config.yaml"),
		DB:     filepath.Join(root, "mappings.db"),
		SQLite: filepath.Join(root, "mappings.sqlite"),

		AliasDir: filepath.Join(root, "aliases"),

		RunDir:   filepath.Join(root, "run"),
		AddrFile: filepath.Join(root, "run", "http.addr"),

		EnvFile: filepath.Join(projectRoot, ".env"),
	}
}

// EnsureDirs creates all subdirectories under .colrecon/. Idempotent.
func (p *Paths) EnsureDirs() error {
	for _, d := range []string{p.Root, p.AliasDir, p.RunDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// CleanEphemeral removes runtime files written by serve.
// Called on clean shutdown.
func (p *Paths) CleanEphemeral() {
	os.Remove(p.AddrFile)
}
