package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	p := NewPaths("/project")
	assert.Equal(t, filepath.Join("/project", ".colrecon"), p.Root)
	assert.Equal(t, filepath.Join("/project", ".colrecon", "config.yaml"), p.Config)
	assert.Equal(t, filepath.Join("/project", ".colrecon", "mappings.db"), p.DB)
	assert.Equal(t, filepath.Join("/project", ".colrecon", "mappings.sqlite"), p.SQLite)
	assert.Equal(t, filepath.Join("/project", ".colrecon", "aliases"), p.AliasDir)
	assert.Equal(t, filepath.Join("/project", ".colrecon", "run"), p.RunDir)
	assert.Equal(t, filepath.Join("/project", ".colrecon", "run", "http.addr"), p.AddrFile)
	assert.Equal(t, filepath.Join("/project", ".env"), p.EnvFile)
}

func TestEnsureDirs(t *testing.T) {
	dir := t.TempDir()
	p := NewPaths(dir)

	// First call creates directories.
	require.NoError(t, p.EnsureDirs())
	for _, d := range []string{p.Root, p.AliasDir, p.RunDir} {
		info, err := os.Stat(d)
		require.NoError(t, err, "dir %s should exist", d)
		assert.True(t, info.IsDir())
	}

	// Second call is idempotent.
	require.NoError(t, p.EnsureDirs())
}

func TestCleanEphemeral(t *testing.T) {
	p := NewPaths(t.TempDir())
	require.NoError(t, p.EnsureDirs())
	require.NoError(t, os.WriteFile(p.AddrFile, []byte("127.0.0.1:8080"), 0644))

	p.CleanEphemeral()
	_, err := os.Stat(p.AddrFile)
	assert.True(t, os.IsNotExist(err))

	// Missing file is fine.
	p.CleanEphemeral()
}
