package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/colrecon/internal/app"
)

func TestIsDBLockError(t *testing.T) {
	assert.False(t, isDBLockError(nil))
	assert.False(t, isDBLockError(errors.New("permission denied")))
	assert.True(t, isDBLockError(fmt.Errorf("open bbolt: %w", errors.New("timeout"))))
}

func TestDiagnoseDBLock_NoServe(t *testing.T) {
	p := app.NewPaths(t.TempDir())
	msg := diagnoseDBLock(p)
	assert.Contains(t, msg, "locked by another process")
}

func TestDiagnoseDBLock_ServeRunning(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	p := app.NewPaths(t.TempDir())
	require.NoError(t, p.EnsureDirs())
	addr := strings.TrimPrefix(ts.URL, "http://")
	require.NoError(t, os.WriteFile(p.AddrFile, []byte(addr+"\n"), 0644))

	msg := diagnoseDBLock(p)
	assert.Contains(t, msg, "running review API ("+addr+")")
}

func TestDiagnoseDBLock_StaleAddrFile(t *testing.T) {
	p := app.NewPaths(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Dir(p.AddrFile), 0755))
	// Nothing listens on port 1.
	require.NoError(t, os.WriteFile(p.AddrFile, []byte("127.0.0.1:1"), 0644))

	msg := diagnoseDBLock(p)
	assert.Contains(t, msg, "not responding")
	assert.Contains(t, msg, p.AddrFile)
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://colrecon:xxxxx@db:5432/recon",
		redactDSN("postgres://colrecon:s3cret@db:5432/recon"))
	assert.Equal(t, "/tmp/p/.colrecon/mappings.db", redactDSN("/tmp/p/.colrecon/mappings.db"))
}

func TestResolveColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	assert.True(t, resolveColor("always"))
	assert.False(t, resolveColor("never"))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, resolveColor("auto"))
	assert.True(t, resolveColor("always"))
}
