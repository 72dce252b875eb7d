package cmd

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/corey/colrecon/internal/app"
)

// isDBLockError returns true if the error chain contains a bbolt lock timeout.
// bbolt returns the string "timeout" when it cannot acquire the file lock
// within the configured deadline.
func isDBLockError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "timeout")
}

// diagnoseDBLock returns actionable guidance when a bbolt open fails due to
// lock contention. It distinguishes three scenarios: serve running, stale
// address file, and unknown lock holder.
func diagnoseDBLock(p *app.Paths) string {
	data, err := os.ReadFile(p.AddrFile)
	if err != nil {
		return "history database is locked by another process\n" +
			"  → find the process:  ps aux | grep colrecon\n" +
			"  → stop it, then retry your command"
	}

	addr := strings.TrimSpace(string(data))
	if serveResponds(addr) {
		return fmt.Sprintf("history database is locked by the running review API (%s)\n"+
			"  → use the API:  curl http://%s/api/health\n"+
			"  → or stop serve, then retry your command", addr, addr)
	}

	return fmt.Sprintf("history database is locked; serve address file exists but %s is not responding\n"+
		"  → a previous serve may have crashed\n"+
		"  → find the process:  ps aux | grep 'colrecon serve'\n"+
		"  → clean up:          rm %s", addr, p.AddrFile)
}

func serveResponds(addr string) bool {
	client := http.Client{Timeout: 500 * time.Millisecond}
	resp, err := client.Get("http://" + addr + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
