package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show resolved configuration",
	Long:  "Shows paths, serve status and the effective config after file, .env and environment layering.",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	serveStatus := paint(colorYellow, "✗ not running")
	if data, err := os.ReadFile(paths.AddrFile); err == nil {
		addr := strings.TrimSpace(string(data))
		if serveResponds(addr) {
			serveStatus = paint(colorGreen, "✓ running on http://"+addr)
		}
	}

	fmt.Fprintln(out, paint(colorBold, "⚡ colrecon config"))
	fmt.Fprintf(out, "  Root:       %s\n", paths.Root)
	fmt.Fprintf(out, "  Config:     %s\n", paths.Config)
	fmt.Fprintf(out, "  Env file:   %s\n", paths.EnvFile)
	fmt.Fprintf(out, "  Serve:      %s\n", serveStatus)
	fmt.Fprintln(out)

	shown := cfg
	shown.DSN = redactDSN(shown.DSN)
	data, err := yaml.Marshal(shown)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// redactDSN masks the password of a URL-style DSN.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
