package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/corey/colrecon/internal/adapters/fsnotify"
	"github.com/corey/colrecon/internal/adapters/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the review API",
	Long: "Serves resolve, confirm and history over HTTP. Reloads the alias overlay on\n" +
		"change and prunes history on the configured retention schedule.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := paths.EnsureDirs(); err != nil {
		return err
	}
	addr := cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	logger := slog.Default()

	engine, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	if cfg.AliasDir != "" {
		w, err := fsnotify.NewWatcher(logger)
		if err != nil {
			return fmt.Errorf("alias watcher: %w", err)
		}
		if err := engine.WatchAliases(w); err != nil {
			w.Stop()
			return err
		}
	}
	if cfg.Retention.Schedule != "" {
		if err := engine.StartRetention(cfg.Retention.Schedule, cfg.Retention.Policy); err != nil {
			return err
		}
	}

	srv := web.NewServer(engine, logger, paths.AddrFile)
	if err := srv.Start(addr); err != nil {
		return err
	}
	fmt.Printf("⚡ review API on %s (tenant default %s, %d aliases)\n",
		srv.URL(), cfg.Tenant, engine.Dictionary().Len())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\n⚡ shutting down...")
	srv.Stop()
	paths.CleanEphemeral()
	return nil
}
