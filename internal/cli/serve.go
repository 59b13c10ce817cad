package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tdewaele/bilaudit/internal/api"
	"github.com/tdewaele/bilaudit/internal/audit"
	"github.com/tdewaele/bilaudit/internal/seed"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the audit HTTP API",
	Long: `Serve starts the HTTP API on the configured address. On startup the
store is seeded with the Demoville demo dataset unless it already holds
data, and audit runs requested over the API execute on a background
worker pool.

Example:
  bilaudit serve
  bilaudit serve --addr :8080 --store sqlite --db audits.db`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :5000)")
	serveCmd.Flags().String("store", "", "store driver: memory or sqlite")
	serveCmd.Flags().String("db", "", "sqlite database path")
	serveCmd.Flags().String("data", "", "data directory with seeds and scoring rules")
	serveCmd.Flags().String("rules", "", "scoring rules file (default <data>/scoring_rules.yaml)")
}

func runServe(cmd *cobra.Command, args []string) error {
	bindStoreFlags(cmd)
	settings, err := loadSettings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	log := newServerLogger()

	st, closeStore, err := openStore(settings, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	if err := seed.IfEmpty(st, settings.Data.Dir, log); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}

	cfg := loadRules(settings)
	runner := audit.NewRunner(st, cfg, buildProviderConfig(settings, log), log)
	launcher := audit.NewLauncher(runner, settings.Audit.Workers, log)
	launcher.Start()
	defer launcher.Shutdown()

	router := api.NewRouter(&api.Handler{Store: st, Launcher: launcher})
	srv := &http.Server{
		Addr:              settings.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", settings.Server.Addr, "store", settings.Store.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
