package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrynk/scrynk/api"
	"github.com/scrynk/scrynk/client"
	"github.com/scrynk/scrynk/notify"
	"github.com/scrynk/scrynk/session"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web front end",
		Long: `Serve starts the HTTP server with the landing, extract, results and
status pages. It shuts down gracefully on SIGINT or SIGTERM.`,
		RunE: runServeCmd,
	}

	cmd.Flags().String("host", "", "Listen host (overrides config)")
	cmd.Flags().Int("port", 0, "Listen port (overrides config)")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	// ── 1. Load configuration and logging ───────────────────────────
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}

	slog.Info("scrynk starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"upstream", cfg.API.BaseURL,
		"apiTimeout", cfg.API.Timeout,
	)

	// ── 2. Wire dependencies ────────────────────────────────────────
	store := session.New(cfg.Session.TTL, cfg.Session.MaxEntries)
	defer store.Close()

	upstream := client.New(cfg.API)
	router, err := api.NewRouter(cfg, upstream, store, notify.NewFlash(store), time.Now())
	if err != nil {
		return err
	}

	// ── 3. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// ── 4. Graceful shutdown ────────────────────────────────────────
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// In-flight extractions can be long; give them a bounded grace period.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("scrynk stopped")
	return nil
}
