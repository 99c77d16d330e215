package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	catalogapp "github.com/stacklok/toolhive-catalog-browser/internal/app"
	"github.com/stacklok/toolhive-catalog-browser/internal/telemetry"
)

const (
	defaultGracefulTimeout = 30 * time.Second
	defaultAddress         = ":8080"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalogs over HTTP",
		Long: `Start the catalog API server. Every enabled catalog is fetched at startup and
refreshed periodically; the seen set is committed when the server stops.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.runServe(cmd.Context(), root.v.GetString("address"))
		},
	}

	serveCmd.Flags().String("address", defaultAddress, "Address to listen on")
	if err := root.v.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		slog.Error("Failed to bind address flag", "error", err)
	}

	return serveCmd
}

func (o *rootOptions) runServe(ctx context.Context, address string) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	opts := []catalogapp.CatalogAppOptions{
		catalogapp.WithConfig(cfg),
		catalogapp.WithAddress(address),
	}
	if cfg.Telemetry != nil && cfg.Telemetry.Enabled {
		opts = append(opts,
			catalogapp.WithMeterProvider(tel.MeterProvider()),
			catalogapp.WithTracerProvider(tel.TracerProvider()),
		)
	}
	if h := tel.MetricsHandler(); h != nil {
		opts = append(opts, catalogapp.WithMetricsHandler(h))
	}

	a, err := catalogapp.NewCatalogApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create catalog browser: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- a.Start()
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errChan:
		if stopErr := a.Stop(defaultGracefulTimeout); stopErr != nil {
			slog.Error("Failed to stop catalog browser", "error", stopErr)
		}
		return err
	case sig := <-quit:
		slog.Info("Received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	if err := a.Stop(defaultGracefulTimeout); err != nil {
		return fmt.Errorf("failed to stop catalog browser: %w", err)
	}
	return <-errChan
}
