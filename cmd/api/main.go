package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbanfrill/storefront/internal/config"
	"github.com/urbanfrill/storefront/internal/logger"
	"github.com/urbanfrill/storefront/pkg/closer"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "storefront-api",
	Short: "Serve the UrbanFrill storefront API",
	Long: `storefront-api serves the catalog, per-device carts, accounts, checkout
and order lookup over HTTP. Every backend is selected in the config file or
through environment variables; the defaults run entirely in memory.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level with development output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateAuth(); err != nil {
		return err
	}
	if verbose {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := closer.New(cfg.HTTP.ShutdownTimeout)

	app, err := build(ctx, cfg, log, shutdown)
	if err != nil {
		closeAll(shutdown, cfg, log)
		return err
	}

	go app.registry.Run(ctx)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      app.router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	shutdown.Add(srv.Shutdown)

	log.Info("Storefront API starting",
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("store", cfg.Store.Backend),
		zap.String("local", cfg.Local.Backend),
		zap.String("files", cfg.Files.Backend),
		zap.Bool("events", len(cfg.Kafka.Brokers) > 0),
		zap.Bool("sso", cfg.Firebase.EnableSSO),
	)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err = <-serveErr:
		log.Error("HTTP server failed", zap.Error(err))
	}

	closeAll(shutdown, cfg, log)
	return err
}

func closeAll(shutdown *closer.Closer, cfg *config.Config, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Close(ctx); err != nil {
		log.Error("Shutdown incomplete", zap.Error(err))
		return
	}
	log.Info("Storefront API stopped")
}
