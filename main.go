package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vendalivre/frete/internal/quotestore"
	"github.com/vendalivre/frete/internal/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "frete",
	Short:   "Venda Livre freight API - quote shipping and manage the catalog",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	metrics := initMetrics()
	provider := initProvider(cfg, logger, tracer)

	stores, err := initStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	logger.Info("Starting freight API",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Bool("mock_carrier", cfg.MelhorEnvioUseMock),
	)

	pipeline := initPipeline(stores, provider, logger, metrics)
	srv := server.New(server.Config{
		Port:        cfg.Port,
		CORSOrigins: cfg.CORSOrigins,
	}, pipeline, stores.Products, logger, metrics)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	g.Go(func() error {
		return quotestore.RunSweeper(ctx, stores.Quotes, cfg.SweepInterval, logger)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
