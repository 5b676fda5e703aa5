package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/vendalivre/frete/internal/config"
	"github.com/vendalivre/frete/internal/db"
	"github.com/vendalivre/frete/internal/product"
	"github.com/vendalivre/frete/internal/quote"
	"github.com/vendalivre/frete/internal/quotestore"
	"github.com/vendalivre/frete/internal/telemetry"
	"github.com/vendalivre/frete/pkg/freight"
	"github.com/vendalivre/frete/pkg/freight/melhorenvio"
	"go.opentelemetry.io/otel/trace"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

func initMetrics() *telemetry.Metrics {
	return telemetry.NewMetrics()
}

func initProvider(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) freight.RateProvider {
	return melhorenvio.New(melhorenvio.Config{
		Token:     cfg.MelhorEnvioToken,
		BaseURL:   cfg.MelhorEnvioBaseURL,
		UserAgent: cfg.MelhorEnvioUserAgent,
		OriginCEP: cfg.OriginCEP,
		UseMock:   cfg.MelhorEnvioUseMock,
	}, logger, tracer)
}

// Stores bundles the persistence layer. Either both stores run on Postgres
// or both run in memory.
type Stores struct {
	Quotes   quotestore.Store
	Products product.Store

	pool *pgxpool.Pool
}

// Close releases the connection pool, if any.
func (s *Stores) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func initStores(ctx context.Context, cfg *config.Config, logger *otelzap.Logger) (*Stores, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL is not set, quotes and products will not survive restarts")
		return &Stores{
			Quotes:   quotestore.NewMemory(),
			Products: product.NewMemory(),
		}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	quotes := quotestore.NewPostgres(pool, logger)
	if err := quotes.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	products := product.NewPostgres(pool)
	if err := products.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Stores{Quotes: quotes, Products: products, pool: pool}, nil
}

func initPipeline(stores *Stores, provider freight.RateProvider, logger *otelzap.Logger, metrics *telemetry.Metrics) *quote.Pipeline {
	return quote.New(stores.Quotes, provider, logger, metrics)
}
