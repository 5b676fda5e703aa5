package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port        int      `envconfig:"PORT" default:"8080"`
	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	// Storage. When empty the service runs on in-memory stores, which is
	// only useful together with the mock carrier.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Quote cache
	SweepInterval time.Duration `envconfig:"QUOTE_SWEEP_INTERVAL" default:"1h"`

	// Melhor Envio
	MelhorEnvioToken     string `envconfig:"MELHORENVIO_TOKEN"`
	MelhorEnvioBaseURL   string `envconfig:"MELHORENVIO_BASE_URL" default:"https://sandbox.melhorenvio.com.br"`
	MelhorEnvioUserAgent string `envconfig:"MELHORENVIO_USER_AGENT" default:"frete-api (suporte@vendalivre.com.br)"`
	MelhorEnvioUseMock   bool   `envconfig:"MELHORENVIO_USE_MOCK" default:"false"`
	OriginCEP            string `envconfig:"ORIGIN_CEP" default:"90570020"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"frete-api"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if !cfg.MelhorEnvioUseMock && cfg.MelhorEnvioToken == "" {
		return nil, fmt.Errorf("MELHORENVIO_TOKEN is required unless MELHORENVIO_USE_MOCK is set")
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("melhorenvio.mock", c.MelhorEnvioUseMock),
	}
}
