package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/eshop-basket/pkg/ratelimit"
)

// BasketAPIConfig configures the basket-api process, loadable from
// environment variables (BASKET_ prefix), flags, or YAML config files.
type BasketAPIConfig struct {
	GRPCAddr    string `default:"0.0.0.0:5221" usage:"gRPC listen address" flag:"grpc-addr"`
	HealthAddr  string `default:"0.0.0.0:8081" usage:"Health probe listen address" flag:"health-addr"`
	DatabaseURL string `usage:"PostgreSQL connection URL; empty keeps baskets in memory (BASKET_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RateLimit   ratelimit.Config
	Graceful    GracefulConfig
}

// WebappConfig configures the webapp process, loadable from environment
// variables (WEBAPP_ prefix), flags, or YAML config files.
type WebappConfig struct {
	Addr        string        `default:"0.0.0.0:8080" usage:"HTTP listen address"`
	BasketAddr  string        `default:"localhost:5221" usage:"Basket service gRPC address" flag:"basket-addr"`
	DatabaseURL string        `usage:"Catalog PostgreSQL connection URL (WEBAPP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	OrderingURL string        `usage:"Base URL of the ordering service" flag:"ordering-url"`
	SessionTTL  time.Duration `default:"30m" usage:"Idle time after which a shopper session is dropped" flag:"session-ttl"`
	RateLimit   ratelimit.Config
	Graceful    GracefulConfig
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadBasketAPIConfig loads the basket-api configuration.
func LoadBasketAPIConfig() (*BasketAPIConfig, error) {
	return loadBasketAPIConfig(os.Args[1:])
}

func loadBasketAPIConfig(args []string) (*BasketAPIConfig, error) {
	var cfg BasketAPIConfig
	if err := load(&cfg, "BASKET", "/etc/eshop/basket.yaml", args); err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return &cfg, nil
}

// LoadWebappConfig loads the webapp configuration.
func LoadWebappConfig() (*WebappConfig, error) {
	return loadWebappConfig(os.Args[1:])
}

func loadWebappConfig(args []string) (*WebappConfig, error) {
	var cfg WebappConfig
	if err := load(&cfg, "WEBAPP", "/etc/eshop/webapp.yaml", args); err != nil {
		return nil, err
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set WEBAPP_DATABASE_URL or DATABASE_URL")
	}
	if cfg.OrderingURL == "" {
		return nil, errors.New("ordering URL is required: set WEBAPP_ORDERING_URL")
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the platform-provided DATABASE_URL and PORT to
// the WEBAPP_-prefixed configuration.
func (c *WebappConfig) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

func load(dst any, prefix, systemFile string, args []string) error {
	loader := aconfig.LoaderFor(dst, aconfig.Config{
		EnvPrefix: prefix,
		Args:      args,
		Files:     []string{"config.yaml", systemFile},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return errors.Wrap(err, "load config")
	}
	return nil
}
