// Package config defines the terminal's configuration: the symbol/venue
// pair the CLI resolves into an exchange.Adapter, per-venue credentials, and
// the ambient logging/API settings. Loaded from an optional YAML file with
// credentials and log settings overridable via environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Venue tags, matching the string each exchange package's New expects to be
// selected by at the CLI layer.
const (
	VenueBinanceUSDTFutures = "binance-usdt-futures"
	VenueBinanceSpot        = "binance-spot"
	VenueBinanceUSSpot      = "binance-us-spot"
	VenueGateIOUSDFutures   = "gateio-usd-futures"
)

// Config is the top-level configuration.
type Config struct {
	Symbol         string `mapstructure:"symbol"`
	Venue          string `mapstructure:"venue"`
	CandleCapacity int    `mapstructure:"candle_capacity"`
	DepthLimit     int    `mapstructure:"depth_limit"`

	Binance   VenueCredentials `mapstructure:"binance"`
	BinanceUS VenueCredentials `mapstructure:"binance_us"`
	GateIO    VenueCredentials `mapstructure:"gateio"`

	Logging LoggingConfig `mapstructure:"logging"`
	API     APIConfig     `mapstructure:"api"`
}

// VenueCredentials holds an API key pair. Binance USD-M Futures and Binance
// Spot share one Binance.com account and so share Binance's credentials;
// Binance US and Gate.io each have their own. Either field empty means the
// adapter runs unauthenticated (market data only).
type VenueCredentials struct {
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LoggingConfig controls the operator-facing slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// APIConfig controls the read-only snapshot/WS HTTP surface.
type APIConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("venue", VenueBinanceUSDTFutures)
	v.SetDefault("candle_capacity", 500)
	v.SetDefault("depth_limit", 1000)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("api.enabled", false)
	v.SetDefault("api.port", 8787)
}

// Load reads config from a YAML file at path, if it exists, then layers
// environment variables on top. path may be empty, in which case only
// defaults and the environment apply — the CLI is usable with zero files.
//
// Credential env vars: BINANCE_ACCESS_KEY/BINANCE_SECRET_KEY,
// BINANCE_US_ACCESS_KEY/BINANCE_US_SECRET_KEY,
// GATEIO_ACCESS_KEY/GATEIO_SECRET_KEY. Logging: LOG_LEVEL, LOG_FORMAT.
func Load(path string) (*Config, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	bindCredential(&cfg.Binance, "BINANCE_ACCESS_KEY", "BINANCE_SECRET_KEY")
	bindCredential(&cfg.BinanceUS, "BINANCE_US_ACCESS_KEY", "BINANCE_US_SECRET_KEY")
	bindCredential(&cfg.GateIO, "GATEIO_ACCESS_KEY", "GATEIO_SECRET_KEY")

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	return &cfg, nil
}

func bindCredential(c *VenueCredentials, accessEnv, secretEnv string) {
	if v := os.Getenv(accessEnv); v != "" {
		c.AccessKey = v
	}
	if v := os.Getenv(secretEnv); v != "" {
		c.SecretKey = v
	}
}

// Validate checks the fields needed before any adapter starts. Credential
// presence is intentionally not validated here: an empty key pair is a
// legitimate unauthenticated, market-data-only configuration.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	switch c.Venue {
	case VenueBinanceUSDTFutures, VenueBinanceSpot, VenueBinanceUSSpot, VenueGateIOUSDFutures:
	default:
		return fmt.Errorf("venue %q is not one of: %s, %s, %s, %s",
			c.Venue, VenueBinanceUSDTFutures, VenueBinanceSpot, VenueBinanceUSSpot, VenueGateIOUSDFutures)
	}
	if c.CandleCapacity <= 0 {
		return fmt.Errorf("candle_capacity must be > 0")
	}
	if c.DepthLimit <= 0 {
		return fmt.Errorf("depth_limit must be > 0")
	}
	return nil
}

// CredentialsFor returns the access/secret key pair configured for venue.
func (c *Config) CredentialsFor(venue string) VenueCredentials {
	switch venue {
	case VenueBinanceUSDTFutures, VenueBinanceSpot:
		return c.Binance
	case VenueBinanceUSSpot:
		return c.BinanceUS
	case VenueGateIOUSDFutures:
		return c.GateIO
	default:
		return VenueCredentials{}
	}
}
