// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joeshaw/envdecode"
	log "github.com/sirupsen/logrus"

	"xmlrpc-binder/internal/scalar"
	"xmlrpc-binder/rpcbind"
)

// Log formats accepted in XMLRPC_BINDER_LOG_FORMAT.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is decoded from the environment by Load. Defaults are provided
// via struct tags.
type Config struct {
	// LogLevel is a logrus level name. ENV: XMLRPC_BINDER_LOG_LEVEL
	LogLevel string `env:"XMLRPC_BINDER_LOG_LEVEL,default=info"`
	// LogFormat is text or json. ENV: XMLRPC_BINDER_LOG_FORMAT
	LogFormat string `env:"XMLRPC_BINDER_LOG_FORMAT,default=text"`
	// CacheSize bounds the resolved root cache, 0 for the default.
	// ENV: XMLRPC_BINDER_CACHE_SIZE
	CacheSize int `env:"XMLRPC_BINDER_CACHE_SIZE,default=0"`
	// Coerce is a comma list of scalar coercion categories.
	// ENV: XMLRPC_BINDER_COERCE
	Coerce string `env:"XMLRPC_BINDER_COERCE,default=safe-number"`
}

// Load decodes Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config

	// Strict, so that a malformed number fails instead of decoding to zero.
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks every field without applying anything.
func (c Config) Validate() error {
	var errs []error

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	if _, err := c.Formatter(); err != nil {
		errs = append(errs, err)
	}

	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("invalid cache size %d", c.CacheSize))
	}

	if _, err := c.Categories(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (log.Level, error) {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("invalid log level: %w", err)
	}

	return lvl, nil
}

// Formatter returns the logrus formatter named by LogFormat.
func (c Config) Formatter() (log.Formatter, error) {
	switch strings.ToLower(c.LogFormat) {
	case "", FormatText:
		return &log.TextFormatter{FullTimestamp: true}, nil
	case FormatJSON:
		return &log.JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("invalid log format %q", c.LogFormat)
	}
}

// Categories parses Coerce.
func (c Config) Categories() (scalar.Category, error) {
	return scalar.ParseCategories(strings.Split(c.Coerce, ",")...)
}

// Configure applies level and formatter to l.
func (c Config) Configure(l *log.Logger) error {
	lvl, err := c.Level()
	if err != nil {
		return err
	}

	f, err := c.Formatter()
	if err != nil {
		return err
	}

	l.SetLevel(lvl)
	l.SetFormatter(f)

	return nil
}

// Options converts the configuration into engine options logging to l.
func (c Config) Options(l log.FieldLogger) ([]rpcbind.Option, error) {
	cats, err := c.Categories()
	if err != nil {
		return nil, err
	}

	return []rpcbind.Option{
		rpcbind.WithLogger(l),
		rpcbind.WithCacheSize(c.CacheSize),
		rpcbind.WithCoercion(cats),
	}, nil
}
