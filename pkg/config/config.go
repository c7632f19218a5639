// Package config loads docmap configuration.
//
// Sources are layered, later ones winning:
//
//  1. built-in defaults
//  2. a TOML file (docmap.toml in the working directory unless a path is given)
//  3. DOCMAP_* environment variables, "__" separating sections
//     (DOCMAP_CACHE__BACKEND=redis, DOCMAP_SINK__S3__BUCKET=exports)
//  4. command-line flags that were explicitly set
//
// The result is validated before it is returned.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/matzehuels/docmap/pkg/errors"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "docmap.toml"

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "DOCMAP_"

// Config holds all configuration for docmap.
type Config struct {
	Store  StoreConfig  `koanf:"store"`
	Cache  CacheConfig  `koanf:"cache"`
	Sink   SinkConfig   `koanf:"sink"`
	Server ServerConfig `koanf:"server"`
	Log    LogConfig    `koanf:"log"`
	Export ExportConfig `koanf:"export"`
	// Theme is a TOML theme file layered over the default styles.
	Theme string `koanf:"theme" validate:"omitempty,file"`
}

// StoreConfig selects where maps are read from.
type StoreConfig struct {
	// DSN is a directory, a postgres:// URL or a mongodb:// URL.
	DSN           string `koanf:"dsn"`
	MongoDatabase string `koanf:"mongo_database"`
}

// CacheConfig selects the artifact cache.
type CacheConfig struct {
	Backend string      `koanf:"backend" validate:"oneof=file redis none"`
	Dir     string      `koanf:"dir"`
	Redis   RedisConfig `koanf:"redis"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	Addr     string `koanf:"addr" validate:"omitempty,hostname_port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"min=0,max=15"`
	Prefix   string `koanf:"prefix"`
}

// SinkConfig selects where exports are written.
type SinkConfig struct {
	Backend string   `koanf:"backend" validate:"oneof=file s3"`
	Dir     string   `koanf:"dir"`
	S3      S3Config `koanf:"s3"`
}

// S3Config configures the s3 sink backend.
type S3Config struct {
	Bucket          string `koanf:"bucket"`
	Prefix          string `koanf:"prefix"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"`
	// MaxBodyBytes bounds request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes" validate:"min=1"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json logfmt"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	Formats    []string `koanf:"formats" validate:"dive,oneof=svg dot png pdf json"`
	Padding    float64  `koanf:"padding" validate:"min=0"`
	Background string   `koanf:"background"`
	Scale      float64  `koanf:"scale" validate:"min=0"`
}

func defaults() map[string]any {
	return map[string]any{
		"store": map[string]any{
			"dsn":            ".",
			"mongo_database": "docmap",
		},
		"cache": map[string]any{
			"backend": "file",
			"dir":     "",
			"redis": map[string]any{
				"addr":   "localhost:6379",
				"db":     0,
				"prefix": "docmap:",
			},
		},
		"sink": map[string]any{
			"backend": "file",
			"dir":     ".",
		},
		"server": map[string]any{
			"addr":             ":8080",
			"read_timeout":     "15s",
			"write_timeout":    "60s",
			"shutdown_timeout": "10s",
			"max_body_bytes":   int64(8 << 20),
		},
		"log": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"export": map[string]any{
			"formats": []string{"svg"},
			"padding": 40.0,
			"scale":   2.0,
		},
	}
}

// flagKeys maps command-line flag names onto configuration keys. Flags not
// listed here are not configuration.
var flagKeys = map[string]string{
	"store":      "store.dsn",
	"theme":      "theme",
	"cache":      "cache.backend",
	"cache-dir":  "cache.dir",
	"redis-addr": "cache.redis.addr",
	"sink":       "sink.backend",
	"out":        "sink.dir",
	"bucket":     "sink.s3.bucket",
	"addr":       "server.addr",
	"log-level":  "log.level",
	"log-format": "log.format",
	"format":     "export.formats",
	"padding":    "export.padding",
	"background": "export.background",
	"scale":      "export.scale",
}

// Load loads configuration from defaults, the config file, environment
// variables and flags. path may be empty to use DefaultFile when present;
// an explicit path must exist. f may be nil.
func Load(path string, f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "config file %s could not be loaded", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, any) {
			key, ok := flagKeys[fl.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(f, fl)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "configuration could not be decoded")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid configuration: %s", formatValidationError(err))
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "invalid configuration: cache.redis.addr is required for the redis cache")
	}
	if c.Sink.Backend == "s3" && c.Sink.S3.Bucket == "" {
		return errors.New(errors.ErrCodeInvalidInput, "invalid configuration: sink.s3.bucket is required for the s3 sink")
	}
	return nil
}

func formatValidationError(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		ns := strings.TrimPrefix(e.Namespace(), "Config.")
		if e.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s fails %s=%s", ns, e.Tag(), e.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s fails %s", ns, e.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// Logger builds a logger writing to w at the configured level and format.
func (c LogConfig) Logger(w io.Writer) *log.Logger {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		level = log.InfoLevel
	}
	opts := log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	}
	switch c.Format {
	case "json":
		opts.Formatter = log.JSONFormatter
	case "logfmt":
		opts.Formatter = log.LogfmtFormatter
	}
	return log.NewWithOptions(w, opts)
}

// mapProvider serves a nested map to koanf.
type mapProvider map[string]any

func (p mapProvider) Read() (map[string]any, error) { return p, nil }

func (p mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
